package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Strava = StravaConfig{ClientID: "12345", ClientSecret: "secret"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.Strava.ClientID = "" },
			wantErr: true,
		},
		{
			name:    "placeholder client id",
			mutate:  func(c *Config) { c.Strava.ClientID = "YOUR_CLIENT_ID" },
			wantErr: true,
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.Strava.ClientSecret = "" },
			wantErr: true,
		},
		{
			name:    "unsorted hr zones",
			mutate:  func(c *Config) { c.Athlete.HRZones = []float64{135, 115, 155} },
			wantErr: true,
		},
		{
			name:    "duplicate hr zones",
			mutate:  func(c *Config) { c.Athlete.HRZones = []float64{115, 115} },
			wantErr: true,
		},
		{
			name:    "empty hr zones are allowed",
			mutate:  func(c *Config) { c.Athlete.HRZones = nil },
			wantErr: false,
		},
		{
			name:    "zero duration weeks",
			mutate:  func(c *Config) { c.Athlete.DurationWeeks = 0 },
			wantErr: true,
		},
		{
			name:    "bad distance unit",
			mutate:  func(c *Config) { c.Display.DistanceUnit = "furlongs" },
			wantErr: true,
		},
		{
			name:    "miles distance unit",
			mutate:  func(c *Config) { c.Display.DistanceUnit = "mi" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Athlete.HRZones = append([]float64(nil), valid.Athlete.HRZones...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.OpenAI.Model == "" {
		t.Error("expected a default model")
	}
	if cfg.OpenAI.TimeoutSeconds != 30 {
		t.Errorf("OpenAI.TimeoutSeconds = %d, want 30", cfg.OpenAI.TimeoutSeconds)
	}
	if len(cfg.Athlete.HRZones) == 0 {
		t.Error("expected default hr zones")
	}
	if cfg.Athlete.DurationWeeks != 8 {
		t.Errorf("Athlete.DurationWeeks = %d, want 8", cfg.Athlete.DurationWeeks)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "env-id")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("REROUTE_TASKS_INLINE", "true")

	cfg := DefaultConfig()
	cfg.Strava.ClientID = "file-id"
	applyEnv(&cfg)

	if cfg.Strava.ClientID != "env-id" {
		t.Errorf("Strava.ClientID = %q, want env override", cfg.Strava.ClientID)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("OpenAI.APIKey = %q, want env override", cfg.OpenAI.APIKey)
	}
	if !cfg.Tasks.ForceInline {
		t.Error("Tasks.ForceInline = false, want true from env")
	}
}
