package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava"`
	OpenAI  OpenAIConfig  `json:"openai"`
	Athlete AthleteConfig `json:"athlete"`
	Tasks   TaskConfig    `json:"tasks"`
	Display DisplayConfig `json:"display"`

	// DatabasePath overrides the default SQLite location when set
	DatabasePath string `json:"database_path,omitempty"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// OpenAIConfig holds plan-agent model settings. An empty APIKey means the
// heuristic generator runs alone.
type OpenAIConfig struct {
	APIKey          string  `json:"api_key"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	TimeoutSeconds  int     `json:"timeout_seconds"`
}

// AthleteConfig holds athlete-specific settings. HRZones are ascending
// heart-rate zone upper thresholds in bpm.
type AthleteConfig struct {
	HRZones       []float64 `json:"hr_zones"`
	Goal          string    `json:"goal"`
	DurationWeeks int       `json:"duration_weeks"`
}

// TaskConfig controls plan-job dispatch
type TaskConfig struct {
	ForceInline    bool `json:"force_inline"`
	TimeoutSeconds int  `json:"timeout_seconds"`
}

// DisplayConfig holds console display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		OpenAI: OpenAIConfig{
			Model:           "gpt-4o-mini",
			Temperature:     0.3,
			MaxOutputTokens: 1200,
			TimeoutSeconds:  30,
		},
		Athlete: AthleteConfig{
			HRZones:       []float64{115, 135, 155, 170},
			Goal:          "Build aerobic base",
			DurationWeeks: 8,
		},
		Tasks: TaskConfig{
			TimeoutSeconds: 300,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
	}
}

// Load reads the configuration from ~/.reroute/config.json and applies
// environment overrides for secrets (STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET,
// OPENAI_API_KEY, REROUTE_DB_PATH).
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaults.OpenAI.Model
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = defaults.OpenAI.Temperature
	}
	if cfg.OpenAI.MaxOutputTokens == 0 {
		cfg.OpenAI.MaxOutputTokens = defaults.OpenAI.MaxOutputTokens
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = defaults.OpenAI.TimeoutSeconds
	}
	if len(cfg.Athlete.HRZones) == 0 {
		cfg.Athlete.HRZones = defaults.Athlete.HRZones
	}
	if cfg.Athlete.Goal == "" {
		cfg.Athlete.Goal = defaults.Athlete.Goal
	}
	if cfg.Athlete.DurationWeeks == 0 {
		cfg.Athlete.DurationWeeks = defaults.Athlete.DurationWeeks
	}
	if cfg.Tasks.TimeoutSeconds == 0 {
		cfg.Tasks.TimeoutSeconds = defaults.Tasks.TimeoutSeconds
	}
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STRAVA_CLIENT_ID"); v != "" {
		cfg.Strava.ClientID = v
	}
	if v := os.Getenv("STRAVA_CLIENT_SECRET"); v != "" {
		cfg.Strava.ClientSecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("REROUTE_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("REROUTE_TASKS_INLINE"); v != "" {
		if inline, err := strconv.ParseBool(v); err == nil {
			cfg.Tasks.ForceInline = inline
		}
	}
}

// Save writes the configuration to ~/.reroute/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	for i := 1; i < len(c.Athlete.HRZones); i++ {
		if c.Athlete.HRZones[i] <= c.Athlete.HRZones[i-1] {
			return fmt.Errorf("athlete.hr_zones must be strictly ascending, got %v", c.Athlete.HRZones)
		}
	}

	if c.Athlete.DurationWeeks < 1 {
		return fmt.Errorf("athlete.duration_weeks must be at least 1, got %d", c.Athlete.DurationWeeks)
	}

	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	return nil
}

// DBPath returns the SQLite database path, honoring the configured override.
func (c *Config) DBPath() (string, error) {
	if c.DatabasePath != "" {
		return c.DatabasePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".reroute", "data.db"), nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".reroute", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".reroute"), nil
}
