package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"reroute/internal/agent"
	"reroute/internal/auth"
	"reroute/internal/config"
	"reroute/internal/domain"
	"reroute/internal/logger"
	"reroute/internal/service"
	"reroute/internal/store"
	"reroute/internal/strava"
	"reroute/internal/task"
	"reroute/internal/tui"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Secrets may live in a local .env during development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("You need to add your Strava API credentials.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	// Open database
	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	logg := logger.Default()

	// Resolve the local user
	user, err := st.EnsureUser(ctx, domain.IdentityClaims{Sub: "local"})
	if err != nil {
		return fmt.Errorf("resolving user: %w", err)
	}

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", auth.CallbackPort),
	})

	// Link the Strava account on first run
	_, err = st.CredentialForUser(ctx, user.ID)
	if errors.Is(err, domain.ErrNotLinked) {
		fmt.Println("No Strava account linked. Starting OAuth flow...")
		result, err := auth.Authenticate(ctx, oauthCfg)
		if err != nil {
			return fmt.Errorf("authentication: %w", err)
		}
		if err := st.SaveCredential(ctx, strava.CredentialFromAuth(user.ID, result)); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
		fmt.Println()
		fmt.Printf("Successfully linked athlete %d!\n", result.AthleteID)
	} else if err != nil {
		return fmt.Errorf("checking credentials: %w", err)
	}

	// Create services
	stravaClient := strava.NewClient(oauthCfg, st)

	var aiClient *agent.OpenAIClient
	if cfg.OpenAI.APIKey != "" {
		aiClient = agent.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
			time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second)
	}
	planAgent := agent.New(aiClient, logg)

	svc := service.NewPlanService(st, stravaClient, planAgent, st, cfg.Athlete.HRZones, logg)
	dispatcher := task.NewDispatcher(svc, cfg.Tasks, logg)

	// Launch TUI
	app := tui.NewApp(svc, dispatcher, cfg, user.ID)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	// Let in-flight background jobs finish before the store closes
	dispatcher.Wait()

	return nil
}
