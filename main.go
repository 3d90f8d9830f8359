package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quickfind/internal/config"
	"quickfind/internal/domain"
	"quickfind/internal/match"
	"quickfind/internal/remote"
	"quickfind/internal/search"
	"quickfind/internal/ui"
)

func main() {
	// Parse command line arguments
	var configPath string
	var remoteURL string
	flag.StringVar(&configPath, "config", "", "Path to a config file (default: user config dir)")
	flag.StringVar(&remoteURL, "remote", "", "Remote search endpoint, overrides the config file")
	flag.Parse()

	// Set up logging; stdout belongs to the TUI
	logFile, err := os.OpenFile("quickfind.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Load configuration
	configSvc := config.NewConfigService()
	cfg := loadOrCreateConfig(configSvc, configPath)
	if remoteURL != "" {
		cfg.Remote.BaseURL = remoteURL
	}

	// Build the remote fetch callback
	remoteFn := buildRemoteFunc(cfg)

	// Create the search coordinator
	coord, err := search.New(search.Options[domain.Bookmark]{
		InitialData:    cfg.Bookmarks,
		Remote:         remoteFn,
		Match:          match.Substring(domain.Bookmark.SearchText),
		Equal:          domain.SameBookmark,
		Debounce:       cfg.Search.Debounce(),
		MinQueryLength: cfg.Search.MinQueryLength,
	})
	if err != nil {
		fmt.Printf("Error creating search coordinator: %v\n", err)
		os.Exit(1)
	}
	defer coord.Close()

	// Subscribe before the UI starts so the initial search isn't missed
	snapshots, unsubscribe := coord.Snapshots(0)
	defer unsubscribe()

	// Create the UI model and the Bubble Tea program
	uiModel := ui.NewModel(coord, cfg)
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	uiModel.SetProgram(p)

	// Forward snapshots into the program
	go func() {
		for snap := range snapshots {
			p.Send(ui.SnapshotMsg{Snapshot: snap})
		}
		p.Send(ui.StreamClosedMsg{})
	}()

	// Run the UI
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")
}

// buildRemoteFunc wires the HTTP searcher, or a stub that reports the
// missing configuration when no endpoint is set.
func buildRemoteFunc(cfg *config.Config) search.RemoteFunc[domain.Bookmark] {
	if cfg.Remote.BaseURL == "" {
		return func(ctx context.Context, query string) ([]domain.Bookmark, error) {
			return nil, fmt.Errorf("no remote endpoint configured")
		}
	}

	client, err := remote.NewClient(remote.Options{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout(),
		RateLimit: cfg.Remote.RateLimit,
	})
	if err != nil {
		log.Printf("Invalid remote configuration: %v", err)
		return func(ctx context.Context, query string) ([]domain.Bookmark, error) {
			return nil, fmt.Errorf("remote misconfigured: %w", err)
		}
	}
	return client.Func()
}

// loadOrCreateConfig loads the config, creating a default one on first run
func loadOrCreateConfig(configSvc config.ConfigService, path string) *config.Config {
	if path != "" {
		cfg, err := configSvc.LoadFromPath(path)
		if err != nil {
			log.Printf("Error loading config from %s: %v", path, err)
			return defaultConfigWithSamples()
		}
		return cfg
	}

	cfg, err := configSvc.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		return defaultConfigWithSamples()
	}

	if len(cfg.Bookmarks) == 0 && cfg.Remote.BaseURL == "" {
		// First run: seed samples so the list isn't empty, and persist them
		cfg = defaultConfigWithSamples()
		if err := configSvc.Save(cfg); err != nil {
			log.Printf("Failed to save config: %v", err)
		}
	}
	return cfg
}

func defaultConfigWithSamples() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bookmarks = []domain.Bookmark{
		{Name: "The Go Programming Language", URL: "https://go.dev", Tags: []string{"go", "docs"}},
		{Name: "Go Packages", URL: "https://pkg.go.dev", Tags: []string{"go", "packages"}},
		{Name: "Bubble Tea", URL: "https://github.com/charmbracelet/bubbletea", Tags: []string{"tui"}},
	}
	return cfg
}
