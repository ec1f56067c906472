package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/benw5483/rectifierr/internal/api"
	"github.com/benw5483/rectifierr/internal/config"
	"github.com/benw5483/rectifierr/internal/log"
	"github.com/benw5483/rectifierr/internal/service"
	"github.com/benw5483/rectifierr/internal/store"
	"github.com/benw5483/rectifierr/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		clearCache  bool
		serverURL   string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&clearCache, "clear-cache", false, "remove cached listings and exit")
	flag.StringVar(&serverURL, "server", "", "Rectifierr server URL (overrides config)")
	flag.Parse()

	if showVersion {
		fmt.Printf("rectifierr %s\n", Version)
		return
	}

	if clearCache {
		if err := config.ClearCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Cache cleared.")
		return
	}

	if err := run(serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverURL string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("rectifierr is interactive and needs a terminal")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting rectifierr", "version", Version, "server", cfg.Server.URL)

	client := api.NewClient(cfg.Server.URL, logger)

	listings, err := store.NewListingStore(config.GetCachePath(), cfg.Server.URL)
	if err != nil {
		// Run uncached rather than refuse to start.
		logger.Warn("listing cache unavailable", "error", err)
		listings, _ = store.NewListingStore("", cfg.Server.URL)
	}
	defer listings.Close()

	statusSvc := service.NewStatusService(client, logger)
	mediaSvc := service.NewMediaService(client, listings, logger)
	jobsSvc := service.NewJobsService(client, logger)

	model := tui.NewModel(cfg, client, statusSvc, mediaSvc, jobsSvc, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
