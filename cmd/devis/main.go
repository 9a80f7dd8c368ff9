package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"topglass/internal/client"
	"topglass/internal/config"
	"topglass/internal/domain/quote"
	"topglass/internal/pkg/logger"
	"topglass/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The screen belongs to the wizard, so logs go to a file when asked for.
	log := zap.NewNop()
	if path := os.Getenv("DEVIS_LOG_FILE"); path != "" {
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(logger.ParseLevel(cfg.LogLevel))
		zcfg.OutputPaths = []string{path}
		zcfg.ErrorOutputPaths = []string{path}
		if l, err := zcfg.Build(); err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	api := client.New(client.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.Timeout, Logger: log})
	orch := quote.NewOrchestrator(api.Collaborators(), quote.WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := tui.New(quote.NewMachine(orch), tui.WithContext(ctx), tui.WithLogger(log))
	defer app.Close()

	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running wizard: %v\n", err)
		os.Exit(1)
	}
}
