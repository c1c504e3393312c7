package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"lograg/internal/app"
	"lograg/internal/config"
	"lograg/internal/logging"
	"lograg/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	// Log to file only so output does not corrupt the terminal UI.
	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = "lograg-tui.log"
	}
	logger, err := logging.New(logging.Options{
		Level:     cfg.Logging.Level,
		Format:    "json",
		File:      logFile,
		NoConsole: true,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := app.Build(cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	health := c.Service.Health(context.Background())
	llmState := "unavailable"
	if health.LLMAvailable {
		llmState = "available (" + c.LLM.Model() + ")"
	}
	summary := fmt.Sprintf("%d historical logs loaded from %s  LLM: %s", health.VectorsLoaded, cfg.Store.VectorsFile, llmState)

	m := tui.New(c.Service, summary)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
