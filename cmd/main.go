package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/songbook/internal/shared"
	"github.com/urfave/cli/v3"
)

// configEnv names a config file to load instead of ./config.toml
const configEnv = "SONGBOOK_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv(configEnv)
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatal("failed to load config", "path", configPath, "error", err)
		}
		config = loaded
	} else if err := shared.ApplyEnv(config); err != nil {
		logger.Fatal("failed to read environment", "error", err)
	}

	appLogger, closer, err := shared.LoggerFromConfig(config.Logging)
	if err != nil {
		logger.Fatal("failed to configure logging", "error", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: appLogger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "songbook",
		Usage:    "Manage a song catalog backed by SQLite or Cloud Datastore",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			appLogger.Warn("not implemented")
			return
		}
		runner.Close()
		appLogger.Fatalf("application error: %v", err)
	}
}
