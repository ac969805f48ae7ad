package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/songbook/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, then opens the configured backend so its schema exists.
//
// Running it again is safe: existing data is left untouched.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if err := r.Close(); err != nil {
		r.logger.Warn("failed to close previous backend", "error", err)
	}
	r.config = config

	r.logger.Info("initializing storage", "driver", config.Database.Driver)
	songs, err := r.songs(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	stats, err := songs.Stats(ctx)
	if err != nil {
		return err
	}

	target := config.Database.Path
	if config.Database.Driver == shared.DriverDatastore {
		target = config.Datastore.ProjectID
	}
	r.logger.Infof("setup complete for %s: %v", config.Database.Driver, target)
	r.writePlain("✓ %s storage ready at %s (%d songs, %d artists, %d genres)\n",
		config.Database.Driver, target, stats.Songs, stats.Artists, stats.Genres)
	return nil
}
