package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/catalog"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/trend"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog *catalog.Service
	prices  *trend.History
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog is optional; when nil the backend named by Config is opened on first use.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog *catalog.Service
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, songsCommand, statsCommand, serveCommand, tuiCommand, trendCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// songs returns the catalog, opening the configured backend the first time it is needed.
func (r *Runner) songs(ctx context.Context) (*catalog.Service, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	backend, err := repositories.Open(ctx, r.config, r.logger)
	if err != nil {
		return nil, err
	}
	r.catalog = catalog.NewService(backend, r.logger)
	return r.catalog, nil
}

// history returns the price history, opening the SQLite file at Database.Path the first time it is needed.
// It is used whichever catalog driver is configured.
func (r *Runner) history(ctx context.Context) (*trend.History, error) {
	if r.prices != nil {
		return r.prices, nil
	}

	db, err := shared.NewDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, err
	}
	prices, err := trend.NewHistory(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.prices = prices
	return prices, nil
}

// Close releases the catalog backend and price history if either was opened.
func (r *Runner) Close() error {
	var errs []error
	if r.catalog != nil {
		errs = append(errs, r.catalog.Close())
		r.catalog = nil
	}
	if r.prices != nil {
		errs = append(errs, r.prices.Close())
		r.prices = nil
	}
	return errors.Join(errs...)
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
