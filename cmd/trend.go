package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/trend"
	"github.com/urfave/cli/v3"
)

// Trend prints a buy/sell/hold signal for --current against a price history.
//
// With --ticker the stored history for that ticker comes first, followed by any prices given as arguments.
// --record saves --current afterwards so it never counts toward its own average.
func (r *Runner) Trend(ctx context.Context, cmd *cli.Command) error {
	ticker := cmd.String("ticker")
	if cmd.Bool("record") && ticker == "" {
		return fmt.Errorf("%w: --record needs --ticker", shared.ErrMissingArgument)
	}

	var history []float64
	if ticker != "" {
		prices, err := r.history(ctx)
		if err != nil {
			return err
		}
		stored, err := prices.Recent(ctx, ticker, time.Duration(cmd.Int("days"))*24*time.Hour)
		if err != nil {
			return err
		}
		history = stored
	}

	for _, arg := range cmd.Args().Slice() {
		price, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("%w: price %q is not a number", shared.ErrInvalidArgument, arg)
		}
		history = append(history, price)
	}

	current := cmd.Float("current")
	report := trend.NewReport(current, history)
	r.logger.Debug("trend analyzed", "ticker", ticker, "signal", report.Signal, "samples", report.Samples)

	if cmd.Bool("record") {
		prices, err := r.history(ctx)
		if err != nil {
			return err
		}
		if err := prices.Save(ctx, ticker, current); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", report)
}
