package trend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/shared"
	"github.com/jmoiron/sqlx"
)

// DefaultWindow is how far back [History.Recent] looks when no window is given.
const DefaultWindow = 30 * 24 * time.Hour

const historySchema = `
	CREATE TABLE IF NOT EXISTS prices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		price REAL NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS prices_ticker_recorded ON prices (ticker, recorded_at);
`

// History stores observed prices per ticker in SQLite.
//
// recorded_at holds Unix nanoseconds in UTC so range filters compare integers.
type History struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewHistory creates the prices table on db if it is missing.
func NewHistory(ctx context.Context, db *sqlx.DB) (*History, error) {
	if _, err := db.ExecContext(ctx, historySchema); err != nil {
		return nil, fmt.Errorf("failed to create price history: %w", err)
	}
	return &History{db: db, now: time.Now}, nil
}

// Save records price for ticker at the current time.
func (h *History) Save(ctx context.Context, ticker string, price float64) error {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return err
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO prices (ticker, price, recorded_at) VALUES (?, ?, ?)`,
		ticker, price, h.now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save price for %s: %w", ticker, err)
	}
	return nil
}

// Recent returns the prices recorded for ticker within window, oldest first.
// A non-positive window means [DefaultWindow].
func (h *History) Recent(ctx context.Context, ticker string, window time.Duration) ([]float64, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultWindow
	}

	cutoff := h.now().UTC().Add(-window).UnixNano()
	prices := make([]float64, 0)
	err = h.db.SelectContext(ctx, &prices,
		`SELECT price FROM prices WHERE ticker = ? AND recorded_at >= ? ORDER BY recorded_at ASC, id ASC`,
		ticker, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to read prices for %s: %w", ticker, err)
	}
	return prices, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

func normalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("%w: ticker is required", shared.ErrInvalidInput)
	}
	return ticker, nil
}
