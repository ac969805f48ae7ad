// package tasks implements long-running catalog operations with progress reporting.
package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/catalog"
	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/models"
	"golang.org/x/time/rate"
)

// Worker pool bounds for [ImportOpts.NumWorkers].
const (
	DefaultWorkers   = 4
	MaxWorkers       = 16
	DefaultRateLimit = 50.0
)

// SongCreator is the part of the catalog an import writes through.
type SongCreator interface {
	Create(ctx context.Context, in models.SongInput) (int64, error)
}

// ImportOpts contains configuration for bulk song imports.
type ImportOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 16)
	RateLimit  float64 // Creates per second across all workers (default: 50)
}

// RowResult is the outcome of importing one CSV record.
type RowResult struct {
	Line  int
	Title string
	ID    int64 // ID of the created song, zero on failure
	Error error
}

// ImportResult summarizes a bulk import. Results are ordered by source line.
type ImportResult struct {
	Total    int
	Imported int
	Failed   int
	Results  []RowResult
}

// Importer loads songs in bulk through a [SongCreator].
type Importer struct {
	songs  SongCreator
	logger *log.Logger
}

// NewImporter creates an [Importer] writing through songs.
func NewImporter(songs SongCreator, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Importer{songs: songs, logger: logger}
}

// ImportFile parses the CSV at path and imports every record.
func (im *Importer) ImportFile(ctx context.Context, prog chan<- ProgressUpdate, path string, opts ImportOpts) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return im.ImportCSV(ctx, prog, f, opts)
}

// ImportCSV parses CSV from r and imports every record.
func (im *Importer) ImportCSV(ctx context.Context, prog chan<- ProgressUpdate, r io.Reader, opts ImportOpts) (*ImportResult, error) {
	sendProgress(prog, parsingUpdate())
	rows, err := formatter.ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, prog, rows, opts)
}

// Import creates a song for every row concurrently with rate limiting and progress tracking.
//
// Rows are handed to a fixed pool of workers. A row that fails to parse or validate is recorded in the result
// and does not stop the import. Cancelling ctx stops dispatching new rows and returns the partial result with ctx's error.
func (im *Importer) Import(ctx context.Context, prog chan<- ProgressUpdate, rows []formatter.Row, opts ImportOpts) (*ImportResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	total := len(rows)
	result := &ImportResult{Total: total, Results: make([]RowResult, 0, total)}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan formatter.Row, total)
	results := make(chan RowResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go im.importWorker(ctx, &wg, jobs, results)
	}

	// The producer also writes rejected rows to results, so it joins the group that gates close(results).
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		sendProgress(prog, startedUpdate(total, opts.NumWorkers))
		for _, row := range rows {
			if row.Err == nil {
				row.Input, row.Err = catalog.Prepare(row.Input)
			}
			if row.Err != nil {
				results <- RowResult{Line: row.Line, Title: row.Input.Title, Error: row.Err}
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- row
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Imported++
			sendProgress(prog, rowImportedUpdate(completed, total, res))
		} else {
			result.Failed++
			im.logger.Warn("import row failed", "line", res.Line, "title", res.Title, "error", res.Error)
			sendProgress(prog, rowFailedUpdate(completed, total, res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].Line < result.Results[j].Line })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("import interrupted after %d of %d rows: %w", completed, total, err)
	}

	sendProgress(prog, finishedUpdate(result))
	im.logger.Info("import finished", "total", total, "imported", result.Imported, "failed", result.Failed)
	return result, nil
}

// importWorker creates songs from the jobs channel until it is closed or ctx is done.
func (im *Importer) importWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan formatter.Row, results chan<- RowResult) {
	defer wg.Done()

	for row := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		id, err := im.songs.Create(ctx, row.Input)
		results <- RowResult{Line: row.Line, Title: row.Input.Title, ID: id, Error: err}
	}
}
