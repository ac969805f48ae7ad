package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/songbook/internal/catalog"
	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SongsAdd creates a song from flags.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	in, err := songInputFromFlags(cmd, models.SongInput{})
	if err != nil {
		return err
	}

	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	id, err := songs.Create(ctx, in)
	if err != nil {
		return err
	}

	r.writePlain("✓ Added %q by %s (id %d)\n", in.Title, in.Artist, id)
	return nil
}

// SongsList prints every song.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	all, err := songs.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if all == nil {
			all = []models.SongView{}
		}
		return r.writeJSON(all, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Songs (%d)", len(all)))
	for _, s := range all {
		r.writePlain("%4d  %s - %s [%s] %.1f\n", s.ID, s.Artist, s.Title, s.Genre, s.Rating)
	}
	return nil
}

// SongsShow prints one song.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}

	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	song, err := songs.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}

	r.writePlainHeader(song.Title)
	r.writePlain("ID:       %d\n", song.ID)
	r.writePlain("Artist:   %s\n", song.Artist)
	r.writePlain("Genre:    %s\n", song.Genre)
	if song.ReleaseDate != "" {
		r.writePlain("Released: %s\n", song.ReleaseDate)
	}
	r.writePlain("Rating:   %.1f\n", song.Rating)
	if song.Lyrics != "" {
		r.writePlainln("%s", song.Lyrics)
	}
	return nil
}

// SongsUpdate replaces a song, starting from its current values and applying any flags that were set.
func (r *Runner) SongsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}

	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	if !anySet(cmd, "title", "artist", "genre", "release-date", "lyrics", "lyrics-file", "rating") {
		return fmt.Errorf("%w: pass at least one field to change", shared.ErrMissingArgument)
	}

	current, err := songs.Get(ctx, id)
	if err != nil {
		return err
	}

	in, err := songInputFromFlags(cmd, current.Input())
	if err != nil {
		return err
	}

	if err := songs.Update(ctx, id, in); err != nil {
		return err
	}

	r.writePlain("✓ Updated song %d\n", id)
	return nil
}

// SongsDelete removes a song. Deleting a missing song is not an error.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}

	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	deleted, err := songs.Delete(ctx, id)
	if err != nil {
		return err
	}

	if deleted {
		r.writePlain("✓ Deleted song %d\n", id)
	} else {
		r.writePlain("Song %d not found, nothing deleted\n", id)
	}
	return nil
}

// SongsExport writes the catalog in the requested format.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	all, err := songs.List(ctx)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if err := formatter.WriteExport(r.output, cmd.String("format"), all, path); err != nil {
		return err
	}

	if path != "" {
		r.logger.Info("export written", "path", path, "songs", len(all))
		r.writePlain("✓ Exported %d songs to %s\n", len(all), path)
	}
	return nil
}

// SongsImport loads a CSV file through the worker pool, printing progress as rows complete.
func (r *Runner) SongsImport(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	opts := tasks.ImportOpts{
		NumWorkers: r.config.Import.Workers,
		RateLimit:  r.config.Import.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	progress := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	importer := tasks.NewImporter(songs, r.logger)
	result, err := importer.ImportFile(ctx, progress, cmd.String("file"), opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if result.Failed > 0 {
		r.writePlainln("%d rows failed:", result.Failed)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  • line %d: %v\n", res.Line, res.Error)
			}
		}
	}
	return nil
}

// Stats prints catalog counts.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.songs(ctx)
	if err != nil {
		return err
	}

	stats, err := songs.Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlain("Songs:   %d\nArtists: %d\nGenres:  %d\n", stats.Songs, stats.Artists, stats.Genres)
	return nil
}

func anySet(cmd *cli.Command, names ...string) bool {
	for _, name := range names {
		if cmd.IsSet(name) {
			return true
		}
	}
	return false
}

func songID(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: song id %q is not a number", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// songInputFromFlags overlays every flag the user set onto base, then normalizes and validates the result.
func songInputFromFlags(cmd *cli.Command, base models.SongInput) (models.SongInput, error) {
	in := base
	if cmd.IsSet("title") {
		in.Title = cmd.String("title")
	}
	if cmd.IsSet("artist") {
		in.Artist = cmd.String("artist")
	}
	if cmd.IsSet("genre") {
		in.Genre = cmd.String("genre")
	}
	if cmd.IsSet("release-date") {
		in.ReleaseDate = cmd.String("release-date")
	}
	if cmd.IsSet("rating") {
		in.Rating = cmd.Float("rating")
	}

	switch {
	case cmd.IsSet("lyrics") && cmd.IsSet("lyrics-file"):
		return in, fmt.Errorf("%w: cannot specify both --lyrics and --lyrics-file", shared.ErrInvalidArgument)
	case cmd.IsSet("lyrics"):
		in.Lyrics = cmd.String("lyrics")
	case cmd.IsSet("lyrics-file"):
		data, err := os.ReadFile(cmd.String("lyrics-file"))
		if err != nil {
			return in, fmt.Errorf("failed to read lyrics file: %w", err)
		}
		in.Lyrics = string(data)
	}

	return catalog.Prepare(in)
}
