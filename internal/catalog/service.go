// Package catalog is the entry point request handlers, the CLI and the TUI use to manage songs.
//
// [Service] delegates to the configured models.Backend and adds no business logic of its own, so callers
// never depend on which backend is active. Input checks belong to the caller; [Prepare] is the shared
// normalize-and-validate step the HTTP handlers, the CLI and the importer run before calling the service.
package catalog

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// Service is the CRUD façade over a single storage backend.
type Service struct {
	backend models.Backend
	logger  *log.Logger
}

// NewService creates a Service over backend
func NewService(backend models.Backend, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{backend: backend, logger: shared.WithLogger(logger, "component", "catalog")}
}

// Create stores a new song, returning its id.
func (s *Service) Create(ctx context.Context, in models.SongInput) (int64, error) {
	id, err := s.backend.CreateSong(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("failed to create song: %w", err)
	}

	s.logger.Info("song created", "id", id, "title", in.Title, "artist", in.Artist)
	return id, nil
}

// List returns every song with artist and genre names resolved.
func (s *Service) List(ctx context.Context) ([]models.SongView, error) {
	songs, err := s.backend.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

// Get returns one song, or an error wrapping [models.ErrSongNotFound].
func (s *Service) Get(ctx context.Context, id int64) (*models.SongView, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}
	return s.backend.GetSong(ctx, id)
}

// Update replaces every mutable field of song id.
func (s *Service) Update(ctx context.Context, id int64, in models.SongInput) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}

	if err := s.backend.UpdateSong(ctx, id, in); err != nil {
		return err
	}

	s.logger.Info("song updated", "id", id, "title", in.Title)
	return nil
}

// Delete removes song id and reports whether anything was deleted.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}

	deleted, err := s.backend.DeleteSong(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete song: %w", err)
	}

	if deleted {
		s.logger.Info("song deleted", "id", id)
	} else {
		s.logger.Debug("delete found nothing", "id", id)
	}
	return deleted, nil
}

// Stats reports catalog sizes.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	return s.backend.Stats(ctx)
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.backend.Close()
}

// Prepare normalizes in and validates it, tagging failures with [shared.ErrInvalidInput].
func Prepare(in models.SongInput) (models.SongInput, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return in, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return in, nil
}
