package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

func TestSQLiteStoreErrors(t *testing.T) {
	t.Run("cancelled context", func(t *testing.T) {
		store := setupSQLite(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := store.ResolveArtist(ctx, "John Lennon"); !errors.Is(err, shared.ErrBackendUnavailable) {
			t.Errorf("expected ErrBackendUnavailable, got %v", err)
		}
		if _, err := store.CreateSong(ctx, imagine); err == nil {
			t.Error("expected create to fail")
		}
		if _, err := store.ListSongs(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		_, err := store.GetSong(ctx, 1)
		if err == nil || errors.Is(err, models.ErrSongNotFound) {
			t.Errorf("expected a non not-found error, got %v", err)
		}
		if err := store.UpdateSong(ctx, 1, imagine); err == nil {
			t.Error("expected update to fail")
		}
		if _, err := store.DeleteSong(ctx, 1); err == nil {
			t.Error("expected delete to fail")
		}
		if _, err := store.Stats(ctx); err == nil {
			t.Error("expected stats to fail")
		}
	})

	t.Run("closed database", func(t *testing.T) {
		store := setupSQLite(t)
		if err := store.Close(); err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}

		if _, err := store.ListSongs(context.Background()); err == nil {
			t.Error("expected list on a closed store to fail")
		}
		if _, err := store.CreateSong(context.Background(), imagine); err == nil {
			t.Error("expected create on a closed store to fail")
		}
	})

	t.Run("foreign keys are enforced", func(t *testing.T) {
		store := setupSQLite(t)

		_, err := store.db.ExecContext(context.Background(),
			`INSERT INTO songs (title, artist_id, genre_id) VALUES (?, ?, ?)`, "Orphan", 999, 999)
		if err == nil {
			t.Error("expected insert with unknown artist to fail")
		}
	})

	t.Run("names are unique", func(t *testing.T) {
		store := setupSQLite(t)
		ctx := context.Background()

		if _, err := store.db.ExecContext(ctx, `INSERT INTO artists (name) VALUES (?)`, "Nico"); err != nil {
			t.Fatalf("failed to insert artist: %v", err)
		}
		if _, err := store.db.ExecContext(ctx, `INSERT INTO artists (name) VALUES (?)`, "Nico"); err == nil {
			t.Error("expected duplicate artist name to fail")
		}

		ref, err := store.ResolveArtist(ctx, "Nico")
		if err != nil {
			t.Fatalf("failed to resolve artist: %v", err)
		}
		if ref.ID != 1 {
			t.Errorf("expected existing artist id 1, got %d", ref.ID)
		}
	})

	t.Run("names are required", func(t *testing.T) {
		store := setupSQLite(t)

		if _, err := store.db.ExecContext(context.Background(), `INSERT INTO genres (name) VALUES (NULL)`); err == nil {
			t.Error("expected null genre name to fail")
		}
	})
}

func TestDatastoreStoreErrors(t *testing.T) {
	unavailable := errors.New("rpc error: code = Unavailable")

	tc := []struct {
		name string
		call func(ctx context.Context, s *DatastoreStore) error
	}{
		{name: "ResolveArtist", call: func(ctx context.Context, s *DatastoreStore) error {
			_, err := s.ResolveArtist(ctx, "John Lennon")
			return err
		}},
		{name: "ResolveGenre", call: func(ctx context.Context, s *DatastoreStore) error {
			_, err := s.ResolveGenre(ctx, "Rock")
			return err
		}},
		{name: "CreateSong", call: func(ctx context.Context, s *DatastoreStore) error {
			_, err := s.CreateSong(ctx, imagine)
			return err
		}},
		{name: "ListSongs", call: func(ctx context.Context, s *DatastoreStore) error {
			_, err := s.ListSongs(ctx)
			return err
		}},
		{name: "GetSong", call: func(ctx context.Context, s *DatastoreStore) error {
			_, err := s.GetSong(ctx, 1)
			return err
		}},
		{name: "UpdateSong", call: func(ctx context.Context, s *DatastoreStore) error {
			return s.UpdateSong(ctx, 1, imagine)
		}},
		{name: "DeleteSong", call: func(ctx context.Context, s *DatastoreStore) error {
			_, err := s.DeleteSong(ctx, 1)
			return err
		}},
		{name: "Stats", call: func(ctx context.Context, s *DatastoreStore) error {
			_, err := s.Stats(ctx)
			return err
		}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			store, client := setupDatastore(t)
			client.err = unavailable

			err := tt.call(context.Background(), store)
			if !errors.Is(err, unavailable) {
				t.Errorf("expected client error to propagate, got %v", err)
			}
			if errors.Is(err, models.ErrSongNotFound) {
				t.Errorf("client failure must not read as not found: %v", err)
			}
		})
	}

	t.Run("failed create leaves no song", func(t *testing.T) {
		ctx := context.Background()
		store, client := setupDatastore(t)
		client.err = unavailable

		if _, err := store.CreateSong(ctx, imagine); err == nil {
			t.Fatal("expected create to fail")
		}

		client.err = nil
		stats, err := store.Stats(ctx)
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if stats != (models.Stats{}) {
			t.Errorf("expected empty catalog, got %+v", stats)
		}
	})
}
