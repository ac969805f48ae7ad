package repositories

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

var imagine = models.SongInput{
	Title:       "Imagine",
	Artist:      "John Lennon",
	Genre:       "Rock",
	ReleaseDate: "1971-10-11",
	Lyrics:      "Imagine all the people...",
	Rating:      9.5,
}

// setupSQLite creates a file-backed SQLite store in a temp dir with the schema applied
func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	cfg := shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "songbook.db"), MaxOpenConns: 8}
	db, err := shared.NewDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	store := NewSQLiteStore(db, shared.NewLogger(io.Discard))
	if err := store.EnsureSchema(context.Background()); err != nil {
		store.Close()
		t.Fatalf("failed to ensure schema: %v", err)
	}

	t.Cleanup(func() { store.Close() })
	return store
}

// setupDatastore creates a Datastore store over an in-memory fake client
func setupDatastore(t *testing.T) (*DatastoreStore, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	return newDatastoreStore(client, "songbook-test", shared.NewLogger(io.Discard)), client
}

func backends(t *testing.T) map[string]func(t *testing.T) models.Backend {
	t.Helper()
	return map[string]func(t *testing.T) models.Backend{
		"SQLite": func(t *testing.T) models.Backend { return setupSQLite(t) },
		"Datastore": func(t *testing.T) models.Backend {
			store, _ := setupDatastore(t)
			return store
		},
	}
}

func TestBackendContract(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("ResolveArtist is idempotent", func(t *testing.T) {
				ctx := context.Background()
				b := newBackend(t)

				first, err := b.ResolveArtist(ctx, "Nina Simone")
				if err != nil {
					t.Fatalf("failed to resolve artist: %v", err)
				}
				second, err := b.ResolveArtist(ctx, "Nina Simone")
				if err != nil {
					t.Fatalf("failed to resolve artist again: %v", err)
				}

				if first != second {
					t.Errorf("expected same ref, got %v and %v", first, second)
				}

				stats, err := b.Stats(ctx)
				if err != nil {
					t.Fatalf("failed to get stats: %v", err)
				}
				if stats.Artists != 1 {
					t.Errorf("expected 1 artist, got %d", stats.Artists)
				}
			})

			t.Run("ResolveGenre is idempotent", func(t *testing.T) {
				ctx := context.Background()
				b := newBackend(t)

				first, _ := b.ResolveGenre(ctx, "Jazz")
				second, _ := b.ResolveGenre(ctx, "Jazz")
				other, _ := b.ResolveGenre(ctx, "Blues")

				if first != second {
					t.Errorf("expected same ref, got %v and %v", first, second)
				}
				if first == other {
					t.Errorf("expected distinct refs for distinct names, got %v twice", first)
				}
			})

			t.Run("Create & Get", func(t *testing.T) {
				ctx := context.Background()
				b := newBackend(t)

				id, err := b.CreateSong(ctx, imagine)
				if err != nil {
					t.Fatalf("failed to create song: %v", err)
				}

				song, err := b.GetSong(ctx, id)
				if err != nil {
					t.Fatalf("failed to get song: %v", err)
				}

				if song.ID != id {
					t.Errorf("expected id %d, got %d", id, song.ID)
				}
				if song.Input() != imagine {
					t.Errorf("expected %+v, got %+v", imagine, song.Input())
				}
			})

			t.Run("GetSong on empty store", func(t *testing.T) {
				b := newBackend(t)

				song, err := b.GetSong(context.Background(), 9999)
				if !errors.Is(err, models.ErrSongNotFound) {
					t.Errorf("expected ErrSongNotFound, got %v", err)
				}
				if song != nil {
					t.Errorf("expected no song, got %+v", song)
				}
			})

			t.Run("Delete is idempotent", func(t *testing.T) {
				ctx := context.Background()
				b := newBackend(t)

				id, err := b.CreateSong(ctx, imagine)
				if err != nil {
					t.Fatalf("failed to create song: %v", err)
				}

				deleted, err := b.DeleteSong(ctx, id)
				if err != nil {
					t.Fatalf("failed to delete song: %v", err)
				}
				if !deleted {
					t.Error("expected first delete to report a deletion")
				}

				if _, err := b.GetSong(ctx, id); !errors.Is(err, models.ErrSongNotFound) {
					t.Errorf("expected ErrSongNotFound after delete, got %v", err)
				}

				deleted, err = b.DeleteSong(ctx, id)
				if err != nil {
					t.Fatalf("second delete should not fail: %v", err)
				}
				if deleted {
					t.Error("expected second delete to report nothing deleted")
				}
			})

			t.Run("Update changes artist only on target song", func(t *testing.T) {
				ctx := context.Background()
				b := newBackend(t)

				id, err := b.CreateSong(ctx, imagine)
				if err != nil {
					t.Fatalf("failed to create song: %v", err)
				}
				otherID, err := b.CreateSong(ctx, models.SongInput{Title: "Jealous Guy", Artist: "John Lennon", Genre: "Rock", Rating: 8})
				if err != nil {
					t.Fatalf("failed to create second song: %v", err)
				}

				updated := imagine
				updated.Artist = "Plastic Ono Band"
				if err := b.UpdateSong(ctx, id, updated); err != nil {
					t.Fatalf("failed to update song: %v", err)
				}

				song, err := b.GetSong(ctx, id)
				if err != nil {
					t.Fatalf("failed to get song: %v", err)
				}
				if song.ID != id {
					t.Errorf("expected id %d to be stable, got %d", id, song.ID)
				}
				if song.Artist != "Plastic Ono Band" {
					t.Errorf("expected artist Plastic Ono Band, got %s", song.Artist)
				}
				if song.Title != imagine.Title || song.Rating != imagine.Rating {
					t.Errorf("expected other fields unchanged, got %+v", song)
				}

				other, err := b.GetSong(ctx, otherID)
				if err != nil {
					t.Fatalf("failed to get other song: %v", err)
				}
				if other.Artist != "John Lennon" {
					t.Errorf("expected other song artist John Lennon, got %s", other.Artist)
				}
			})

			t.Run("Update missing song", func(t *testing.T) {
				b := newBackend(t)

				err := b.UpdateSong(context.Background(), 4242, models.SongInput{Title: "Boo", Artist: "Ghost Artist", Genre: "Haunt"})
				if !errors.Is(err, models.ErrSongNotFound) {
					t.Errorf("expected ErrSongNotFound, got %v", err)
				}

				stats, err := b.Stats(context.Background())
				if err != nil {
					t.Fatalf("failed to get stats: %v", err)
				}
				if stats != (models.Stats{}) {
					t.Errorf("expected no artist or genre written for a missing song, got %+v", stats)
				}
			})

			t.Run("List shares one artist across songs", func(t *testing.T) {
				ctx := context.Background()
				b := newBackend(t)

				empty, err := b.ListSongs(ctx)
				if err != nil {
					t.Fatalf("failed to list empty store: %v", err)
				}
				if empty == nil || len(empty) != 0 {
					t.Errorf("expected empty non-nil list, got %#v", empty)
				}

				if _, err := b.CreateSong(ctx, imagine); err != nil {
					t.Fatalf("failed to create song: %v", err)
				}

				songs, err := b.ListSongs(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}
				if len(songs) != 1 {
					t.Fatalf("expected 1 song, got %d", len(songs))
				}
				if songs[0].Artist != "John Lennon" || songs[0].Genre != "Rock" {
					t.Errorf("expected John Lennon / Rock, got %s / %s", songs[0].Artist, songs[0].Genre)
				}

				second := models.SongInput{Title: "Working Class Hero", Artist: "John Lennon", Genre: "Folk", ReleaseDate: "1970-12-11", Rating: 8.5}
				if _, err := b.CreateSong(ctx, second); err != nil {
					t.Fatalf("failed to create second song: %v", err)
				}

				songs, err = b.ListSongs(ctx)
				if err != nil {
					t.Fatalf("failed to list songs: %v", err)
				}
				if len(songs) != 2 {
					t.Fatalf("expected 2 songs, got %d", len(songs))
				}
				for _, s := range songs {
					if s.Artist != "John Lennon" {
						t.Errorf("expected artist John Lennon, got %s", s.Artist)
					}
				}

				stats, err := b.Stats(ctx)
				if err != nil {
					t.Fatalf("failed to get stats: %v", err)
				}
				if stats.Songs != 2 || stats.Artists != 1 || stats.Genres != 2 {
					t.Errorf("expected 2 songs, 1 artist, 2 genres, got %+v", stats)
				}
			})

			t.Run("EnsureSchema keeps data", func(t *testing.T) {
				ctx := context.Background()
				b := newBackend(t)

				id, err := b.CreateSong(ctx, imagine)
				if err != nil {
					t.Fatalf("failed to create song: %v", err)
				}

				if err := b.EnsureSchema(ctx); err != nil {
					t.Fatalf("second EnsureSchema failed: %v", err)
				}

				if _, err := b.GetSong(ctx, id); err != nil {
					t.Errorf("expected song to survive EnsureSchema, got %v", err)
				}
			})
		})
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Run("one artist row per name", func(t *testing.T) {
		ctx := context.Background()
		store := setupSQLite(t)

		if _, err := store.CreateSong(ctx, imagine); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		if _, err := store.CreateSong(ctx, models.SongInput{Title: "Mind Games", Artist: "John Lennon", Genre: "Pop", Rating: 7}); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		n, err := store.CountArtists(ctx, "John Lennon")
		if err != nil {
			t.Fatalf("failed to count artists: %v", err)
		}
		if n != 1 {
			t.Errorf("expected exactly 1 artist row, got %d", n)
		}

		n, err = store.CountGenres(ctx, "Rock")
		if err != nil {
			t.Fatalf("failed to count genres: %v", err)
		}
		if n != 1 {
			t.Errorf("expected exactly 1 genre row, got %d", n)
		}
	})

	t.Run("refs are integer surrogates", func(t *testing.T) {
		store := setupSQLite(t)

		ref, err := store.ResolveArtist(context.Background(), "Björk")
		if err != nil {
			t.Fatalf("failed to resolve artist: %v", err)
		}
		if ref.ID == 0 || ref.Name != "" {
			t.Errorf("expected integer ref, got %+v", ref)
		}
	})

	t.Run("concurrent resolution", func(t *testing.T) {
		ctx := context.Background()
		store := setupSQLite(t)

		const workers = 16
		refs := make([]models.Ref, workers)
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				refs[i], errs[i] = store.ResolveArtist(ctx, "Queen")
			}(i)
		}
		wg.Wait()

		for i := range workers {
			if errs[i] != nil {
				t.Fatalf("worker %d failed: %v", i, errs[i])
			}
			if refs[i] != refs[0] {
				t.Errorf("worker %d got %v, want %v", i, refs[i], refs[0])
			}
		}

		n, err := store.CountArtists(ctx, "Queen")
		if err != nil {
			t.Fatalf("failed to count artists: %v", err)
		}
		if n != 1 {
			t.Errorf("expected exactly 1 artist row, got %d", n)
		}
	})

	t.Run("orphaned artist survives delete", func(t *testing.T) {
		ctx := context.Background()
		store := setupSQLite(t)

		id, err := store.CreateSong(ctx, imagine)
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		if _, err := store.DeleteSong(ctx, id); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		stats, err := store.Stats(ctx)
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if stats.Songs != 0 || stats.Artists != 1 {
			t.Errorf("expected 0 songs and 1 orphaned artist, got %+v", stats)
		}
	})

	t.Run("closed pool is an error", func(t *testing.T) {
		store := setupSQLite(t)
		store.Close()

		if _, err := store.ResolveArtist(context.Background(), "Queen"); !errors.Is(err, shared.ErrBackendUnavailable) {
			t.Errorf("expected ErrBackendUnavailable, got %v", err)
		}
	})
}

func TestDatastoreStore(t *testing.T) {
	t.Run("refs are key names", func(t *testing.T) {
		store, client := setupDatastore(t)

		ref, err := store.ResolveGenre(context.Background(), "Shoegaze")
		if err != nil {
			t.Fatalf("failed to resolve genre: %v", err)
		}
		if ref.Name != "Shoegaze" || ref.ID != 0 {
			t.Errorf("expected name ref, got %+v", ref)
		}
		if client.lastNSKey != "songbook-test" {
			t.Errorf("expected namespaced key, got %q", client.lastNSKey)
		}
	})

	t.Run("create writes one batch", func(t *testing.T) {
		store, client := setupDatastore(t)

		if _, err := store.CreateSong(context.Background(), imagine); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		if client.putMulti != 1 {
			t.Errorf("expected 1 PutMulti call, got %d", client.putMulti)
		}
		if client.gets != 0 {
			t.Errorf("expected no reads on create, got %d", client.gets)
		}
		if len(client.names[kindArtist]) != 1 || len(client.names[kindGenre]) != 1 {
			t.Errorf("expected one artist and one genre entity, got %v", client.names)
		}
	})

	t.Run("song stores names as references", func(t *testing.T) {
		store, client := setupDatastore(t)

		id, err := store.CreateSong(context.Background(), imagine)
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		e := client.songs[id]
		if e.ArtistID != "John Lennon" || e.GenreID != "Rock" {
			t.Errorf("expected name references, got %+v", e)
		}
		if e.Created.IsZero() {
			t.Error("expected created timestamp to be set")
		}
	})

	t.Run("update keeps created", func(t *testing.T) {
		ctx := context.Background()
		store, client := setupDatastore(t)

		id, err := store.CreateSong(ctx, imagine)
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		created := client.songs[id].Created

		updated := imagine
		updated.Genre = "Soft Rock"
		if err := store.UpdateSong(ctx, id, updated); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		if !client.songs[id].Created.Equal(created) {
			t.Errorf("expected created %v to be preserved, got %v", created, client.songs[id].Created)
		}
		if len(client.names[kindGenre]) != 2 {
			t.Errorf("expected new genre entity, got %v", client.names[kindGenre])
		}
	})

	t.Run("backend errors propagate", func(t *testing.T) {
		ctx := context.Background()
		store, client := setupDatastore(t)
		client.err = errors.New("rpc error: unavailable")

		if _, err := store.CreateSong(ctx, imagine); err == nil {
			t.Error("expected create to fail")
		}

		_, err := store.GetSong(ctx, 1)
		if err == nil || errors.Is(err, models.ErrSongNotFound) {
			t.Errorf("expected a non not-found error, got %v", err)
		}

		if _, err := store.DeleteSong(ctx, 1); err == nil {
			t.Error("expected delete to fail")
		}
	})

	t.Run("update and delete run in a transaction", func(t *testing.T) {
		ctx := context.Background()
		store, client := setupDatastore(t)

		id, err := store.CreateSong(ctx, imagine)
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		client.commitErr = errors.New("transaction aborted")
		updated := imagine
		updated.Artist = "Yoko Ono"
		if err := store.UpdateSong(ctx, id, updated); !errors.Is(err, client.commitErr) {
			t.Errorf("expected aborted update, got %v", err)
		}
		if _, err := store.DeleteSong(ctx, id); !errors.Is(err, client.commitErr) {
			t.Errorf("expected aborted delete, got %v", err)
		}

		client.commitErr = nil
		song, err := store.GetSong(ctx, id)
		if err != nil {
			t.Fatalf("expected song to survive aborted transactions: %v", err)
		}
		if song.Artist != "John Lennon" {
			t.Errorf("expected aborted update to leave artist unchanged, got %s", song.Artist)
		}
		if len(client.names[kindArtist]) != 1 {
			t.Errorf("expected aborted update to write no artist, got %v", client.names[kindArtist])
		}

		if err := store.UpdateSong(ctx, id, updated); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}
		if client.commits != 1 {
			t.Errorf("expected 1 committed transaction, got %d", client.commits)
		}
	})

	t.Run("List includes songs without created and sorts by id", func(t *testing.T) {
		ctx := context.Background()
		store, client := setupDatastore(t)

		for range 3 {
			if _, err := store.CreateSong(ctx, imagine); err != nil {
				t.Fatalf("failed to create song: %v", err)
			}
		}
		legacy := client.songs[2]
		legacy.Created = time.Time{}
		client.songs[2] = legacy

		songs, err := store.ListSongs(ctx)
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(songs) != 3 {
			t.Fatalf("expected 3 songs, got %d", len(songs))
		}
		for i, song := range songs {
			if song.ID != int64(i+1) {
				t.Errorf("expected id %d at position %d, got %d", i+1, i, song.ID)
			}
		}
	})

	t.Run("Close closes client", func(t *testing.T) {
		store, client := setupDatastore(t)
		if err := store.Close(); err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}
		if !client.closed {
			t.Error("expected client to be closed")
		}
	})
}

func TestSchemaStatements(t *testing.T) {
	statements, err := schemaStatements()
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	if len(statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(statements))
	}
	for _, stmt := range statements {
		if len(stmt) >= 2 && stmt[:2] == "--" {
			t.Errorf("expected comments stripped, got %q", stmt)
		}
	}
}

func TestOpen(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "open.db")

		backend, err := Open(context.Background(), config, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("failed to open backend: %v", err)
		}
		defer backend.Close()

		if _, ok := backend.(*SQLiteStore); !ok {
			t.Errorf("expected *SQLiteStore, got %T", backend)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Driver = "mongo"

		if _, err := Open(context.Background(), config, nil); !errors.Is(err, shared.ErrUnknownDriver) {
			t.Errorf("expected ErrUnknownDriver, got %v", err)
		}
	})
}
