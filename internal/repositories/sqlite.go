package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/jmoiron/sqlx"
)

var _ models.Backend = (*SQLiteStore)(nil)

// lookupTable holds the resolve queries for a name-keyed table.
type lookupTable struct {
	name   string
	insert string
	lookup string
	count  string
}

var (
	artistsTable = lookupTable{
		name:   "artists",
		insert: `INSERT INTO artists (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		lookup: `SELECT id FROM artists WHERE name = ?`,
		count:  `SELECT COUNT(*) FROM artists WHERE name = ?`,
	}
	genresTable = lookupTable{
		name:   "genres",
		insert: `INSERT INTO genres (name) VALUES (?) ON CONFLICT(name) DO NOTHING`,
		lookup: `SELECT id FROM genres WHERE name = ?`,
		count:  `SELECT COUNT(*) FROM genres WHERE name = ?`,
	}
)

const songViewColumns = `
	songs.id AS id,
	songs.title AS title,
	artists.name AS artist,
	genres.name AS genre,
	songs.release_date AS release_date,
	songs.lyrics AS lyrics,
	songs.rating AS rating
`

// SQLiteStore implements [models.Backend] on an embedded SQLite database.
//
// Artist and genre ids are integer surrogates. Each operation borrows a connection from the pool for its own
// duration only, so no connection state is shared between requests.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *log.Logger
}

// NewSQLiteStore creates a new SQLiteStore with the given connection pool
func NewSQLiteStore(db *sqlx.DB, logger *log.Logger) *SQLiteStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SQLiteStore{db: db, logger: shared.WithLogger(logger, "backend", shared.DriverSQLite)}
}

// EnsureSchema creates the artists, genres and songs tables if they are missing
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if err := applySchema(ctx, s.db); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// ResolveArtist returns the id of the artist with the given name, inserting it if absent
func (s *SQLiteStore) ResolveArtist(ctx context.Context, name string) (models.Ref, error) {
	id, err := s.resolve(ctx, artistsTable, name)
	if err != nil {
		return models.Ref{}, err
	}
	return models.Ref{ID: id}, nil
}

// ResolveGenre returns the id of the genre with the given name, inserting it if absent
func (s *SQLiteStore) ResolveGenre(ctx context.Context, name string) (models.Ref, error) {
	id, err := s.resolve(ctx, genresTable, name)
	if err != nil {
		return models.Ref{}, err
	}
	return models.Ref{ID: id}, nil
}

// resolve inserts name, ignoring a uniqueness conflict, then reads back the winning row when nothing was inserted.
//
// Both statements run on the same pooled connection, released on every return path.
func (s *SQLiteStore) resolve(ctx context.Context, t lookupTable, name string) (int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to acquire connection: %v", shared.ErrBackendUnavailable, err)
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, t.insert, name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", t.name, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if inserted == 1 {
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get inserted id: %w", err)
		}
		s.logger.Debug("created", "table", t.name, "name", name, "id", id)
		return id, nil
	}

	var id int64
	if err := conn.GetContext(ctx, &id, t.lookup, name); err != nil {
		return 0, fmt.Errorf("failed to look up %s %q: %w", t.name, name, err)
	}
	return id, nil
}

// CreateSong resolves the artist and genre, then inserts the song and returns its id
func (s *SQLiteStore) CreateSong(ctx context.Context, in models.SongInput) (int64, error) {
	artist, genre, err := s.resolveRefs(ctx, in)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO songs (title, artist_id, genre_id, release_date, lyrics, rating)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query, in.Title, artist.ID, genre.ID, in.ReleaseDate, in.Lyrics, in.Rating)
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get song id: %w", err)
	}
	return id, nil
}

// ListSongs returns every song joined with its artist and genre names, in insertion order
func (s *SQLiteStore) ListSongs(ctx context.Context) ([]models.SongView, error) {
	query := `SELECT ` + songViewColumns + `
		FROM songs
		JOIN artists ON songs.artist_id = artists.id
		JOIN genres ON songs.genre_id = genres.id
		ORDER BY songs.id ASC
	`

	songs := make([]models.SongView, 0)
	if err := s.db.SelectContext(ctx, &songs, query); err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	return songs, nil
}

// GetSong retrieves a song by id, returning [models.ErrSongNotFound] when it does not exist
func (s *SQLiteStore) GetSong(ctx context.Context, id int64) (*models.SongView, error) {
	query := `SELECT ` + songViewColumns + `
		FROM songs
		JOIN artists ON songs.artist_id = artists.id
		JOIN genres ON songs.genre_id = genres.id
		WHERE songs.id = ?
	`

	var song models.SongView
	err := s.db.GetContext(ctx, &song, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return &song, nil
}

// UpdateSong re-resolves the artist and genre and overwrites every mutable field of the song.
// A missing song fails with [models.ErrSongNotFound] before any artist or genre is written.
func (s *SQLiteStore) UpdateSong(ctx context.Context, id int64, in models.SongInput) error {
	var exists int
	err := s.db.GetContext(ctx, &exists, `SELECT 1 FROM songs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check song: %w", err)
	}

	artist, genre, err := s.resolveRefs(ctx, in)
	if err != nil {
		return err
	}

	query := `
		UPDATE songs
		SET title = ?, artist_id = ?, genre_id = ?, release_date = ?, lyrics = ?, rating = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, in.Title, artist.ID, genre.ID, in.ReleaseDate, in.Lyrics, in.Rating, id)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}
	return nil
}

// DeleteSong removes a song by id and reports whether a row was deleted
func (s *SQLiteStore) DeleteSong(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// Stats counts the rows of each table
func (s *SQLiteStore) Stats(ctx context.Context) (models.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM songs) AS songs,
			(SELECT COUNT(*) FROM artists) AS artists,
			(SELECT COUNT(*) FROM genres) AS genres
	`

	var stats models.Stats
	row := s.db.QueryRowContext(ctx, query)
	if err := row.Scan(&stats.Songs, &stats.Artists, &stats.Genres); err != nil {
		return models.Stats{}, fmt.Errorf("failed to count catalog: %w", err)
	}
	return stats, nil
}

// CountArtists returns how many artist rows carry exactly the given name.
func (s *SQLiteStore) CountArtists(ctx context.Context, name string) (int, error) {
	return s.count(ctx, artistsTable, name)
}

// CountGenres returns how many genre rows carry exactly the given name.
func (s *SQLiteStore) CountGenres(ctx context.Context, name string) (int, error) {
	return s.count(ctx, genresTable, name)
}

func (s *SQLiteStore) count(ctx context.Context, t lookupTable, name string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, t.count, name); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return n, nil
}

// Close closes the connection pool
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) resolveRefs(ctx context.Context, in models.SongInput) (models.Ref, models.Ref, error) {
	artist, err := s.ResolveArtist(ctx, in.Artist)
	if err != nil {
		return models.Ref{}, models.Ref{}, fmt.Errorf("failed to resolve artist: %w", err)
	}
	genre, err := s.ResolveGenre(ctx, in.Genre)
	if err != nil {
		return models.Ref{}, models.Ref{}, fmt.Errorf("failed to resolve genre: %w", err)
	}
	return artist, genre, nil
}
