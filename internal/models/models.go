// package models defines the data model for the song catalog
package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReleaseDateLayout is the text layout release dates are stored in.
const ReleaseDateLayout = "2006-01-02"

// Rating bounds accepted from callers. Backends store any float.
const (
	MinRating = 0.0
	MaxRating = 10.0
)

var (
	ErrSongNotFound = errors.New("song not found")
	ErrInvalidSong  = errors.New("invalid song")
)

// Ref identifies an artist or genre inside the backend that issued it.
//
// The SQLite backend sets ID to the surrogate key, the Datastore backend sets Name to the entity key name.
// Refs from different backends are not interchangeable.
type Ref struct {
	ID   int64
	Name string
}

// String renders the ref the way the issuing backend keys it.
func (r Ref) String() string {
	if r.Name != "" {
		return r.Name
	}
	return strconv.FormatInt(r.ID, 10)
}

// SongInput holds every mutable field of a song, as supplied by a caller on create or full update.
type SongInput struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Genre       string  `json:"genre"`
	ReleaseDate string  `json:"release_date"`
	Lyrics      string  `json:"lyrics"`
	Rating      float64 `json:"rating"`
}

// Normalize trims surrounding whitespace from the name and date fields. Lyrics are kept verbatim.
func (s SongInput) Normalize() SongInput {
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	s.Genre = strings.TrimSpace(s.Genre)
	s.ReleaseDate = strings.TrimSpace(s.ReleaseDate)
	return s
}

// Validate checks the input and returns an error wrapping [ErrInvalidSong] describing the first problem found.
func (s SongInput) Validate() error {
	switch {
	case s.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidSong)
	case s.Artist == "":
		return fmt.Errorf("%w: artist is required", ErrInvalidSong)
	case s.Genre == "":
		return fmt.Errorf("%w: genre is required", ErrInvalidSong)
	}

	if s.ReleaseDate != "" {
		if _, err := time.Parse(ReleaseDateLayout, s.ReleaseDate); err != nil {
			return fmt.Errorf("%w: release date %q is not YYYY-MM-DD", ErrInvalidSong, s.ReleaseDate)
		}
	}

	if s.Rating < MinRating || s.Rating > MaxRating {
		return fmt.Errorf("%w: rating %.1f outside %.0f..%.0f", ErrInvalidSong, s.Rating, MinRating, MaxRating)
	}
	return nil
}

// SongView is a song with its artist and genre names resolved.
type SongView struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Artist      string  `json:"artist" db:"artist"`
	Genre       string  `json:"genre" db:"genre"`
	ReleaseDate string  `json:"release_date" db:"release_date"`
	Lyrics      string  `json:"lyrics" db:"lyrics"`
	Rating      float64 `json:"rating" db:"rating"`
}

// Input returns the mutable fields of the view, suitable for a full update.
func (v SongView) Input() SongInput {
	return SongInput{
		Title:       v.Title,
		Artist:      v.Artist,
		Genre:       v.Genre,
		ReleaseDate: v.ReleaseDate,
		Lyrics:      v.Lyrics,
		Rating:      v.Rating,
	}
}

// Stats summarizes the size of a catalog.
type Stats struct {
	Songs   int `json:"songs"`
	Artists int `json:"artists"`
	Genres  int `json:"genres"`
}

// Backend defines durable storage of artists, genres and songs.
//
// Implementations resolve artist and genre names with a storage-level uniqueness mechanism so repeated or concurrent
// resolution of the same name never creates a duplicate.
type Backend interface {
	EnsureSchema(ctx context.Context) error                       // EnsureSchema creates missing collections without touching existing data
	ResolveArtist(ctx context.Context, name string) (Ref, error)  // ResolveArtist returns the artist named name, creating it on first use
	ResolveGenre(ctx context.Context, name string) (Ref, error)   // ResolveGenre returns the genre named name, creating it on first use
	CreateSong(ctx context.Context, in SongInput) (int64, error)  // CreateSong resolves references and inserts a new song
	ListSongs(ctx context.Context) ([]SongView, error)            // ListSongs returns every song joined with its artist and genre names
	GetSong(ctx context.Context, id int64) (*SongView, error)     // GetSong returns [ErrSongNotFound] when id does not exist
	UpdateSong(ctx context.Context, id int64, in SongInput) error // UpdateSong overwrites all mutable fields, [ErrSongNotFound] when absent
	DeleteSong(ctx context.Context, id int64) (bool, error)       // DeleteSong reports whether a row was removed
	Stats(ctx context.Context) (Stats, error)                     // Stats counts songs, artists and genres
	Close() error                                                 // Close releases the underlying connection pool or client
}
