// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/songbook/internal/models"
)

var _ models.Backend = (*MemoryBackend)(nil)

// MemoryBackend is an in-memory test double for [models.Backend].
//
// Setting Err makes every operation fail with it, which stands in for an unreachable store.
type MemoryBackend struct {
	mu      sync.Mutex
	nextID  int64
	songs   map[int64]models.SongView
	artists map[string]struct{}
	genres  map[string]struct{}
	Err     error
	Closed  bool
	Calls   map[string]int
}

// NewMemoryBackend creates an empty [MemoryBackend].
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		songs:   map[int64]models.SongView{},
		artists: map[string]struct{}{},
		genres:  map[string]struct{}{},
		Calls:   map[string]int{},
	}
}

func (m *MemoryBackend) enter(op string) error {
	m.Calls[op]++
	return m.Err
}

func (m *MemoryBackend) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enter("EnsureSchema")
}

func (m *MemoryBackend) ResolveArtist(ctx context.Context, name string) (models.Ref, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ResolveArtist"); err != nil {
		return models.Ref{}, err
	}
	m.artists[name] = struct{}{}
	return models.Ref{Name: name}, nil
}

func (m *MemoryBackend) ResolveGenre(ctx context.Context, name string) (models.Ref, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ResolveGenre"); err != nil {
		return models.Ref{}, err
	}
	m.genres[name] = struct{}{}
	return models.Ref{Name: name}, nil
}

func (m *MemoryBackend) CreateSong(ctx context.Context, in models.SongInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateSong"); err != nil {
		return 0, err
	}
	m.nextID++
	m.store(m.nextID, in)
	return m.nextID, nil
}

func (m *MemoryBackend) ListSongs(ctx context.Context) ([]models.SongView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListSongs"); err != nil {
		return nil, err
	}
	songs := make([]models.SongView, 0, len(m.songs))
	for _, s := range m.songs {
		songs = append(songs, s)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs, nil
}

func (m *MemoryBackend) GetSong(ctx context.Context, id int64) (*models.SongView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetSong"); err != nil {
		return nil, err
	}
	s, ok := m.songs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}
	return &s, nil
}

func (m *MemoryBackend) UpdateSong(ctx context.Context, id int64, in models.SongInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateSong"); err != nil {
		return err
	}
	if _, ok := m.songs[id]; !ok {
		return fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}
	m.store(id, in)
	return nil
}

func (m *MemoryBackend) DeleteSong(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteSong"); err != nil {
		return false, err
	}
	_, ok := m.songs[id]
	delete(m.songs, id)
	return ok, nil
}

func (m *MemoryBackend) Stats(ctx context.Context) (models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Stats"); err != nil {
		return models.Stats{}, err
	}
	return models.Stats{Songs: len(m.songs), Artists: len(m.artists), Genres: len(m.genres)}, nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// CallCount returns how many times op was invoked.
func (m *MemoryBackend) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[op]
}

func (m *MemoryBackend) store(id int64, in models.SongInput) {
	m.artists[in.Artist] = struct{}{}
	m.genres[in.Genre] = struct{}{}
	m.songs[id] = models.SongView{
		ID:          id,
		Title:       in.Title,
		Artist:      in.Artist,
		Genre:       in.Genre,
		ReleaseDate: in.ReleaseDate,
		Lyrics:      in.Lyrics,
		Rating:      in.Rating,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
