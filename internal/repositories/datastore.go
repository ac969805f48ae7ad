package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var _ models.Backend = (*DatastoreStore)(nil)

// Entity kinds
const (
	kindArtist = "Artist"
	kindGenre  = "Genre"
	kindSong   = "Song"
)

// nameEntity is the stored shape of both Artist and Genre. The key name is the name itself.
type nameEntity struct {
	Name string `datastore:"name"`
}

// songEntity is the stored shape of a Song. ArtistID and GenreID hold the referenced key names.
type songEntity struct {
	Title       string    `datastore:"title"`
	ArtistID    string    `datastore:"artist_id"`
	GenreID     string    `datastore:"genre_id"`
	ReleaseDate string    `datastore:"release_date"`
	Lyrics      string    `datastore:"lyrics,noindex"`
	Rating      float64   `datastore:"rating"`
	Created     time.Time `datastore:"created"`
}

func (e songEntity) view(id int64) models.SongView {
	return models.SongView{
		ID:          id,
		Title:       e.Title,
		Artist:      e.ArtistID,
		Genre:       e.GenreID,
		ReleaseDate: e.ReleaseDate,
		Lyrics:      e.Lyrics,
		Rating:      e.Rating,
	}
}

// entityClient is the subset of the Datastore API the store uses.
type entityClient interface {
	Put(ctx context.Context, key *datastore.Key, src any) (*datastore.Key, error)
	PutMulti(ctx context.Context, keys []*datastore.Key, src any) ([]*datastore.Key, error)
	Get(ctx context.Context, key *datastore.Key, dst any) error
	Delete(ctx context.Context, key *datastore.Key) error
	All(ctx context.Context, kind string, dst any) ([]*datastore.Key, error)
	Count(ctx context.Context, kind string) (int, error)
	RunInTransaction(ctx context.Context, fn func(tx entityTx) error) error
	Close() error
}

// entityTx is the subset of [datastore.Transaction] the store uses. Writes only land if fn returns nil.
type entityTx interface {
	Get(key *datastore.Key, dst any) error
	PutMulti(keys []*datastore.Key, src any) error
	Delete(key *datastore.Key) error
}

// sdkClient adapts [datastore.Client] to entityClient, scoping kind queries to a namespace.
type sdkClient struct {
	*datastore.Client
	namespace string
}

// All runs an unordered query: an ordered one would skip entities that lack the order property.
func (c *sdkClient) All(ctx context.Context, kind string, dst any) ([]*datastore.Key, error) {
	return c.GetAll(ctx, datastore.NewQuery(kind).Namespace(c.namespace), dst)
}

func (c *sdkClient) RunInTransaction(ctx context.Context, fn func(tx entityTx) error) error {
	_, err := c.Client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		return fn(sdkTx{tx: tx})
	})
	return err
}

type sdkTx struct {
	tx *datastore.Transaction
}

func (t sdkTx) Get(key *datastore.Key, dst any) error {
	return t.tx.Get(key, dst)
}

func (t sdkTx) PutMulti(keys []*datastore.Key, src any) error {
	_, err := t.tx.PutMulti(keys, src)
	return err
}

func (t sdkTx) Delete(key *datastore.Key) error {
	return t.tx.Delete(key)
}

func (c *sdkClient) Count(ctx context.Context, kind string) (int, error) {
	return c.Client.Count(ctx, datastore.NewQuery(kind).Namespace(c.namespace).KeysOnly())
}

// DatastoreStore implements [models.Backend] on Google Cloud Datastore.
//
// Artists and genres are keyed by their names, so resolving a name is a single deterministic Put that overwrites in
// place and can never produce a duplicate. Songs use numeric ids allocated by Datastore.
type DatastoreStore struct {
	client    entityClient
	namespace string
	logger    *log.Logger
}

// NewDatastoreStore connects to Datastore for the configured project.
//
// A credentials file, when set, is loaded as a service account through [google.CredentialsFromJSON]; otherwise the
// SDK falls back to Application Default Credentials or DATASTORE_EMULATOR_HOST.
func NewDatastoreStore(ctx context.Context, cfg shared.DatastoreConfig, logger *log.Logger) (*DatastoreStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read datastore credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, datastore.ScopeDatastore)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid datastore credentials: %v", shared.ErrInvalidConfig, err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	client, err := datastore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create datastore client: %v", shared.ErrBackendUnavailable, err)
	}

	return newDatastoreStore(&sdkClient{Client: client, namespace: cfg.Namespace}, cfg.Namespace, logger), nil
}

func newDatastoreStore(client entityClient, namespace string, logger *log.Logger) *DatastoreStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DatastoreStore{
		client:    client,
		namespace: namespace,
		logger:    shared.WithLogger(logger, "backend", shared.DriverDatastore),
	}
}

func (s *DatastoreStore) nameKey(kind, name string) *datastore.Key {
	k := datastore.NameKey(kind, name, nil)
	k.Namespace = s.namespace
	return k
}

func (s *DatastoreStore) songKey(id int64) *datastore.Key {
	k := datastore.IDKey(kindSong, id, nil)
	k.Namespace = s.namespace
	return k
}

func (s *DatastoreStore) newSongKey() *datastore.Key {
	k := datastore.IncompleteKey(kindSong, nil)
	k.Namespace = s.namespace
	return k
}

// EnsureSchema is a no-op: Datastore kinds exist as soon as an entity of that kind is written.
func (s *DatastoreStore) EnsureSchema(ctx context.Context) error {
	return nil
}

// ResolveArtist writes the artist entity under its name key and returns that key name
func (s *DatastoreStore) ResolveArtist(ctx context.Context, name string) (models.Ref, error) {
	return s.resolve(ctx, kindArtist, name)
}

// ResolveGenre writes the genre entity under its name key and returns that key name
func (s *DatastoreStore) ResolveGenre(ctx context.Context, name string) (models.Ref, error) {
	return s.resolve(ctx, kindGenre, name)
}

func (s *DatastoreStore) resolve(ctx context.Context, kind, name string) (models.Ref, error) {
	key, err := s.client.Put(ctx, s.nameKey(kind, name), &nameEntity{Name: name})
	if err != nil {
		return models.Ref{}, fmt.Errorf("failed to put %s %q: %w", kind, name, err)
	}
	return models.Ref{Name: key.Name}, nil
}

// CreateSong writes the artist, genre and song entities in one batch and returns the allocated song id.
func (s *DatastoreStore) CreateSong(ctx context.Context, in models.SongInput) (int64, error) {
	song := &songEntity{
		Title:       in.Title,
		ArtistID:    in.Artist,
		GenreID:     in.Genre,
		ReleaseDate: in.ReleaseDate,
		Lyrics:      in.Lyrics,
		Rating:      in.Rating,
		Created:     time.Now().UTC(),
	}

	keys, src := s.refBatch(s.newSongKey(), in, song)
	keys, err := s.client.PutMulti(ctx, keys, src)
	if err != nil {
		return 0, fmt.Errorf("failed to insert song: %w", err)
	}
	return keys[2].ID, nil
}

// ListSongs returns every song ordered by id.
//
// Songs written without a created property stay visible because the query is unordered and sorting happens here.
func (s *DatastoreStore) ListSongs(ctx context.Context) ([]models.SongView, error) {
	var entities []songEntity
	keys, err := s.client.All(ctx, kindSong, &entities)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}

	songs := make([]models.SongView, 0, len(entities))
	for i, e := range entities {
		songs = append(songs, e.view(keys[i].ID))
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs, nil
}

// GetSong retrieves a song by id, returning [models.ErrSongNotFound] when it does not exist
func (s *DatastoreStore) GetSong(ctx context.Context, id int64) (*models.SongView, error) {
	e, err := s.getSong(ctx, id)
	if err != nil {
		return nil, err
	}
	view := e.view(id)
	return &view, nil
}

// UpdateSong overwrites every mutable field of an existing song, writing any new artist or genre in the same batch.
//
// The read and the write share a transaction, so a concurrent delete cannot be undone by the write.
func (s *DatastoreStore) UpdateSong(ctx context.Context, id int64, in models.SongInput) error {
	key := s.songKey(id)
	err := s.client.RunInTransaction(ctx, func(tx entityTx) error {
		var song songEntity
		if err := tx.Get(key, &song); err != nil {
			return err
		}

		song.Title = in.Title
		song.ArtistID = in.Artist
		song.GenreID = in.Genre
		song.ReleaseDate = in.ReleaseDate
		song.Lyrics = in.Lyrics
		song.Rating = in.Rating

		return tx.PutMulti(s.refBatch(key, in, &song))
	})

	switch {
	case errors.Is(err, datastore.ErrNoSuchEntity):
		return fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	case err != nil:
		return fmt.Errorf("failed to update song: %w", err)
	}
	return nil
}

// DeleteSong removes a song by id and reports whether it existed
func (s *DatastoreStore) DeleteSong(ctx context.Context, id int64) (bool, error) {
	key := s.songKey(id)

	var deleted bool
	err := s.client.RunInTransaction(ctx, func(tx entityTx) error {
		deleted = false

		var song songEntity
		err := tx.Get(key, &song)
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete song: %w", err)
	}
	return deleted, nil
}

// Stats counts the entities of each kind
func (s *DatastoreStore) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	for _, c := range []struct {
		kind string
		dst  *int
	}{
		{kindSong, &stats.Songs},
		{kindArtist, &stats.Artists},
		{kindGenre, &stats.Genres},
	} {
		n, err := s.client.Count(ctx, c.kind)
		if err != nil {
			return models.Stats{}, fmt.Errorf("failed to count %s: %w", c.kind, err)
		}
		*c.dst = n
	}
	return stats, nil
}

// Close closes the Datastore client
func (s *DatastoreStore) Close() error {
	return s.client.Close()
}

func (s *DatastoreStore) getSong(ctx context.Context, id int64) (*songEntity, error) {
	var e songEntity
	err := s.client.Get(ctx, s.songKey(id), &e)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, fmt.Errorf("%w: %d", models.ErrSongNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return &e, nil
}

// refBatch lists the artist, genre and song writes for one batch. Keys are in that order.
func (s *DatastoreStore) refBatch(songKey *datastore.Key, in models.SongInput, song *songEntity) ([]*datastore.Key, []any) {
	keys := []*datastore.Key{
		s.nameKey(kindArtist, in.Artist),
		s.nameKey(kindGenre, in.Genre),
		songKey,
	}
	src := []any{
		&nameEntity{Name: in.Artist},
		&nameEntity{Name: in.Genre},
		song,
	}
	return keys, src
}
