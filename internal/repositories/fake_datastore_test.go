package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/datastore"
)

// fakeClient is an in-memory entityClient.
type fakeClient struct {
	mu        sync.Mutex
	nextID    int64
	names     map[string]map[string]nameEntity
	songs     map[int64]songEntity
	putMulti  int
	gets      int
	commits   int
	err       error
	commitErr error
	closed    bool
	lastNSKey string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		names: map[string]map[string]nameEntity{},
		songs: map[int64]songEntity{},
	}
}

func (f *fakeClient) Put(ctx context.Context, key *datastore.Key, src any) (*datastore.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.put(key, src)
}

func (f *fakeClient) PutMulti(ctx context.Context, keys []*datastore.Key, src any) ([]*datastore.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.putMulti++

	entities, ok := src.([]any)
	if !ok || len(entities) != len(keys) {
		return nil, fmt.Errorf("fake: PutMulti wants []any matching keys, got %T", src)
	}

	out := make([]*datastore.Key, len(keys))
	for i, key := range keys {
		k, err := f.put(key, entities[i])
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

func (f *fakeClient) put(key *datastore.Key, src any) (*datastore.Key, error) {
	f.lastNSKey = key.Namespace
	switch e := src.(type) {
	case *nameEntity:
		if key.Name == "" {
			return nil, fmt.Errorf("fake: %s entities need a name key", key.Kind)
		}
		if f.names[key.Kind] == nil {
			f.names[key.Kind] = map[string]nameEntity{}
		}
		f.names[key.Kind][key.Name] = *e
		return key, nil
	case *songEntity:
		k := *key
		if k.Incomplete() {
			f.nextID++
			k.ID = f.nextID
		}
		f.songs[k.ID] = *e
		return &k, nil
	default:
		return nil, fmt.Errorf("fake: unsupported entity %T", src)
	}
}

func (f *fakeClient) Get(ctx context.Context, key *datastore.Key, dst any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return f.get(key, dst)
}

func (f *fakeClient) get(key *datastore.Key, dst any) error {
	f.gets++

	switch d := dst.(type) {
	case *songEntity:
		e, ok := f.songs[key.ID]
		if !ok {
			return datastore.ErrNoSuchEntity
		}
		*d = e
	case *nameEntity:
		e, ok := f.names[key.Kind][key.Name]
		if !ok {
			return datastore.ErrNoSuchEntity
		}
		*d = e
	default:
		return fmt.Errorf("fake: unsupported dst %T", dst)
	}
	return nil
}

func (f *fakeClient) Delete(ctx context.Context, key *datastore.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if key.Kind == kindSong {
		delete(f.songs, key.ID)
		return nil
	}
	delete(f.names[key.Kind], key.Name)
	return nil
}

func (f *fakeClient) All(ctx context.Context, kind string, dst any) ([]*datastore.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	out, ok := dst.(*[]songEntity)
	if kind != kindSong || !ok {
		return nil, fmt.Errorf("fake: All supports songs only, got %s into %T", kind, dst)
	}

	ids := make([]int64, 0, len(f.songs))
	for id := range f.songs {
		ids = append(ids, id)
	}
	// Newest first, so callers cannot rely on query order.
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	keys := make([]*datastore.Key, 0, len(ids))
	for _, id := range ids {
		*out = append(*out, f.songs[id])
		keys = append(keys, datastore.IDKey(kindSong, id, nil))
	}
	return keys, nil
}

func (f *fakeClient) Count(ctx context.Context, kind string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if kind == kindSong {
		return len(f.songs), nil
	}
	return len(f.names[kind]), nil
}

// RunInTransaction stages writes made through tx and applies them only when fn succeeds and commitErr is unset.
func (f *fakeClient) RunInTransaction(ctx context.Context, fn func(tx entityTx) error) error {
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}

	tx := &fakeTx{client: f}
	if err := fn(tx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	for _, w := range tx.writes {
		if err := w(); err != nil {
			return err
		}
	}
	f.commits++
	return nil
}

// fakeTx reads committed state and queues writes for commit.
type fakeTx struct {
	client *fakeClient
	writes []func() error
}

func (t *fakeTx) Get(key *datastore.Key, dst any) error {
	t.client.mu.Lock()
	defer t.client.mu.Unlock()
	return t.client.get(key, dst)
}

func (t *fakeTx) PutMulti(keys []*datastore.Key, src any) error {
	entities, ok := src.([]any)
	if !ok || len(entities) != len(keys) {
		return fmt.Errorf("fake: PutMulti wants []any matching keys, got %T", src)
	}
	t.writes = append(t.writes, func() error {
		t.client.putMulti++
		for i, key := range keys {
			if _, err := t.client.put(key, entities[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

func (t *fakeTx) Delete(key *datastore.Key) error {
	t.writes = append(t.writes, func() error {
		delete(t.client.songs, key.ID)
		return nil
	})
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
