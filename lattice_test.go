package lattice

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/latticedb/lattice/config"
	"github.com/latticedb/lattice/errs"
	"github.com/latticedb/lattice/schema"
	"github.com/latticedb/lattice/store"
)

func testDefs() []*schema.Definition {
	return []*schema.Definition{
		{
			Name: "user",
			Root: &schema.Object{Strict: true, Children: map[string]schema.Node{
				"name":  &schema.Leaf{Type: "string", Required: true},
				"email": &schema.Leaf{Type: "string", Index: schema.IndexOptions{"unique": true}},
			}},
		},
		{
			Name: "note",
			Root: &schema.Object{Children: map[string]schema.Node{
				"title": &schema.Leaf{Type: "string"},
			}},
		},
	}
}

func TestGetHandleBeforeInitialize(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	_, err := GetHandle(context.Background())
	require.ErrorIs(t, err, errs.ErrNotInitialized)
}

func TestInitializeFirstConfigWins(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	Initialize(config.Config{URI: "mongodb://first"})
	Initialize(config.Config{URI: "mongodb://second"})

	global.mu.Lock()
	defer global.mu.Unlock()
	require.Equal(t, "mongodb://first", global.cfg.URI)
}

func TestBuildCollections(t *testing.T) {
	ctx := context.Background()
	stores := map[string]*store.Memory{}
	factory := func(name string) store.Store {
		stores[name] = store.NewMemory()
		return stores[name]
	}

	cols, err := BuildCollections(ctx, testDefs(), factory, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, cols, 2)
	require.Len(t, stores, 2)

	h := &Handle{cols: cols}
	users, err := h.Collection("user")
	require.NoError(t, err)
	require.Equal(t, "user", users.Name())

	_, err = h.Collection("ghost")
	require.ErrorIs(t, err, errs.ErrUnknownCollection)

	// the planned unique index reached the store before the collection was
	// handed out
	saved, err := users.Save(ctx, store.Document{"name": "a", "email": "a@x.com"}, false)
	require.NoError(t, err)
	require.IsType(t, "", saved["_id"])
	_, err = users.Save(ctx, store.Document{"name": "b", "email": "a@x.com"}, false)
	require.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestBuildCollectionsIndexFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("index backend down")
	factory := func(name string) store.Store {
		return &failingIndexStore{Store: store.NewMemory(), err: boom}
	}

	_, err := BuildCollections(ctx, testDefs(), factory, zerolog.Nop())
	require.ErrorIs(t, err, boom)
}

func TestBuildCollectionsDuplicateSchema(t *testing.T) {
	defs := append(testDefs(), testDefs()[0])
	_, err := BuildCollections(context.Background(), defs, func(string) store.Store { return store.NewMemory() }, zerolog.Nop())
	require.Error(t, err)
}

type failingIndexStore struct {
	store.Store
	err error
}

func (f *failingIndexStore) CreateIndex(ctx context.Context, path string, opts schema.IndexOptions) error {
	return fmt.Errorf("create index on %s: %w", path, f.err)
}
