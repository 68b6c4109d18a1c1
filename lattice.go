// Package lattice turns schema definitions into validated, soft-deletable
// document collections backed by MongoDB.
//
// A process either opens an explicit handle:
//
//	h, err := lattice.Open(ctx, cfg, logger)
//
// or uses the memoized lifecycle pair, which records configuration first and
// performs connection, schema registration and index creation on the first
// GetHandle call:
//
//	lattice.Initialize(cfg)
//	h, err := lattice.GetHandle(ctx)
//
// Either way the *Handle is a plain value meant to be passed to consumers;
// nothing outside the two lifecycle functions reads process-wide state.
package lattice

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/latticedb/lattice/collection"
	"github.com/latticedb/lattice/config"
	"github.com/latticedb/lattice/errs"
	"github.com/latticedb/lattice/schema"
	"github.com/latticedb/lattice/store"
)

// StoreFactory yields the store capability backing one named collection.
type StoreFactory func(name string) store.Store

// Handle is the assembled data-access layer: one collection per registered
// schema definition.
type Handle struct {
	client *mongo.Client
	cols   map[string]*collection.Collection
}

// Collection returns the collection registered under name.
func (h *Handle) Collection(name string) (*collection.Collection, error) {
	col, ok := h.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownCollection, name)
	}
	return col, nil
}

// Close releases the underlying client, if this handle owns one.
func (h *Handle) Close(ctx context.Context) error {
	if h.client == nil {
		return nil
	}
	return h.client.Disconnect(ctx)
}

// BuildCollections registers every definition with a fresh validator and
// assembles one collection per schema, creating the planned indices
// synchronously. A collection is not usable before its indices were
// requested, so any index-creation failure aborts the whole build.
func BuildCollections(ctx context.Context, defs []*schema.Definition, factory StoreFactory, log zerolog.Logger) (map[string]*collection.Collection, error) {
	validator := schema.NewValidator()
	cols := make(map[string]*collection.Collection, len(defs))
	for _, def := range defs {
		if err := validator.Register(def); err != nil {
			return nil, err
		}
		st := factory(def.Name)
		for _, req := range schema.Plan(def.Root, "") {
			if err := st.CreateIndex(ctx, req.DotPath, req.Options); err != nil {
				return nil, fmt.Errorf("collection %q: %w", def.Name, err)
			}
		}
		cols[def.Name] = collection.New(def.Name, st, validator, log)
		log.Info().Str("collection", def.Name).Msg("collection registered")
	}
	return cols, nil
}

// Open connects to the store and assembles a handle. Schema definitions come
// from cfg.Schemas when given, otherwise from cfg.SchemaDir.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Handle, error) {
	defs := cfg.Schemas
	if len(defs) == 0 {
		var err error
		defs, err = schema.LoadDir(cfg.SchemaDir)
		if err != nil {
			return nil, err
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("lattice: no schema definitions configured")
	}

	client, err := store.Connect(ctx, store.ConnectOptions{
		URI:                    cfg.URI,
		PoolSize:               cfg.PoolSize,
		ConnectTimeout:         cfg.ConnectTimeout,
		SocketTimeout:          cfg.SocketTimeout,
		ServerSelectionTimeout: cfg.ServerSelectionTimeout,
	})
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	cols, err := BuildCollections(ctx, defs, func(name string) store.Store {
		return store.NewMongo(db.Collection(name), log)
	}, log)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Handle{client: client, cols: cols}, nil
}

var global struct {
	mu     sync.Mutex
	cfg    *config.Config
	handle *Handle
	err    error
	opened bool
}

// Initialize records the configuration for the memoized handle. It is
// idempotent: the first configuration wins and later calls are no-ops.
// No connection is made here.
func Initialize(cfg config.Config) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.cfg == nil {
		global.cfg = &cfg
	}
}

// GetHandle returns the process-wide handle, performing connection, schema
// registration and index creation on the first call. A startup failure is
// memoized too: index creation is fatal and is not retried.
func GetHandle(ctx context.Context) (*Handle, error) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.cfg == nil {
		return nil, errs.ErrNotInitialized
	}
	if !global.opened {
		log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "lattice").Logger()
		global.handle, global.err = Open(ctx, *global.cfg, log)
		global.opened = true
	}
	return global.handle, global.err
}

// resetGlobal clears the memoized lifecycle state. Test hook.
func resetGlobal() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.cfg = nil
	global.handle = nil
	global.err = nil
	global.opened = false
}
