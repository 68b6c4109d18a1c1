// Package store defines the document-store capability lattice collections are
// built on, and ships two adapters: Mongo (production) and Memory (tests).
//
// A store exposes insert, filtered update with matched/modified counts,
// ordered find with limit/skip, and index creation — plus an IDCodec bridging
// the external string identifier and the store's native identifier type. The
// native form never leaks past this package: collection code holds ids as
// opaque values obtained from the codec.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/latticedb/lattice/schema"
)

var (
	// ErrInvalidID is returned by a codec when a string identifier cannot be
	// parsed into the store's native identifier type.
	ErrInvalidID = errors.New("lattice: invalid identifier")

	// ErrInsertFailed is returned when the store did not acknowledge exactly
	// one inserted document. It belongs to the infrastructure family.
	ErrInsertFailed = errors.New("lattice: insert was not acknowledged")

	// ErrDuplicateKey is returned by the memory store when an insert or
	// update violates a unique index, mirroring the driver's duplicate-key
	// fault. It belongs to the infrastructure family.
	ErrDuplicateKey = errors.New("lattice: duplicate key")
)

// Document is an arbitrary keyed structure. Reserved fields (_id, _created,
// _updated, _isDeleted, _deletedDate) live alongside the business fields.
type Document = map[string]any

// UpdateResult distinguishes documents matched by the filter from documents
// actually modified. Matched is what not-found decisions key off: an update
// that writes values already in place matches without modifying.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// FindOptions bounds a find: at most Limit documents after skipping Skip.
type FindOptions struct {
	Limit int64
	Skip  int64
}

// IDCodec converts between the external string identifier and the store's
// native identifier representation. Both directions are idempotent:
// non-string (or empty) values pass through ToNative unchanged, non-native
// values pass through ToExternal unchanged.
type IDCodec interface {
	// ToNative parses a string identifier into the native type, failing with
	// ErrInvalidID on malformed input.
	ToNative(v any) (any, error)

	// ToExternal renders a native identifier to its string form.
	ToExternal(v any) any

	// NewID mints a fresh native identifier.
	NewID() any
}

// Store is the capability contract required of a document store.
type Store interface {
	// Insert stores one document, failing with ErrInsertFailed when the
	// write is not acknowledged.
	Insert(ctx context.Context, doc Document) error

	// Update applies set-field semantics to the first document matching
	// filter and reports matched/modified counts.
	Update(ctx context.Context, filter Document, fields Document) (UpdateResult, error)

	// Find returns matching documents in store-default order.
	Find(ctx context.Context, filter Document, opts FindOptions) ([]Document, error)

	// CreateIndex requests an index on a dot path with the directive's
	// options passed verbatim.
	CreateIndex(ctx context.Context, path string, opts schema.IndexOptions) error

	// Codec returns the identifier codec matching this store's native
	// identifier type.
	Codec() IDCodec
}

// valueAtPath resolves a dot path inside a document. Used by the memory
// store's unique-index checks.
func valueAtPath(doc Document, path string) (any, bool) {
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
