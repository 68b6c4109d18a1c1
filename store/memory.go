package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/schema"
)

// Memory is an in-memory Store used by unit tests and prototyping. Its
// native identifier type is uuid.UUID, which deliberately differs from the
// Mongo adapter's ObjectID so collection code cannot grow an accidental
// dependency on one native form. Unique indexes are enforced the way the
// driver would: as infrastructure faults, not validation failures.
type Memory struct {
	mu     sync.RWMutex
	docs   map[uuid.UUID]Document
	order  []uuid.UUID
	unique []string
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[uuid.UUID]Document)}
}

func (m *Memory) Insert(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := doc["_id"].(uuid.UUID)
	if !ok {
		return fmt.Errorf("%w: document has no native _id", ErrInsertFailed)
	}
	if _, exists := m.docs[id]; exists {
		return fmt.Errorf("%w: _id %s", ErrDuplicateKey, id)
	}
	if err := m.checkUnique(doc, id); err != nil {
		return err
	}
	m.docs[id] = copyDoc(doc)
	m.order = append(m.order, id)
	return nil
}

func (m *Memory) Update(ctx context.Context, filter Document, fields Document) (UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		doc := m.docs[id]
		if !matches(doc, filter) {
			continue
		}
		updated := copyDoc(doc)
		modified := int64(0)
		for k, v := range fields {
			if !reflect.DeepEqual(updated[k], v) {
				modified = 1
			}
			updated[k] = v
		}
		if err := m.checkUnique(updated, id); err != nil {
			return UpdateResult{}, err
		}
		m.docs[id] = updated
		return UpdateResult{Matched: 1, Modified: modified}, nil
	}
	return UpdateResult{}, nil
}

func (m *Memory) Find(ctx context.Context, filter Document, opts FindOptions) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	skipped := int64(0)
	for _, id := range m.order {
		doc := m.docs[id]
		if !matches(doc, filter) {
			continue
		}
		if skipped < opts.Skip {
			skipped++
			continue
		}
		out = append(out, copyDoc(doc))
		if opts.Limit > 0 && int64(len(out)) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) CreateIndex(ctx context.Context, path string, opts schema.IndexOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := opts["unique"].(bool); ok && v {
		m.unique = append(m.unique, path)
	}
	return nil
}

func (m *Memory) Codec() IDCodec { return UUIDCodec{} }

// checkUnique scans every other document for a colliding value on each
// unique-indexed path. Linear, which is fine for test-sized data.
func (m *Memory) checkUnique(doc Document, self uuid.UUID) error {
	for _, path := range m.unique {
		value, ok := valueAtPath(doc, path)
		if !ok || value == nil {
			continue
		}
		for id, other := range m.docs {
			if id == self {
				continue
			}
			if existing, ok := valueAtPath(other, path); ok && reflect.DeepEqual(existing, value) {
				return fmt.Errorf("%w: %s=%v", ErrDuplicateKey, path, value)
			}
		}
	}
	return nil
}

func matches(doc, filter Document) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			// An absent boolean field matches a false filter value, the way
			// a missing _isDeleted behaves in a loosely-typed store.
			if want == false || want == nil {
				continue
			}
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func copyDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// UUIDCodec converts between canonical UUID strings and uuid.UUID.
type UUIDCodec struct{}

func (UUIDCodec) ToNative(v any) (any, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return v, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

func (UUIDCodec) ToExternal(v any) any {
	if id, ok := v.(uuid.UUID); ok {
		return id.String()
	}
	return v
}

func (UUIDCodec) NewID() any { return uuid.New() }
