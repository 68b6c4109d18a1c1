// Package collection implements the schema-driven document collection:
// save, find, patch, soft delete and recover over a store capability.
package collection

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/latticedb/lattice/errs"
	"github.com/latticedb/lattice/pkg/metrics"
	"github.com/latticedb/lattice/schema"
	"github.com/latticedb/lattice/store"
)

// Reserved document fields managed by the collection. Business fields must
// not use these names; schema validation exempts them.
const (
	FieldID          = "_id"
	FieldCreated     = "_created"
	FieldUpdated     = "_updated"
	FieldIsDeleted   = "_isDeleted"
	FieldDeletedDate = "_deletedDate"
)

// DefaultPageSize bounds Find when the caller gives no usable page size.
const DefaultPageSize = 10

// Collection exposes validated, soft-deletable document operations for one
// registered schema. All failures surface on the returned error: domain and
// usage failures as *errs.Error, store faults unwrapped.
type Collection struct {
	name      string
	store     store.Store
	codec     store.IDCodec
	validator *schema.Validator
	log       zerolog.Logger
	now       func() time.Time
}

func New(name string, st store.Store, v *schema.Validator, log zerolog.Logger) *Collection {
	return &Collection{
		name:      name,
		store:     st,
		codec:     st.Codec(),
		validator: v,
		log:       log.With().Str("collection", name).Logger(),
		now:       time.Now,
	}
}

// Name returns the schema name this collection serves.
func (c *Collection) Name() string { return c.name }

// Save inserts a new document or replaces an existing one.
//
// A document without _id is new: it gets a fresh identifier, _created set to
// now (epoch millis), a null _updated and a false _isDeleted. A document with
// _id is an update: _updated advances and all fields except _id and _created
// are replaced. Updates match only non-deleted documents unless allowDeleted
// is set; updating a soft-deleted document without the override reports
// NotFound, indistinguishable from a missing document.
func (c *Collection) Save(ctx context.Context, doc store.Document, allowDeleted bool) (store.Document, error) {
	start := c.now()
	out, err := c.save(ctx, doc, allowDeleted)
	c.observe("save", start, err)
	return out, err
}

func (c *Collection) save(ctx context.Context, doc store.Document, allowDeleted bool) (store.Document, error) {
	if doc == nil {
		return nil, errs.BadRequest("document is required")
	}
	out := copyDoc(doc)

	nid, err := c.codec.ToNative(out[FieldID])
	if err != nil {
		return nil, errs.BadRequest(err.Error())
	}
	isNew := nid == nil || nid == ""

	now := c.now().UnixMilli()
	if isNew {
		nid = c.codec.NewID()
		out[FieldID] = nid
		out[FieldCreated] = now
		out[FieldUpdated] = nil
		out[FieldIsDeleted] = false
		out[FieldDeletedDate] = nil
	} else {
		out[FieldID] = nid
		out[FieldUpdated] = now
	}

	if res := c.validator.Validate(out, c.name); !res.Valid {
		return nil, validationError(res, true)
	}

	if isNew {
		if err := c.store.Insert(ctx, out); err != nil {
			return nil, err
		}
	} else {
		filter := store.Document{FieldID: nid}
		if !allowDeleted {
			filter[FieldIsDeleted] = false
		}
		fields := copyDoc(out)
		delete(fields, FieldID)
		delete(fields, FieldCreated)
		res, err := c.store.Update(ctx, filter, fields)
		if err != nil {
			return nil, err
		}
		if res.Matched == 0 {
			return nil, errs.NotFound("document not found")
		}
	}

	out[FieldID] = c.codec.ToExternal(out[FieldID])
	return out, nil
}

// Find returns up to pageSize documents matching query, in store-default
// order, skipping page*pageSize matches. pageSize falls back to
// DefaultPageSize when not positive; a negative page is treated as 0. Soft-
// deleted documents are excluded unless includeDeleted is set; the exclusion
// clause is merged last, so it wins over any _isDeleted value in the query.
func (c *Collection) Find(ctx context.Context, page, pageSize int, query store.Document, includeDeleted bool) ([]store.Document, error) {
	start := c.now()
	out, err := c.find(ctx, page, pageSize, query, includeDeleted)
	c.observe("find", start, err)
	return out, err
}

func (c *Collection) find(ctx context.Context, page, pageSize int, query store.Document, includeDeleted bool) ([]store.Document, error) {
	if query == nil {
		return nil, errs.BadRequest("query is required")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	filter := copyDoc(query)
	if raw, ok := filter[FieldID]; ok {
		nid, err := c.codec.ToNative(raw)
		if err != nil {
			return nil, errs.BadRequest(err.Error())
		}
		filter[FieldID] = nid
	}
	if !includeDeleted {
		filter[FieldIsDeleted] = false
	}

	docs, err := c.store.Find(ctx, filter, store.FindOptions{
		Limit: int64(pageSize),
		Skip:  int64(page) * int64(pageSize),
	})
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		doc[FieldID] = c.codec.ToExternal(doc[FieldID])
	}
	return docs, nil
}

// Patch applies a merge patch: the partial document's top-level fields
// overwrite the stored document's (nested objects are replaced wholesale,
// never deep-merged), the merged result is re-validated and persisted as a
// full replace.
//
// Known limitation: the fetch and the replace are two store operations, not
// one atomic step. A concurrent write landing strictly between them is
// silently overwritten. This is acceptable for low-contention workloads and
// is deliberately not papered over with locking.
func (c *Collection) Patch(ctx context.Context, partial store.Document, allowDeleted bool) (store.Document, error) {
	start := c.now()
	out, err := c.patch(ctx, partial, allowDeleted)
	c.observe("patch", start, err)
	return out, err
}

func (c *Collection) patch(ctx context.Context, partial store.Document, allowDeleted bool) (store.Document, error) {
	if partial == nil {
		return nil, errs.BadRequest("document is required")
	}
	raw, ok := partial[FieldID]
	if !ok || raw == nil || raw == "" {
		return nil, errs.BadRequest("_id is required")
	}
	nid, err := c.codec.ToNative(raw)
	if err != nil {
		return nil, errs.BadRequest(err.Error())
	}

	filter := store.Document{FieldID: nid}
	if !allowDeleted {
		filter[FieldIsDeleted] = false
	}

	current, err := c.store.Find(ctx, filter, store.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, errs.NotFound("document not found")
	}

	merged := copyDoc(current[0])
	for k, v := range partial {
		if k == FieldID || k == FieldCreated {
			continue
		}
		merged[k] = v
	}

	if res := c.validator.Validate(merged, c.name); !res.Valid {
		return nil, validationError(res, false)
	}

	merged[FieldUpdated] = c.now().UnixMilli()
	fields := copyDoc(merged)
	delete(fields, FieldID)
	delete(fields, FieldCreated)
	ures, err := c.store.Update(ctx, filter, fields)
	if err != nil {
		return nil, err
	}
	if ures.Matched == 0 {
		return nil, errs.NotFound("document not found")
	}

	merged[FieldID] = c.codec.ToExternal(merged[FieldID])
	return merged, nil
}

// Delete soft-deletes the document: sets _isDeleted and stamps _deletedDate.
// The document stays in the store; _isDeleted is the sole visibility gate.
func (c *Collection) Delete(ctx context.Context, id string) error {
	start := c.now()
	err := c.setDeleted(ctx, id, true)
	c.observe("delete", start, err)
	return err
}

// Recover clears the soft-delete flag and _deletedDate, restoring the
// document's visibility.
func (c *Collection) Recover(ctx context.Context, id string) error {
	start := c.now()
	err := c.setDeleted(ctx, id, false)
	c.observe("recover", start, err)
	return err
}

// setDeleted toggles the soft-delete state, filtered by _id alone. The store
// reports matched and modified counts separately, and NotFound keys off
// matched: toggling a document already in the target state succeeds.
func (c *Collection) setDeleted(ctx context.Context, id string, deleted bool) error {
	if id == "" {
		return errs.BadRequest("id is required")
	}
	nid, err := c.codec.ToNative(id)
	if err != nil {
		return errs.BadRequest(err.Error())
	}

	fields := store.Document{FieldIsDeleted: deleted}
	if deleted {
		fields[FieldDeletedDate] = c.now().UnixMilli()
	} else {
		fields[FieldDeletedDate] = nil
	}

	res, err := c.store.Update(ctx, store.Document{FieldID: nid}, fields)
	if err != nil {
		return err
	}
	if res.Matched == 0 {
		return errs.NotFound("document not found")
	}
	return nil
}

func (c *Collection) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errs.AsDomain(err) != nil:
		result = "domain"
	default:
		result = "infrastructure"
		c.log.Error().Err(err).Str("op", op).Msg("store fault")
	}
	metrics.Observe(c.name, op, result, start)
	c.log.Debug().Str("op", op).Str("result", result).Msg("operation finished")
}

// validationError shapes schema violations per operation contract: Save
// sub-errors carry PropertyPath, Patch sub-errors carry Params.
func validationError(res schema.Result, propertyPath bool) error {
	subs := make([]errs.SubError, 0, len(res.Errors))
	for _, v := range res.Errors {
		sub := errs.SubError{Message: v.Message}
		if propertyPath {
			sub.PropertyPath = v.Path
		} else {
			sub.Params = v.Params
		}
		subs = append(subs, sub)
	}
	return errs.Validation("validation failed", subs)
}

func copyDoc(doc store.Document) store.Document {
	out := make(store.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
