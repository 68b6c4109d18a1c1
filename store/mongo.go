package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/latticedb/lattice/schema"
)

// ConnectOptions configures the shared Mongo client. The pool bounds the
// number of simultaneous physical connections; excess logical operations
// queue on the pool rather than failing.
type ConnectOptions struct {
	URI                    string
	PoolSize               uint64
	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration
	ServerSelectionTimeout time.Duration
}

// Connect opens a pooled client and verifies it with a ping. Caller should
// call client.Disconnect(ctx) on shutdown.
func Connect(ctx context.Context, opts ConnectOptions) (*mongo.Client, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.PoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.PoolSize)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.SocketTimeout > 0 {
		clientOpts.SetSocketTimeout(opts.SocketTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Mongo adapts one mongo.Collection to the Store capability. Its native
// identifier type is primitive.ObjectID.
type Mongo struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewMongo(col *mongo.Collection, log zerolog.Logger) *Mongo {
	return &Mongo{col: col, log: log.With().Str("collection", col.Name()).Logger()}
}

func (m *Mongo) Insert(ctx context.Context, doc Document) error {
	res, err := m.col.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return err
	}
	if res.InsertedID == nil {
		return ErrInsertFailed
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, filter Document, fields Document) (UpdateResult, error) {
	res, err := m.col.UpdateOne(ctx, bson.M(filter), bson.M{"$set": bson.M(fields)})
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (m *Mongo) Find(ctx context.Context, filter Document, opts FindOptions) ([]Document, error) {
	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	cur, err := m.col.Find(ctx, bson.M(filter), findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Document
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, normalize(doc).(Document))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalize rewrites decoded bson container types to plain maps and slices
// so nothing driver-specific leaks past the adapter. Scalar types, including
// ObjectID, pass through for the codec to handle.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(Document, len(t))
		for k, inner := range t {
			out[k] = normalize(inner)
		}
		return out
	case bson.D:
		out := make(Document, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = normalize(inner)
		}
		return out
	}
	return v
}

// CreateIndex translates the directive options it understands; unrecognized
// keys are ignored rather than rejected so schema files can carry
// store-specific hints.
func (m *Mongo) CreateIndex(ctx context.Context, path string, opts schema.IndexOptions) error {
	idxOpts := options.Index()
	if v, ok := opts["unique"].(bool); ok {
		idxOpts.SetUnique(v)
	}
	if v, ok := opts["sparse"].(bool); ok {
		idxOpts.SetSparse(v)
	}
	if v, ok := opts["name"].(string); ok {
		idxOpts.SetName(v)
	}
	if secs, ok := asInt32(opts["expireAfterSeconds"]); ok {
		idxOpts.SetExpireAfterSeconds(secs)
	}

	model := mongo.IndexModel{Keys: bson.D{{Key: path, Value: 1}}, Options: idxOpts}
	name, err := m.col.Indexes().CreateOne(ctx, model)
	if err != nil {
		return fmt.Errorf("create index on %s: %w", path, err)
	}
	m.log.Info().Str("index", name).Str("path", path).Msg("index created")
	return nil
}

func (m *Mongo) Codec() IDCodec { return ObjectIDCodec{} }

// ObjectIDCodec converts between hex strings and primitive.ObjectID.
type ObjectIDCodec struct{}

func (ObjectIDCodec) ToNative(v any) (any, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return v, nil
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return oid, nil
}

func (ObjectIDCodec) ToExternal(v any) any {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return v
}

func (ObjectIDCodec) NewID() any { return primitive.NewObjectID() }

func asInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int:
		return int32(n), true
	case int32:
		return n, true
	case int64:
		return int32(n), true
	case float64:
		return int32(n), true
	}
	return 0, false
}
