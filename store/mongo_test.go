package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestObjectIDCodec(t *testing.T) {
	c := ObjectIDCodec{}

	native := c.NewID()
	oid, ok := native.(primitive.ObjectID)
	require.True(t, ok)

	ext := c.ToExternal(native)
	require.Equal(t, oid.Hex(), ext)

	back, err := c.ToNative(ext)
	require.NoError(t, err)
	require.Equal(t, native, back)

	// idempotent both ways
	again, err := c.ToNative(native)
	require.NoError(t, err)
	require.Equal(t, native, again)
	require.Equal(t, ext, c.ToExternal(ext))

	// falsy and non-string values pass through
	v, err := c.ToNative(nil)
	require.NoError(t, err)
	require.Nil(t, v)
	v, err = c.ToNative("")
	require.NoError(t, err)
	require.Equal(t, "", v)
	v, err = c.ToNative(7)
	require.NoError(t, err)
	require.Equal(t, 7, v)

	_, err = c.ToNative("zzzz")
	require.ErrorIs(t, err, ErrInvalidID)
	_, err = c.ToNative("0123456789")
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestNormalize(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := normalize(bson.M{
		"_id":     oid,
		"profile": bson.M{"contact": bson.D{{Key: "phone", Value: "123"}}},
		"tags":    bson.A{"a", bson.M{"k": "v"}},
	}).(Document)

	require.Equal(t, oid, doc["_id"])
	profile, ok := doc["profile"].(map[string]any)
	require.True(t, ok)
	contact, ok := profile["contact"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "123", contact["phone"])
	tags, ok := doc["tags"].([]any)
	require.True(t, ok)
	require.Equal(t, "a", tags[0])
	require.Equal(t, map[string]any{"k": "v"}, tags[1])
}

func TestAsInt32(t *testing.T) {
	for _, v := range []any{60, int32(60), int64(60), float64(60)} {
		got, ok := asInt32(v)
		require.True(t, ok)
		require.Equal(t, int32(60), got)
	}
	_, ok := asInt32("60")
	require.False(t, ok)
}
