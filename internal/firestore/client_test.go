package firestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	firestore "google.golang.org/api/firestore/v1"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fields := map[string]interface{}{
		"name":   "alice",
		"age":    int64(30),
		"score":  1.5,
		"active": true,
		"notes":  nil,
		"address": map[string]interface{}{
			"city": "Berlin",
		},
		"tags": []interface{}{"a", "b"},
	}

	encoded := encodeFields(fields)

	decoded := make(map[string]interface{}, len(encoded))
	for k, v := range encoded {
		decoded[k] = decodeValue(v)
	}

	assert.Equal(t, "alice", decoded["name"])
	assert.Equal(t, int64(30), decoded["age"])
	assert.Equal(t, 1.5, decoded["score"])
	assert.Equal(t, true, decoded["active"])
	assert.Nil(t, decoded["notes"])
	assert.Equal(t, map[string]interface{}{"city": "Berlin"}, decoded["address"])
	assert.Equal(t, []interface{}{"a", "b"}, decoded["tags"])
}

func TestEncodeValueJSONNumbers(t *testing.T) {
	// JSON unmarshals all numbers to float64; whole values become integers.
	v := encodeValue(float64(42))
	assert.Equal(t, int64(42), v.IntegerValue)
	assert.Zero(t, v.DoubleValue)

	v = encodeValue(float64(42.5))
	assert.Equal(t, 42.5, v.DoubleValue)
}

func TestEncodeValueBoolForcesSend(t *testing.T) {
	v := encodeValue(false)
	assert.Contains(t, v.ForceSendFields, "BooleanValue")
}

func TestFlattenStripsResourcePrefix(t *testing.T) {
	doc := &firestore.Document{
		Name: "projects/p-1/databases/(default)/documents/users/alice",
		Fields: map[string]firestore.Value{
			"name": {StringValue: "alice"},
		},
	}

	flat := flatten(doc)
	assert.Equal(t, "users/alice", flat.Path)
	require.Contains(t, flat.Fields, "name")
	assert.Equal(t, "alice", flat.Fields["name"])
}
