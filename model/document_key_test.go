package model

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKey(t *testing.T) {
	key, err := ParseDocumentKey("/rooms/eros/messages/1/")
	require.NoError(t, err)
	assert.Equal(t, "rooms/eros/messages/1", key.String())
	assert.Equal(t, "messages", key.CollectionID())
	assert.Equal(t, "1", key.ID())
	assert.Equal(t, []string{"rooms", "eros", "messages", "1"}, key.Segments())

	for _, bad := range []string{"", "rooms", "rooms/eros/messages", "rooms//messages/1"} {
		_, err := ParseDocumentKey(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestStoredDocumentKey(t *testing.T) {
	assert.Equal(t, 0, StoredDocumentKey().Compare(DocumentKey{}))
	assert.Equal(t, "", StoredDocumentKey().String())

	segments := []string{"a", "b"}
	key := StoredDocumentKey(segments...)
	segments[0] = "z"
	assert.Equal(t, "a/b", key.String())
}

func TestDocumentKeyCompare(t *testing.T) {
	a := MustDocumentKey("a/b")
	assert.Equal(t, 0, a.Compare(MustDocumentKey("a/b")))
	assert.Equal(t, -1, a.Compare(MustDocumentKey("a/b/c/d")))
	assert.Equal(t, 1, MustDocumentKey("a/c").Compare(MustDocumentKey("a/b/c/d")))
	// Segment-wise, not string-wise: "a/b" < "a-/b" because "a" < "a-"
	assert.Equal(t, -1, MustDocumentKey("a/b/c/d").Compare(MustDocumentKey("a-/b")))
}

func TestParseResourceName(t *testing.T) {
	ref, err := ParseResourceName("projects/p1/databases/(default)/documents/users/alice")
	require.NoError(t, err)
	assert.Equal(t, NewDatabaseID("p1", ""), ref.Database)
	assert.Equal(t, "users/alice", ref.Key.String())
	assert.Equal(t, "projects/p1/databases/(default)/documents/users/alice", ref.ResourceName())

	_, err = ParseResourceName("projects/p1/documents/users/alice")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = ParseResourceName("projects/p1/databases/d/documents/users")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestInternDocumentKey(t *testing.T) {
	ClearInterns()

	var wg sync.WaitGroup
	keys := make([]DocumentKey, 8)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := InternDocumentKey("users/alice")
			assert.NoError(t, err)
			keys[i] = k
		}(i)
	}
	wg.Wait()

	for _, k := range keys {
		assert.Equal(t, 0, k.Compare(keys[0]))
	}

	_, err := InternDocumentKey("users")
	assert.ErrorIs(t, err, ErrInvalidPath)

	assert.Equal(t, "field", InternString("field"))
}

func TestTimestamp(t *testing.T) {
	_, err := NewTimestamp(0, -1)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	_, err = NewTimestamp(0, 1_000_000_000)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	_, err = NewTimestamp(maxTimestampSeconds+1, 0)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	_, err = NewTimestamp(minTimestampSeconds-1, 0)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)

	// Negative instants keep a positive fraction
	before := time.Date(1969, 12, 31, 23, 59, 59, 250_000_000, time.UTC)
	got, err := TimestampFromTime(before)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), got.Seconds())
	assert.Equal(t, int32(250_000_000), got.Nanos())
	assert.True(t, got.Time().Equal(before))
	assert.Equal(t, -1, got.Compare(MustTimestamp(0, 0)))
	assert.Equal(t, "1969-12-31T23:59:59.25Z", got.String())
}

func TestGeoPoint(t *testing.T) {
	for _, bad := range [][2]float64{{91, 0}, {-90.5, 0}, {0, 181}, {0, -180.1}, {math.NaN(), 0}, {0, math.NaN()}} {
		_, err := NewGeoPoint(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidGeoPoint, "%v", bad)
	}

	p := MustGeoPoint(-90, 180)
	assert.Equal(t, -90.0, p.Latitude())
	assert.Equal(t, 180.0, p.Longitude())
	assert.Equal(t, "GeoPoint(-90, 180)", p.String())
}

func TestTypeOrder(t *testing.T) {
	assert.Equal(t, OrderNumber, TypeInteger.Order())
	assert.Equal(t, OrderNumber, TypeDouble.Order())
	assert.Equal(t, OrderTimestamp, TypeServerTimestamp.Order())
	assert.True(t, TypeInteger.IsNumber())
	assert.True(t, TypeServerTimestamp.IsTimestamp())
	assert.False(t, TypeString.IsNumber())
	assert.Equal(t, "server_timestamp", TypeServerTimestamp.String())
	assert.Panics(t, func() { Type(200).Order() })

	// Ranks never decrease along the type enum
	for typ := TypeNull; typ < TypeObject; typ++ {
		assert.True(t, typ.Order() <= (typ+1).Order(), typ.String())
	}
}
