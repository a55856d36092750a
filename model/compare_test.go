package model

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var negativeZero = math.Copysign(0, -1)

func ts(seconds int64) Timestamp {
	return MustTimestamp(seconds, 0)
}

func ref(path string) FieldValue {
	return ReferenceValue(DocumentReference{
		Database: NewDatabaseID("project", ""),
		Key:      MustDocumentKey(path),
	})
}

func obj(kv ...any) FieldValue {
	fields := make(map[string]FieldValue)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i].(string)] = MustValue(kv[i+1])
	}
	return ObjectValue(fields)
}

func arr(elems ...any) FieldValue {
	values := make([]FieldValue, len(elems))
	for i, e := range elems {
		values[i] = MustValue(e)
	}
	return ArrayValue(values)
}

// sampleValues covers every type, several payloads per type and a few
// cross-type equal pairs
func sampleValues() []FieldValue {
	return []FieldValue{
		NullValue(),
		FalseValue(),
		TrueValue(),
		NanValue(),
		DoubleValue(math.Inf(-1)),
		IntegerValue(math.MinInt64),
		IntegerValue(-1),
		DoubleValue(negativeZero),
		IntegerValue(0),
		DoubleValue(0.5),
		IntegerValue(1),
		DoubleValue(1.0),
		IntegerValue(1 << 53),
		IntegerValue(1<<53 + 1),
		IntegerValue(math.MaxInt64),
		DoubleValue(math.Inf(1)),
		TimestampValue(ts(0)),
		ServerTimestampValue(ts(0)),
		TimestampValue(MustTimestamp(0, 1)),
		ServerTimestampValueWithPrevious(ts(100), ts(5)),
		TimestampValue(ts(100)),
		StringValue(""),
		StringValue("a"),
		StringValue("ab"),
		StringValue("b"),
		StringValue("é"),
		BlobValue(nil),
		BlobValue([]byte{0}),
		BlobValue([]byte{0, 1}),
		BlobValue([]byte{1}),
		ref("a/b"),
		ref("a/b/c/d"),
		ref("a/c"),
		GeoPointValue(MustGeoPoint(0, 0)),
		GeoPointValue(MustGeoPoint(0, 1)),
		GeoPointValue(MustGeoPoint(1, -1)),
		arr(),
		arr(1),
		arr(1.0),
		arr(1, 2),
		arr(1, 2, 3),
		arr(1, 3),
		arr("a"),
		EmptyObject(),
		obj("a", 1),
		obj("a", 2),
		obj("a", 1, "b", 0),
		obj("a", 2, "b", 0),
		obj("a", 1, "c", 0),
		obj("b", 0),
	}
}

func TestCompareTotalOrder(t *testing.T) {
	values := sampleValues()

	for _, a := range values {
		assert.Equal(t, Same, Compare(a, a), "reflexive: %v", a)
		for _, b := range values {
			ab, ba := Compare(a, b), Compare(b, a)
			assert.Equal(t, ab, -ba, "antisymmetric: %v vs %v", a, b)
			for _, c := range values {
				bc := Compare(b, c)
				if ab != Descending && bc != Descending {
					assert.NotEqual(t, Descending, Compare(a, c),
						"transitive: %v <= %v <= %v", a, b, c)
				}
				if ab == Same && bc == Same {
					assert.Equal(t, Same, Compare(a, c), "transitive equality: %v %v %v", a, b, c)
				}
			}
		}
	}
}

func TestEqualityDerivedFromOrder(t *testing.T) {
	values := sampleValues()
	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, !a.Less(b) && !a.Greater(b), a.Equal(b), "%v vs %v", a, b)
			assert.Equal(t, !a.Equal(b), a.NotEqual(b))
			assert.Equal(t, a.Less(b) || a.Equal(b), a.LessOrEqual(b))
			assert.Equal(t, a.Greater(b) || a.Equal(b), a.GreaterOrEqual(b))
			assert.Equal(t, a.Equal(b), ValuesEqual(a, b))
		}
	}
}

func TestGroupOrdering(t *testing.T) {
	ordered := []FieldValue{
		NullValue(),
		FalseValue(),
		TrueValue(),
		IntegerValue(-1),
		TimestampValue(ts(0)),
		StringValue(""),
		BlobValue([]byte{}),
		ref("a/b"),
		GeoPointValue(MustGeoPoint(0, 0)),
		arr(),
		EmptyObject(),
	}
	for i := 0; i+1 < len(ordered); i++ {
		assert.True(t, ordered[i].Less(ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
	}

	// Rank decides regardless of payload
	assert.True(t, TrueValue().Less(IntegerValue(math.MinInt64)))
	assert.True(t, DoubleValue(math.Inf(1)).Less(TimestampValue(ts(minTimestampSeconds))))
	assert.True(t, StringValue("\xff\xff").Less(BlobValue(nil)))
	assert.True(t, arr(obj("z", 1)).Less(EmptyObject()))
}

func TestCompareNumbers(t *testing.T) {
	t.Run("CrossTypeEquivalence", func(t *testing.T) {
		assert.True(t, IntegerValue(5).Equal(DoubleValue(5.0)))
		assert.True(t, IntegerValue(5).Less(DoubleValue(5.5)))
		assert.True(t, DoubleValue(4.5).Less(IntegerValue(5)))
		assert.True(t, DoubleValue(negativeZero).Equal(IntegerValue(0)))
		assert.True(t, DoubleValue(negativeZero).Equal(DoubleValue(0.0)))
	})

	t.Run("NaN", func(t *testing.T) {
		chain := []FieldValue{
			NanValue(),
			DoubleValue(math.Inf(-1)),
			DoubleValue(-1.0),
			DoubleValue(0.0),
			DoubleValue(1.0),
			DoubleValue(math.Inf(1)),
		}
		for i := 0; i+1 < len(chain); i++ {
			assert.True(t, chain[i].Less(chain[i+1]), "%v < %v", chain[i], chain[i+1])
		}
		assert.True(t, NanValue().Equal(DoubleValue(math.NaN())))
		assert.True(t, NanValue().Less(IntegerValue(math.MinInt64)))
		assert.True(t, IntegerValue(math.MinInt64).Greater(NanValue()))
	})

	t.Run("BeyondDoublePrecision", func(t *testing.T) {
		// 2^53+1 is not representable as a double; naive promotion
		// would make these equal
		assert.True(t, IntegerValue(1<<53+1).Greater(DoubleValue(1<<53)))
		assert.True(t, IntegerValue(1<<53).Equal(DoubleValue(1<<53)))
		assert.True(t, IntegerValue(math.MaxInt64).Less(DoubleValue(9223372036854775808.0)))
		assert.True(t, IntegerValue(math.MinInt64).Equal(DoubleValue(-9223372036854775808.0)))
		assert.True(t, IntegerValue(math.MinInt64).Greater(DoubleValue(-1e19)))
		assert.True(t, IntegerValue(math.MaxInt64).Less(DoubleValue(math.Inf(1))))
	})
}

func TestCompareTimestamps(t *testing.T) {
	t1, t2 := ts(100), ts(200)

	assert.True(t, TimestampValue(MustTimestamp(1, 5)).Less(TimestampValue(MustTimestamp(1, 6))))
	assert.True(t, TimestampValue(MustTimestamp(1, 999999999)).Less(TimestampValue(ts(2))))

	pending := ServerTimestampValueWithPrevious(t1, ts(0))
	assert.Equal(t, OrderTimestamp, pending.Type().Order())
	assert.True(t, pending.Equal(TimestampValue(t1)))
	assert.True(t, pending.Less(TimestampValue(t2)))
	assert.True(t, TimestampValue(ts(50)).Less(pending))

	// Previous value never takes part in ordering
	assert.True(t, pending.Equal(ServerTimestampValue(t1)))
	assert.True(t, pending.Equal(ServerTimestampValueWithPrevious(t1, t2)))
	assert.True(t, ServerTimestampValue(t1).Less(ServerTimestampValue(t2)))
}

func TestCompareComposites(t *testing.T) {
	t.Run("Arrays", func(t *testing.T) {
		assert.True(t, arr(1, 2).Less(arr(1, 2, 3)))
		assert.True(t, arr(1, 2, 3).Less(arr(1, 3)))
		assert.True(t, arr().Less(arr(nil)))
		assert.True(t, arr(1).Equal(arr(1.0)))
		assert.True(t, arr(arr(1)).Less(arr(arr(1, 0))))
	})

	t.Run("Objects", func(t *testing.T) {
		assert.True(t, obj("a", 1).Less(obj("a", 2)))
		assert.True(t, obj("a", 1).Less(obj("b", 0)))
		assert.True(t, obj("a", 1).Less(obj("a", 1, "b", 0)))
		// Keys are compared before any value
		assert.True(t, obj("a", 2, "b", 0).Less(obj("a", 1, "c", 0)))
		assert.True(t, obj("a", 1).Equal(obj("a", 1.0)))
		assert.True(t, obj("x", obj("a", 1)).Less(obj("x", obj("a", 2))))
	})

	t.Run("References", func(t *testing.T) {
		assert.True(t, ref("a/b").Less(ref("a/b/c/d")))
		assert.True(t, ref("a/b/c/d").Less(ref("a/c")))
		other := ReferenceValue(DocumentReference{
			Database: NewDatabaseID("another", ""),
			Key:      MustDocumentKey("a/b"),
		})
		assert.True(t, other.Less(ref("a/b")))
	})

	t.Run("GeoPoints", func(t *testing.T) {
		assert.True(t, GeoPointValue(MustGeoPoint(0, 10)).Less(GeoPointValue(MustGeoPoint(1, -10))))
		assert.True(t, GeoPointValue(MustGeoPoint(1, -10)).Less(GeoPointValue(MustGeoPoint(1, 0))))
	})

	t.Run("StringsByteWise", func(t *testing.T) {
		// U+FFFD sorts after U+1F600 in UTF-16 but before it in UTF-8
		assert.True(t, StringValue("�").Less(StringValue("\U0001F600")))
		assert.True(t, StringValue("a").Less(StringValue("ab")))
		assert.True(t, StringValue("Z").Less(StringValue("a")))
	})
}

func TestSortValues(t *testing.T) {
	values := []FieldValue{
		obj("a", 1),
		StringValue("b"),
		DoubleValue(2.5),
		NullValue(),
		arr(1),
		IntegerValue(2),
		NanValue(),
		TrueValue(),
	}
	sort.SliceStable(values, func(i, j int) bool { return values[i].Less(values[j]) })

	want := []Type{TypeNull, TypeBoolean, TypeDouble, TypeInteger, TypeDouble, TypeString, TypeArray, TypeObject}
	got := make([]Type, len(values))
	for i, v := range values {
		got[i] = v.Type()
	}
	require.Equal(t, want, got)
	assert.True(t, values[2].IsNaN())
}
