package model

import (
	"bytes"
	"math"
	"strings"
)

// ComparisonResult is the outcome of a three-way comparison
type ComparisonResult int

const (
	Ascending  ComparisonResult = -1
	Same       ComparisonResult = 0
	Descending ComparisonResult = 1
)

// String returns the result name
func (r ComparisonResult) String() string {
	switch r {
	case Ascending:
		return "ascending"
	case Same:
		return "same"
	default:
		return "descending"
	}
}

// Compare places left and right in the global value order.
//
// Values of different comparison groups are ordered by group rank alone.
// Within a group:
//   - numbers compare by mathematical value; NaN sorts below every other
//     number and equals only NaN
//   - timestamps compare by instant; a server timestamp uses its local
//     write time
//   - strings and blobs compare byte-wise
//   - references compare by database, then document path
//   - geo points compare by latitude, then longitude
//   - arrays compare element-wise; a prefix sorts first
//   - objects compare by their sorted key lists, then by values in key order
func Compare(left, right FieldValue) ComparisonResult {
	lo, ro := left.typ.Order(), right.typ.Order()
	if lo != ro {
		if lo < ro {
			return Ascending
		}
		return Descending
	}

	var c int
	switch lo {
	case OrderNull:
		c = 0
	case OrderBoolean:
		c = compareBools(left.payload.(bool), right.payload.(bool))
	case OrderNumber:
		c = compareNumbers(left, right)
	case OrderTimestamp:
		c = effectiveInstant(left).Compare(effectiveInstant(right))
	case OrderString:
		c = strings.Compare(left.payload.(string), right.payload.(string))
	case OrderBlob:
		c = bytes.Compare(left.payload.([]byte), right.payload.([]byte))
	case OrderReference:
		c = left.payload.(DocumentReference).Compare(right.payload.(DocumentReference))
	case OrderGeoPoint:
		c = left.payload.(GeoPoint).Compare(right.payload.(GeoPoint))
	case OrderArray:
		return compareArrays(left.payload.([]FieldValue), right.payload.([]FieldValue))
	case OrderObject:
		return compareObjects(left.payload.(*object), right.payload.(*object))
	}
	return ComparisonResult(c)
}

// Compare compares v with other, see Compare
func (v FieldValue) Compare(other FieldValue) ComparisonResult {
	return Compare(v, other)
}

// Equal reports whether v and other have the same position in the value order
func (v FieldValue) Equal(other FieldValue) bool {
	return Compare(v, other) == Same
}

// NotEqual is the negation of Equal
func (v FieldValue) NotEqual(other FieldValue) bool {
	return Compare(v, other) != Same
}

// Less reports whether v sorts before other
func (v FieldValue) Less(other FieldValue) bool {
	return Compare(v, other) == Ascending
}

// LessOrEqual reports whether v does not sort after other
func (v FieldValue) LessOrEqual(other FieldValue) bool {
	return Compare(v, other) != Descending
}

// Greater reports whether v sorts after other
func (v FieldValue) Greater(other FieldValue) bool {
	return Compare(v, other) == Descending
}

// GreaterOrEqual reports whether v does not sort before other
func (v FieldValue) GreaterOrEqual(other FieldValue) bool {
	return Compare(v, other) != Ascending
}

// ValuesEqual checks if two values are equal.
// It uses Compare so equality never disagrees with ordering.
func ValuesEqual(a, b FieldValue) bool {
	return Compare(a, b) == Same
}

func effectiveInstant(v FieldValue) Timestamp {
	if v.typ == TypeServerTimestamp {
		return v.payload.(ServerTimestamp).LocalWriteTime
	}
	return v.payload.(Timestamp)
}

// compareNumbers compares two values of the number group
func compareNumbers(left, right FieldValue) int {
	switch l := left.payload.(type) {
	case int64:
		switch r := right.payload.(type) {
		case int64:
			return compareInt64s(l, r)
		case float64:
			return -compareDoubleToInt64(r, l)
		}
	case float64:
		switch r := right.payload.(type) {
		case int64:
			return compareDoubleToInt64(l, r)
		case float64:
			return compareDoubles(l, r)
		}
	}
	panic("model: malformed number value")
}

// Bounds of int64 as exactly representable doubles
const (
	minInt64AsDouble = -9223372036854775808.0 // -2^63
	maxInt64AsDouble = 9223372036854775808.0  // 2^63, one past MaxInt64
)

// compareDoubleToInt64 compares without rounding the integer to a double,
// so integers above 2^53 keep their exact value.
func compareDoubleToInt64(d float64, i int64) int {
	switch {
	case math.IsNaN(d):
		return -1
	case d < minInt64AsDouble:
		return -1
	case d >= maxInt64AsDouble:
		return 1
	}
	whole := int64(d)
	if c := compareInt64s(whole, i); c != 0 {
		return c
	}
	// d - whole is exact; only its sign matters
	return compareDoubles(d-float64(whole), 0)
}

// compareDoubles orders NaN below all numbers and treats -0 and +0 as equal
func compareDoubles(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	}
	// At least one side is NaN
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	default:
		return 1
	}
}

// compareInt64s compares two int64 values
func compareInt64s(a, b int64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareArrays(left, right []FieldValue) ComparisonResult {
	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		if c := Compare(left[i], right[i]); c != Same {
			return c
		}
	}
	return ComparisonResult(compareInt64s(int64(len(left)), int64(len(right))))
}

// compareObjects compares the key lists first and only then the values
func compareObjects(left, right *object) ComparisonResult {
	n := min(len(left.keys), len(right.keys))
	for i := 0; i < n; i++ {
		if c := strings.Compare(left.keys[i], right.keys[i]); c != 0 {
			return ComparisonResult(c)
		}
	}
	if c := compareInt64s(int64(len(left.keys)), int64(len(right.keys))); c != 0 {
		return ComparisonResult(c)
	}
	for _, k := range left.keys {
		if c := Compare(left.fields[k], right.fields[k]); c != Same {
			return c
		}
	}
	return Same
}
