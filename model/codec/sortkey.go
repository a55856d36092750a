package codec

import (
	"encoding/binary"
	"math"

	"github.com/wbrown/janus-fieldvalue/model"
)

// Sort keys are byte strings whose lexicographic order is the value order:
//
//	bytes.Compare(EncodeSortKey(a), EncodeSortKey(b)) == int(model.Compare(a, b))
//
// Values that compare equal, such as Integer 5 and Double 5.0, share a sort
// key, so sort keys cannot be decoded. Every encoding is prefix-free, which
// lets arrays and objects concatenate their children.
//
// Layout, after a one-byte group tag (rank+1):
//
//	null       -
//	boolean    0x00 | 0x01
//	number     0x00 for NaN, else 0x01 + ordered double + int16 correction
//	timestamp  ordered int64 seconds + uint32 nanos
//	string     escaped bytes
//	blob       escaped bytes
//	reference  escaped project + escaped database + (0x01 escaped segment)* 0x00
//	geo point  ordered double latitude + ordered double longitude
//	array      element* 0x00
//	object     (0x01 escaped key)* 0x00 + value*
const (
	sortKeyEnd  = 0x00
	sortKeyMore = 0x01

	escapeByte       = 0x00
	escapedZero      = 0xFF
	escapeTerminator = 0x01
)

// EncodeSortKey returns the order-preserving key of v
func EncodeSortKey(v model.FieldValue) []byte {
	return AppendSortKey(nil, v)
}

// AppendSortKey appends the order-preserving key of v to dst
func AppendSortKey(dst []byte, v model.FieldValue) []byte {
	order := v.Type().Order()
	dst = append(dst, byte(order)+1)

	switch order {
	case model.OrderNull:
	case model.OrderBoolean:
		if v.AsBoolean() {
			return append(dst, 0x01)
		}
		return append(dst, 0x00)
	case model.OrderNumber:
		return appendNumber(dst, v)
	case model.OrderTimestamp:
		ts := effectiveInstant(v)
		dst = binary.BigEndian.AppendUint64(dst, uint64(ts.Seconds())^(1<<63))
		return binary.BigEndian.AppendUint32(dst, uint32(ts.Nanos()))
	case model.OrderString:
		return appendEscaped(dst, []byte(v.AsString()))
	case model.OrderBlob:
		return appendEscaped(dst, v.AsBlob())
	case model.OrderReference:
		ref := v.AsReference()
		dst = appendEscaped(dst, []byte(ref.Database.ProjectID))
		dst = appendEscaped(dst, []byte(ref.Database.DatabaseID))
		for _, seg := range ref.Key.Segments() {
			dst = append(dst, sortKeyMore)
			dst = appendEscaped(dst, []byte(seg))
		}
		return append(dst, sortKeyEnd)
	case model.OrderGeoPoint:
		p := v.AsGeoPoint()
		dst = appendOrderedDouble(dst, p.Latitude())
		return appendOrderedDouble(dst, p.Longitude())
	case model.OrderArray:
		for i := 0; i < v.Len(); i++ {
			dst = AppendSortKey(dst, v.Index(i))
		}
		return append(dst, sortKeyEnd)
	case model.OrderObject:
		keys := v.Keys()
		for _, k := range keys {
			dst = append(dst, sortKeyMore)
			dst = appendEscaped(dst, []byte(k))
		}
		dst = append(dst, sortKeyEnd)
		for _, k := range keys {
			f, _ := v.Field(k)
			dst = AppendSortKey(dst, f)
		}
	}
	return dst
}

func effectiveInstant(v model.FieldValue) model.Timestamp {
	if v.Type() == model.TypeServerTimestamp {
		return v.AsServerTimestamp().LocalWriteTime
	}
	return v.AsTimestamp()
}

// appendNumber writes the nearest double to the value followed by the
// exact distance from it, so integers beyond 2^53 keep their order and an
// integer equal to a double shares its key.
func appendNumber(dst []byte, v model.FieldValue) []byte {
	var f float64
	var diff int64

	if v.Type() == model.TypeInteger {
		i := v.AsInteger()
		f = float64(i)
		if f >= 9223372036854775808.0 {
			// MaxInt64 and its neighbours round up to 2^63
			diff = (i - math.MaxInt64) - 1
		} else {
			diff = i - int64(f)
		}
	} else {
		f = v.AsDouble()
		if math.IsNaN(f) {
			return append(dst, 0x00)
		}
	}

	dst = append(dst, 0x01)
	dst = appendOrderedDouble(dst, f)
	return binary.BigEndian.AppendUint16(dst, uint16(int16(diff))^0x8000)
}

// appendOrderedDouble writes a non-NaN double so that byte order matches
// numeric order. -0 is written as +0.
func appendOrderedDouble(dst []byte, f float64) []byte {
	if f == 0 {
		f = 0
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return binary.BigEndian.AppendUint64(dst, bits)
}

// appendEscaped writes b with 0x00 escaped as 0x00 0xFF, terminated by
// 0x00 0x01, so a prefix sorts before its extensions
func appendEscaped(dst, b []byte) []byte {
	for _, c := range b {
		if c == escapeByte {
			dst = append(dst, escapeByte, escapedZero)
			continue
		}
		dst = append(dst, c)
	}
	return append(dst, escapeByte, escapeTerminator)
}
