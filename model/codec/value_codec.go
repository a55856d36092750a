package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/wbrown/janus-fieldvalue/model"
)

// The value codec is the invertible binary form used by storage. Each
// value is its Type byte followed by the payload:
//
//	null             -
//	boolean          1 byte
//	integer          8 bytes, big endian
//	double           8 bytes, IEEE 754 bits
//	timestamp        8 bytes seconds + 4 bytes nanos
//	server timestamp timestamp + 1 byte flag [+ timestamp]
//	string, blob     uvarint length + bytes
//	reference        project, database, uvarint segment count, segments
//	geo point        2 doubles
//	array            uvarint count + values
//	object           uvarint count + (key, value) pairs in key order

// MaxDepth bounds the nesting of decoded arrays and objects
const MaxDepth = 100

var (
	// ErrTruncated indicates the input ended inside a value
	ErrTruncated = errors.New("truncated value encoding")
	// ErrUnknownType indicates a type byte with no value type
	ErrUnknownType = errors.New("unknown value type")
	// ErrNonCanonical indicates bytes AppendValue would never produce
	ErrNonCanonical = errors.New("non-canonical value encoding")
)

// EncodeValue serializes a value
func EncodeValue(v model.FieldValue) []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the encoding of v to dst
func AppendValue(dst []byte, v model.FieldValue) []byte {
	dst = append(dst, byte(v.Type()))

	switch v.Type() {
	case model.TypeNull:
	case model.TypeBoolean:
		if v.AsBoolean() {
			return append(dst, 1)
		}
		return append(dst, 0)
	case model.TypeInteger:
		return binary.BigEndian.AppendUint64(dst, uint64(v.AsInteger()))
	case model.TypeDouble:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.AsDouble()))
	case model.TypeTimestamp:
		return appendTimestamp(dst, v.AsTimestamp())
	case model.TypeServerTimestamp:
		st := v.AsServerTimestamp()
		dst = appendTimestamp(dst, st.LocalWriteTime)
		if !st.HasPreviousValue {
			return append(dst, 0)
		}
		dst = append(dst, 1)
		return appendTimestamp(dst, st.PreviousValue)
	case model.TypeString:
		return appendBytes(dst, []byte(v.AsString()))
	case model.TypeBlob:
		return appendBytes(dst, v.AsBlob())
	case model.TypeReference:
		ref := v.AsReference()
		dst = appendBytes(dst, []byte(ref.Database.ProjectID))
		dst = appendBytes(dst, []byte(ref.Database.DatabaseID))
		segments := ref.Key.Segments()
		dst = binary.AppendUvarint(dst, uint64(len(segments)))
		for _, s := range segments {
			dst = appendBytes(dst, []byte(s))
		}
	case model.TypeGeoPoint:
		p := v.AsGeoPoint()
		dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(p.Latitude()))
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(p.Longitude()))
	case model.TypeArray:
		dst = binary.AppendUvarint(dst, uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			dst = AppendValue(dst, v.Index(i))
		}
	case model.TypeObject:
		keys := v.Keys()
		dst = binary.AppendUvarint(dst, uint64(len(keys)))
		for _, k := range keys {
			f, _ := v.Field(k)
			dst = appendBytes(dst, []byte(k))
			dst = AppendValue(dst, f)
		}
	default:
		panic(fmt.Sprintf("cannot encode value type: %s", v.Type()))
	}
	return dst
}

func appendTimestamp(dst []byte, ts model.Timestamp) []byte {
	dst = binary.BigEndian.AppendUint64(dst, uint64(ts.Seconds()))
	return binary.BigEndian.AppendUint32(dst, uint32(ts.Nanos()))
}

func appendBytes(dst, b []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// DecodeValue deserializes a value produced by EncodeValue. Trailing bytes
// are an error.
func DecodeValue(data []byte) (model.FieldValue, error) {
	v, rest, err := DecodePrefix(data)
	if err != nil {
		return model.FieldValue{}, err
	}
	if len(rest) != 0 {
		return model.FieldValue{}, fmt.Errorf("%d trailing bytes after value", len(rest))
	}
	return v, nil
}

// DecodePrefix decodes the value at the front of data and returns the
// remaining bytes
func DecodePrefix(data []byte) (model.FieldValue, []byte, error) {
	d := &decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return model.FieldValue{}, nil, err
	}
	return v, d.data[d.pos:], nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.data)-d.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, d.pos)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) uvarint() (uint64, error) {
	n, size := binary.Uvarint(d.data[d.pos:])
	if size <= 0 {
		return 0, fmt.Errorf("%w: bad length at offset %d", ErrTruncated, d.pos)
	}
	if size != uvarintLen(n) {
		return 0, fmt.Errorf("%w: overlong length at offset %d", ErrNonCanonical, d.pos)
	}
	d.pos += size
	return n, nil
}

func uvarintLen(n uint64) int {
	size := 1
	for n >= 0x80 {
		n >>= 7
		size++
	}
	return size
}

// flag reads a byte that must be 0 or 1
func (d *decoder) flag() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	if b[0] > 1 {
		return false, fmt.Errorf("%w: flag byte %d at offset %d", ErrNonCanonical, b[0], d.pos-1)
	}
	return b[0] == 1, nil
}

func (d *decoder) uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(d.data)-d.pos) {
		return nil, fmt.Errorf("%w: length %d at offset %d", ErrTruncated, n, d.pos)
	}
	return d.take(int(n))
}

func (d *decoder) timestamp() (model.Timestamp, error) {
	secs, err := d.uint64()
	if err != nil {
		return model.Timestamp{}, err
	}
	b, err := d.take(4)
	if err != nil {
		return model.Timestamp{}, err
	}
	return model.NewTimestamp(int64(secs), int32(binary.BigEndian.Uint32(b)))
}

func (d *decoder) value(depth int) (model.FieldValue, error) {
	if depth > MaxDepth {
		return model.FieldValue{}, fmt.Errorf("value nested deeper than %d", MaxDepth)
	}
	tag, err := d.take(1)
	if err != nil {
		return model.FieldValue{}, err
	}

	switch model.Type(tag[0]) {
	case model.TypeNull:
		return model.NullValue(), nil
	case model.TypeBoolean:
		b, err := d.flag()
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.BooleanValue(b), nil
	case model.TypeInteger:
		n, err := d.uint64()
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.IntegerValue(int64(n)), nil
	case model.TypeDouble:
		n, err := d.uint64()
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.DoubleValue(math.Float64frombits(n)), nil
	case model.TypeTimestamp:
		ts, err := d.timestamp()
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.TimestampValue(ts), nil
	case model.TypeServerTimestamp:
		local, err := d.timestamp()
		if err != nil {
			return model.FieldValue{}, err
		}
		hasPrevious, err := d.flag()
		if err != nil {
			return model.FieldValue{}, err
		}
		if !hasPrevious {
			return model.ServerTimestampValue(local), nil
		}
		prev, err := d.timestamp()
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.ServerTimestampValueWithPrevious(local, prev), nil
	case model.TypeString:
		b, err := d.bytes()
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.StringValue(string(b)), nil
	case model.TypeBlob:
		b, err := d.bytes()
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.BlobValue(b), nil
	case model.TypeReference:
		return d.reference()
	case model.TypeGeoPoint:
		lat, err := d.uint64()
		if err != nil {
			return model.FieldValue{}, err
		}
		lng, err := d.uint64()
		if err != nil {
			return model.FieldValue{}, err
		}
		p, err := model.NewGeoPoint(math.Float64frombits(lat), math.Float64frombits(lng))
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.GeoPointValue(p), nil
	case model.TypeArray:
		n, err := d.uvarint()
		if err != nil {
			return model.FieldValue{}, err
		}
		// Every element takes at least one byte
		if n > uint64(len(d.data)-d.pos) {
			return model.FieldValue{}, fmt.Errorf("%w: %d elements at offset %d", ErrTruncated, n, d.pos)
		}
		elems := make([]model.FieldValue, n)
		for i := range elems {
			if elems[i], err = d.value(depth + 1); err != nil {
				return model.FieldValue{}, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return model.ArrayValue(elems), nil
	case model.TypeObject:
		n, err := d.uvarint()
		if err != nil {
			return model.FieldValue{}, err
		}
		if n > uint64(len(d.data)-d.pos) {
			return model.FieldValue{}, fmt.Errorf("%w: %d fields at offset %d", ErrTruncated, n, d.pos)
		}
		fields := make(map[string]model.FieldValue, n)
		var last string
		for i := uint64(0); i < n; i++ {
			k, err := d.bytes()
			if err != nil {
				return model.FieldValue{}, err
			}
			// Keys are written in ascending order, once each
			if i > 0 && string(k) <= last {
				return model.FieldValue{}, fmt.Errorf("%w: key %q after %q", ErrNonCanonical, k, last)
			}
			key := model.InternString(string(k))
			last = key
			if fields[key], err = d.value(depth + 1); err != nil {
				return model.FieldValue{}, fmt.Errorf("field %q: %w", key, err)
			}
		}
		return model.ObjectValue(fields), nil
	default:
		return model.FieldValue{}, fmt.Errorf("%w: %d", ErrUnknownType, tag[0])
	}
}

func (d *decoder) reference() (model.FieldValue, error) {
	project, err := d.bytes()
	if err != nil {
		return model.FieldValue{}, err
	}
	database, err := d.bytes()
	if err != nil {
		return model.FieldValue{}, err
	}
	n, err := d.uvarint()
	if err != nil {
		return model.FieldValue{}, err
	}
	if n > uint64(len(d.data)-d.pos) {
		return model.FieldValue{}, fmt.Errorf("%w: %d segments at offset %d", ErrTruncated, n, d.pos)
	}
	segments := make([]string, n)
	for i := range segments {
		s, err := d.bytes()
		if err != nil {
			return model.FieldValue{}, err
		}
		segments[i] = string(s)
	}
	return model.ReferenceValue(model.DocumentReference{
		Database: model.DatabaseID{ProjectID: string(project), DatabaseID: string(database)},
		Key:      model.StoredDocumentKey(segments...),
	}), nil
}
