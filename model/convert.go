package model

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
)

// ErrUnsupportedType is returned when a Go value has no FieldValue equivalent
var ErrUnsupportedType = errors.New("unsupported value type")

// NewValue converts a native Go value into a FieldValue.
//
// Supported inputs: nil, bool, all integer kinds (uint64 only up to
// MaxInt64), float32, float64, string, []byte, time.Time, Timestamp,
// ServerTimestamp, GeoPoint, DocumentReference, FieldValue, and slices or
// string-keyed maps of any of these.
func NewValue(v any) (FieldValue, error) {
	switch val := v.(type) {
	case nil:
		return NullValue(), nil
	case FieldValue:
		return val, nil
	case *FieldValue:
		if val == nil {
			return NullValue(), nil
		}
		return *val, nil
	case bool:
		return BooleanValue(val), nil
	case int:
		return IntegerValue(int64(val)), nil
	case int8:
		return IntegerValue(int64(val)), nil
	case int16:
		return IntegerValue(int64(val)), nil
	case int32:
		return IntegerValue(int64(val)), nil
	case int64:
		return IntegerValue(val), nil
	case uint8:
		return IntegerValue(int64(val)), nil
	case uint16:
		return IntegerValue(int64(val)), nil
	case uint32:
		return IntegerValue(int64(val)), nil
	case uint:
		return uintValue(uint64(val))
	case uint64:
		return uintValue(val)
	case float32:
		return DoubleValue(float64(val)), nil
	case float64:
		return DoubleValue(val), nil
	case string:
		return StringValue(val), nil
	case []byte:
		return BlobValue(val), nil
	case time.Time:
		ts, err := TimestampFromTime(val)
		if err != nil {
			return FieldValue{}, err
		}
		return TimestampValue(ts), nil
	case Timestamp:
		return TimestampValue(val), nil
	case ServerTimestamp:
		if val.HasPreviousValue {
			return ServerTimestampValueWithPrevious(val.LocalWriteTime, val.PreviousValue), nil
		}
		return ServerTimestampValue(val.LocalWriteTime), nil
	case GeoPoint:
		return GeoPointValue(val), nil
	case DocumentReference:
		return ReferenceValue(val), nil
	case *DocumentReference:
		if val == nil {
			return NullValue(), nil
		}
		return ReferenceValue(*val), nil
	case []FieldValue:
		return ArrayValue(val), nil
	case map[string]FieldValue:
		return ObjectValue(val), nil
	}
	return reflectValue(reflect.ValueOf(v))
}

// MustValue is NewValue that panics on error
func MustValue(v any) FieldValue {
	fv, err := NewValue(v)
	if err != nil {
		panic(err)
	}
	return fv
}

func uintValue(u uint64) (FieldValue, error) {
	if u > math.MaxInt64 {
		return FieldValue{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedType, u)
	}
	return IntegerValue(int64(u)), nil
}

// reflectValue handles slices, arrays and string-keyed maps of any
// element type
func reflectValue(rv reflect.Value) (FieldValue, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return NullValue(), nil
		}
		elems := make([]FieldValue, rv.Len())
		for i := range elems {
			e, err := NewValue(rv.Index(i).Interface())
			if err != nil {
				return FieldValue{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = e
		}
		return FieldValue{typ: TypeArray, payload: elems}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return FieldValue{}, fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())
		}
		if rv.IsNil() {
			return NullValue(), nil
		}
		fields := make(map[string]FieldValue, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			f, err := NewValue(iter.Value().Interface())
			if err != nil {
				return FieldValue{}, fmt.Errorf("field %q: %w", key, err)
			}
			fields[key] = f
		}
		return ObjectValue(fields), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return NullValue(), nil
		}
		return NewValue(rv.Elem().Interface())
	case reflect.Invalid:
		return NullValue(), nil
	}
	return FieldValue{}, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

// ServerTimestampBehavior selects how pending server timestamps convert to
// native values
type ServerTimestampBehavior int

const (
	// ServerTimestampNone converts pending server timestamps to nil
	ServerTimestampNone ServerTimestampBehavior = iota
	// ServerTimestampEstimate uses the local write time
	ServerTimestampEstimate
	// ServerTimestampPrevious uses the replaced value, or nil if there was none
	ServerTimestampPrevious
)

// String returns the behavior name
func (b ServerTimestampBehavior) String() string {
	switch b {
	case ServerTimestampEstimate:
		return "estimate"
	case ServerTimestampPrevious:
		return "previous"
	default:
		return "none"
	}
}

// ParseServerTimestampBehavior parses "none", "estimate" or "previous"
func ParseServerTimestampBehavior(s string) (ServerTimestampBehavior, error) {
	switch s {
	case "", "none":
		return ServerTimestampNone, nil
	case "estimate":
		return ServerTimestampEstimate, nil
	case "previous":
		return ServerTimestampPrevious, nil
	}
	return ServerTimestampNone, fmt.Errorf("unknown server timestamp behavior %q", s)
}

// Native converts v into plain Go values:
//
//	Null -> nil, Boolean -> bool, Integer -> int64, Double -> float64,
//	Timestamp -> time.Time, String -> string, Blob -> []byte,
//	Reference -> DocumentReference, GeoPoint -> GeoPoint,
//	Array -> []any, Object -> map[string]any
//
// ServerTimestamp values follow behavior.
func (v FieldValue) Native(behavior ServerTimestampBehavior) any {
	switch v.typ {
	case TypeNull:
		return nil
	case TypeTimestamp:
		return v.payload.(Timestamp).Time()
	case TypeServerTimestamp:
		st := v.payload.(ServerTimestamp)
		switch behavior {
		case ServerTimestampEstimate:
			return st.LocalWriteTime.Time()
		case ServerTimestampPrevious:
			if prev, ok := st.Previous(); ok {
				return prev.Time()
			}
		}
		return nil
	case TypeBlob:
		return v.AsBlob()
	case TypeArray:
		elems := v.payload.([]FieldValue)
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = e.Native(behavior)
		}
		return out
	case TypeObject:
		obj := v.payload.(*object)
		out := make(map[string]any, len(obj.keys))
		for _, k := range obj.keys {
			out[k] = obj.fields[k].Native(behavior)
		}
		return out
	case TypeReference:
		return clonePayload(v)
	default:
		return v.payload
	}
}
