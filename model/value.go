package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FieldValue is an immutable value as stored in a document field.
//
// The zero FieldValue is Null. The payload is set only by the factory
// functions below, so its dynamic type always matches the tag:
//
//	TypeNull            nil
//	TypeBoolean         bool
//	TypeInteger         int64
//	TypeDouble          float64
//	TypeTimestamp       Timestamp
//	TypeServerTimestamp ServerTimestamp
//	TypeString          string
//	TypeBlob            []byte
//	TypeReference       DocumentReference
//	TypeGeoPoint        GeoPoint
//	TypeArray           []FieldValue
//	TypeObject          *object
//
// Composite payloads are never modified after construction, which makes a
// plain struct copy safe to share between goroutines.
type FieldValue struct {
	typ     Type
	payload any
}

// object holds a map payload with its keys kept in sorted order
type object struct {
	keys   []string
	fields map[string]FieldValue
}

var (
	trueValue  = FieldValue{typ: TypeBoolean, payload: true}
	falseValue = FieldValue{typ: TypeBoolean, payload: false}
	nanValue   = FieldValue{typ: TypeDouble, payload: math.NaN()}
)

// NullValue returns the Null value
func NullValue() FieldValue { return FieldValue{} }

// TrueValue returns the boolean true value
func TrueValue() FieldValue { return trueValue }

// FalseValue returns the boolean false value
func FalseValue() FieldValue { return falseValue }

// BooleanValue returns the boolean value for b
func BooleanValue(b bool) FieldValue {
	if b {
		return trueValue
	}
	return falseValue
}

// NanValue returns the Double NaN value
func NanValue() FieldValue { return nanValue }

// IntegerValue creates an Integer value
func IntegerValue(i int64) FieldValue {
	return FieldValue{typ: TypeInteger, payload: i}
}

// DoubleValue creates a Double value
func DoubleValue(f float64) FieldValue {
	return FieldValue{typ: TypeDouble, payload: f}
}

// TimestampValue creates a Timestamp value
func TimestampValue(ts Timestamp) FieldValue {
	return FieldValue{typ: TypeTimestamp, payload: ts}
}

// ServerTimestampValue creates a pending server timestamp for a field that
// had no previous value
func ServerTimestampValue(localWriteTime Timestamp) FieldValue {
	return FieldValue{typ: TypeServerTimestamp, payload: ServerTimestamp{LocalWriteTime: localWriteTime}}
}

// ServerTimestampValueWithPrevious creates a pending server timestamp that
// overwrites a field previously holding a concrete timestamp
func ServerTimestampValueWithPrevious(localWriteTime, previousValue Timestamp) FieldValue {
	return FieldValue{typ: TypeServerTimestamp, payload: ServerTimestamp{
		LocalWriteTime:   localWriteTime,
		PreviousValue:    previousValue,
		HasPreviousValue: true,
	}}
}

// StringValue creates a String value
func StringValue(s string) FieldValue {
	return FieldValue{typ: TypeString, payload: s}
}

// BlobValue creates a Blob value from a copy of b
func BlobValue(b []byte) FieldValue {
	return FieldValue{typ: TypeBlob, payload: append([]byte{}, b...)}
}

// ReferenceValue creates a Reference value
func ReferenceValue(ref DocumentReference) FieldValue {
	return FieldValue{typ: TypeReference, payload: ref}
}

// GeoPointValue creates a GeoPoint value
func GeoPointValue(p GeoPoint) FieldValue {
	return FieldValue{typ: TypeGeoPoint, payload: p}
}

// ArrayValue creates an Array value. The slice is copied; the elements are
// immutable and shared.
func ArrayValue(elements []FieldValue) FieldValue {
	return FieldValue{typ: TypeArray, payload: append([]FieldValue{}, elements...)}
}

// ObjectValue creates an Object (map) value from a copy of fields
func ObjectValue(fields map[string]FieldValue) FieldValue {
	obj := &object{
		keys:   make([]string, 0, len(fields)),
		fields: make(map[string]FieldValue, len(fields)),
	}
	for k, v := range fields {
		obj.keys = append(obj.keys, k)
		obj.fields[k] = v
	}
	sort.Strings(obj.keys)
	return FieldValue{typ: TypeObject, payload: obj}
}

// EmptyObject returns an Object value with no fields
func EmptyObject() FieldValue {
	return ObjectValue(nil)
}

// Type returns the kind of the value
func (v FieldValue) Type() Type {
	return v.typ
}

// IsNull reports whether v is Null
func (v FieldValue) IsNull() bool {
	return v.typ == TypeNull
}

// IsNaN reports whether v is the Double NaN
func (v FieldValue) IsNaN() bool {
	return v.typ == TypeDouble && math.IsNaN(v.payload.(float64))
}

func (v FieldValue) expect(t Type) {
	if v.typ != t {
		panic(fmt.Sprintf("model: %s accessor called on %s value", t, v.typ))
	}
}

// AsBoolean returns the payload of a Boolean value
func (v FieldValue) AsBoolean() bool {
	v.expect(TypeBoolean)
	return v.payload.(bool)
}

// AsInteger returns the payload of an Integer value
func (v FieldValue) AsInteger() int64 {
	v.expect(TypeInteger)
	return v.payload.(int64)
}

// AsDouble returns the payload of a Double value
func (v FieldValue) AsDouble() float64 {
	v.expect(TypeDouble)
	return v.payload.(float64)
}

// AsTimestamp returns the payload of a Timestamp value
func (v FieldValue) AsTimestamp() Timestamp {
	v.expect(TypeTimestamp)
	return v.payload.(Timestamp)
}

// AsServerTimestamp returns the payload of a ServerTimestamp value
func (v FieldValue) AsServerTimestamp() ServerTimestamp {
	v.expect(TypeServerTimestamp)
	return v.payload.(ServerTimestamp)
}

// AsString returns the payload of a String value
func (v FieldValue) AsString() string {
	v.expect(TypeString)
	return v.payload.(string)
}

// AsBlob returns a copy of the payload of a Blob value
func (v FieldValue) AsBlob() []byte {
	v.expect(TypeBlob)
	return append([]byte{}, v.payload.([]byte)...)
}

// AsReference returns the payload of a Reference value
func (v FieldValue) AsReference() DocumentReference {
	v.expect(TypeReference)
	return v.payload.(DocumentReference)
}

// AsGeoPoint returns the payload of a GeoPoint value
func (v FieldValue) AsGeoPoint() GeoPoint {
	v.expect(TypeGeoPoint)
	return v.payload.(GeoPoint)
}

// AsArray returns a copy of the elements of an Array value
func (v FieldValue) AsArray() []FieldValue {
	v.expect(TypeArray)
	return append([]FieldValue{}, v.payload.([]FieldValue)...)
}

// AsObject returns a copy of the fields of an Object value
func (v FieldValue) AsObject() map[string]FieldValue {
	v.expect(TypeObject)
	obj := v.payload.(*object)
	fields := make(map[string]FieldValue, len(obj.fields))
	for k, f := range obj.fields {
		fields[k] = f
	}
	return fields
}

// Keys returns the sorted keys of an Object value
func (v FieldValue) Keys() []string {
	v.expect(TypeObject)
	return append([]string{}, v.payload.(*object).keys...)
}

// Field looks up a key in an Object value
func (v FieldValue) Field(key string) (FieldValue, bool) {
	v.expect(TypeObject)
	f, ok := v.payload.(*object).fields[key]
	return f, ok
}

// Index returns the i-th element of an Array value
func (v FieldValue) Index(i int) FieldValue {
	v.expect(TypeArray)
	return v.payload.([]FieldValue)[i]
}

// Len returns the number of elements of an Array or fields of an Object
func (v FieldValue) Len() int {
	switch v.typ {
	case TypeArray:
		return len(v.payload.([]FieldValue))
	case TypeObject:
		return len(v.payload.(*object).keys)
	default:
		panic(fmt.Sprintf("model: Len called on %s value", v.typ))
	}
}

// switchTo changes the tag to t, releasing the current payload when the
// type changes. The caller must then install a payload of type t. Same
// type is a no-op.
func (v *FieldValue) switchTo(t Type) {
	if v.typ == t {
		return
	}
	v.payload = nil
	v.typ = t
}

// CopyFrom replaces v with a deep copy of other
func (v *FieldValue) CopyFrom(other FieldValue) {
	payload := clonePayload(other)
	v.switchTo(other.typ)
	v.payload = payload
}

// Clone returns a deep copy of v that shares no storage with it
func (v FieldValue) Clone() FieldValue {
	var c FieldValue
	c.CopyFrom(v)
	return c
}

// MoveFrom transfers the payload of other into v without copying and
// resets other to Null
func (v *FieldValue) MoveFrom(other *FieldValue) {
	if v == other {
		return
	}
	v.switchTo(other.typ)
	v.payload = other.payload
	other.switchTo(TypeNull)
}

func clonePayload(v FieldValue) any {
	switch v.typ {
	case TypeBlob:
		return append([]byte{}, v.payload.([]byte)...)
	case TypeArray:
		elems := v.payload.([]FieldValue)
		cloned := make([]FieldValue, len(elems))
		for i, e := range elems {
			cloned[i] = e.Clone()
		}
		return cloned
	case TypeObject:
		obj := v.payload.(*object)
		cloned := &object{
			keys:   append([]string{}, obj.keys...),
			fields: make(map[string]FieldValue, len(obj.fields)),
		}
		for k, f := range obj.fields {
			cloned.fields[k] = f.Clone()
		}
		return cloned
	case TypeReference:
		ref := v.payload.(DocumentReference)
		ref.Key = DocumentKey{segments: ref.Key.Segments()}
		return ref
	default:
		// Scalars are held by value
		return v.payload
	}
}

// String returns a representation for debugging
func (v FieldValue) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v FieldValue) writeTo(sb *strings.Builder) {
	switch v.typ {
	case TypeNull:
		sb.WriteString("null")
	case TypeBoolean:
		sb.WriteString(strconv.FormatBool(v.payload.(bool)))
	case TypeInteger:
		sb.WriteString(strconv.FormatInt(v.payload.(int64), 10))
	case TypeDouble:
		sb.WriteString(strconv.FormatFloat(v.payload.(float64), 'g', -1, 64))
	case TypeTimestamp:
		sb.WriteString(v.payload.(Timestamp).String())
	case TypeServerTimestamp:
		sb.WriteString(v.payload.(ServerTimestamp).String())
	case TypeString:
		sb.WriteString(strconv.Quote(v.payload.(string)))
	case TypeBlob:
		fmt.Fprintf(sb, "<%x>", v.payload.([]byte))
	case TypeReference:
		sb.WriteString("ref(" + v.payload.(DocumentReference).Key.String() + ")")
	case TypeGeoPoint:
		sb.WriteString(v.payload.(GeoPoint).String())
	case TypeArray:
		sb.WriteByte('[')
		for i, e := range v.payload.([]FieldValue) {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.writeTo(sb)
		}
		sb.WriteByte(']')
	case TypeObject:
		obj := v.payload.(*object)
		sb.WriteByte('{')
		for i, k := range obj.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			obj.fields[k].writeTo(sb)
		}
		sb.WriteByte('}')
	default:
		fmt.Fprintf(sb, "<%s>", v.typ)
	}
}
