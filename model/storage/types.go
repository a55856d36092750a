package storage

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"strings"

	"github.com/wbrown/janus-fieldvalue/model"
	"github.com/wbrown/janus-fieldvalue/model/codec"
)

// Key namespaces. Each key starts with one of these bytes.
const (
	prefixDocument byte = 0x01 // prefix + document hash -> document
	prefixField    byte = 0x02 // prefix + field path + sort key + document hash -> nil
)

// DocHash is the SHA1 of a document path, used as its fixed-size storage id
type DocHash [codec.HashSize]byte

var (
	// ErrNotObject is returned when a document's fields are not an Object value
	ErrNotObject = errors.New("document fields must be an object")
	// ErrCorruptKey indicates an index key that cannot be split
	ErrCorruptKey = errors.New("corrupt index key")
)

// Document is a stored document: its key and an Object of fields
type Document struct {
	Key    model.DocumentKey
	Fields model.FieldValue
}

// NewDocument creates a document, checking that fields is an Object
func NewDocument(key model.DocumentKey, fields model.FieldValue) (Document, error) {
	if fields.Type() != model.TypeObject {
		return Document{}, fmt.Errorf("%w: got %s", ErrNotObject, fields.Type())
	}
	return Document{Key: key, Fields: fields}, nil
}

// Hash returns the storage id of the document
func (d Document) Hash() DocHash {
	return HashKey(d.Key)
}

// ID returns the L85 form of the storage id
func (d Document) ID() string {
	return codec.EncodeHash(d.Hash())
}

// Field looks up a dotted field path such as "address.city". A key that
// itself contains a dot or backslash is written escaped: "a\\.b".
func (d Document) Field(path string) (model.FieldValue, bool) {
	return lookupField(d.Fields, path)
}

// HashKey returns the storage id of a document key
func HashKey(key model.DocumentKey) DocHash {
	return sha1.Sum([]byte(key.String()))
}

// EscapeFieldKey escapes one object key for use as a field path segment
func EscapeFieldKey(key string) string {
	if !strings.ContainsAny(key, `.\`) {
		return key
	}
	var sb strings.Builder
	for i := 0; i < len(key); i++ {
		if key[i] == '.' || key[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(key[i])
	}
	return sb.String()
}

// splitFieldPath splits a field path on unescaped dots and unescapes each
// segment
func splitFieldPath(path string) []string {
	var parts []string
	var sb strings.Builder
	for i := 0; i < len(path); i++ {
		switch c := path[i]; {
		case c == '\\' && i+1 < len(path):
			i++
			sb.WriteByte(path[i])
		case c == '.':
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	return append(parts, sb.String())
}

func lookupField(v model.FieldValue, path string) (model.FieldValue, bool) {
	for _, part := range splitFieldPath(path) {
		if v.Type() != model.TypeObject {
			return model.FieldValue{}, false
		}
		f, ok := v.Field(part)
		if !ok {
			return model.FieldValue{}, false
		}
		v = f
	}
	return v, true
}

// indexedFields lists every field path of an object, descending into
// nested objects. Arrays are indexed as whole values. Keys are escaped, so
// each path names exactly one field.
func indexedFields(v model.FieldValue, parent string, visit func(path string, value model.FieldValue)) {
	for _, k := range v.Keys() {
		f, _ := v.Field(k)
		path := EscapeFieldKey(k)
		if parent != "" {
			path = parent + "." + k
		}
		visit(path, f)
		if f.Type() == model.TypeObject {
			indexedFields(f, path, visit)
		}
	}
}

// Range bounds a field scan. Start is inclusive, End exclusive; a nil
// bound is open.
type Range struct {
	Start *model.FieldValue
	End   *model.FieldValue
}

// All is the unbounded range
var All = Range{}

// documentKey builds the primary key of a document
func documentKey(hash DocHash) []byte {
	return append([]byte{prefixDocument}, hash[:]...)
}

// fieldPrefix builds the common prefix of all index keys of one field path
func fieldPrefix(path string) []byte {
	return codecEscaped([]byte{prefixField}, path)
}

// indexKey builds the index key of one field value of a document
func indexKey(path string, value model.FieldValue, hash DocHash) []byte {
	key := codec.AppendSortKey(fieldPrefix(path), value)
	return append(key, hash[:]...)
}

// hashFromIndexKey extracts the document hash from the end of an index key
func hashFromIndexKey(key []byte) (DocHash, error) {
	var hash DocHash
	if len(key) < 1+len(hash) {
		return hash, fmt.Errorf("%w: %d bytes", ErrCorruptKey, len(key))
	}
	copy(hash[:], key[len(key)-len(hash):])
	return hash, nil
}

// codecEscaped appends s as an escaped, terminated component so that one
// field path is never a prefix of another's keys
func codecEscaped(dst []byte, s string) []byte {
	return codec.AppendSortKey(dst, model.StringValue(s))
}

// prefixEnd returns the smallest key greater than every key with prefix
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	// All bytes are 0xFF: no upper bound
	return nil
}

// encodeDocument serializes a document as path + fields
func encodeDocument(d Document) []byte {
	buf := codec.AppendValue(nil, model.StringValue(d.Key.String()))
	return codec.AppendValue(buf, d.Fields)
}

// decodeDocument is the inverse of encodeDocument
func decodeDocument(data []byte) (*Document, error) {
	path, rest, err := codec.DecodePrefix(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document path: %w", err)
	}
	if path.Type() != model.TypeString {
		return nil, fmt.Errorf("document path has type %s", path.Type())
	}
	key, err := model.InternDocumentKey(path.AsString())
	if err != nil {
		return nil, err
	}
	fields, err := codec.DecodeValue(rest)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fields of %s: %w", key, err)
	}
	doc, err := NewDocument(key, fields)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
