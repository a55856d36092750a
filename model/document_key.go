package model

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultDatabase is the database name used when none is given
const DefaultDatabase = "(default)"

// ErrInvalidPath is returned for malformed document paths and resource names
var ErrInvalidPath = errors.New("invalid document path")

// DatabaseID identifies a database within a project
type DatabaseID struct {
	ProjectID  string
	DatabaseID string
}

// NewDatabaseID creates a database id, defaulting an empty database name
func NewDatabaseID(project, database string) DatabaseID {
	if database == "" {
		database = DefaultDatabase
	}
	return DatabaseID{ProjectID: project, DatabaseID: database}
}

// Compare orders by project, then database
func (d DatabaseID) Compare(other DatabaseID) int {
	if c := strings.Compare(d.ProjectID, other.ProjectID); c != 0 {
		return c
	}
	return strings.Compare(d.DatabaseID, other.DatabaseID)
}

// String returns the resource name of the database
func (d DatabaseID) String() string {
	return "projects/" + d.ProjectID + "/databases/" + d.DatabaseID
}

// DocumentKey is the slash-separated path of a document relative to its
// database: alternating collection ids and document ids, so it always has
// an even, non-zero number of segments.
type DocumentKey struct {
	segments []string
}

// NewDocumentKey creates a key from its path segments
func NewDocumentKey(segments ...string) (DocumentKey, error) {
	if len(segments) == 0 || len(segments)%2 != 0 {
		return DocumentKey{}, fmt.Errorf("%w: %q has %d segments, want an even number",
			ErrInvalidPath, strings.Join(segments, "/"), len(segments))
	}
	for _, s := range segments {
		if s == "" || strings.Contains(s, "/") {
			return DocumentKey{}, fmt.Errorf("%w: bad segment %q in %q", ErrInvalidPath, s, strings.Join(segments, "/"))
		}
	}
	return DocumentKey{segments: append([]string(nil), segments...)}, nil
}

// StoredDocumentKey rebuilds a key from segments read back from storage.
// Segments are not validated, so any key a DocumentReference can hold,
// including the zero key, survives an encode and decode.
func StoredDocumentKey(segments ...string) DocumentKey {
	return DocumentKey{segments: append([]string(nil), segments...)}
}

// ParseDocumentKey parses a path like "rooms/eros/messages/1"
func ParseDocumentKey(path string) (DocumentKey, error) {
	return NewDocumentKey(strings.Split(strings.Trim(path, "/"), "/")...)
}

// MustDocumentKey is ParseDocumentKey that panics on error
func MustDocumentKey(path string) DocumentKey {
	key, err := ParseDocumentKey(path)
	if err != nil {
		panic(err)
	}
	return key
}

// Segments returns a copy of the path segments
func (k DocumentKey) Segments() []string {
	return append([]string(nil), k.segments...)
}

// CollectionID returns the id of the collection containing the document
func (k DocumentKey) CollectionID() string {
	if len(k.segments) < 2 {
		return ""
	}
	return k.segments[len(k.segments)-2]
}

// ID returns the last path segment
func (k DocumentKey) ID() string {
	if len(k.segments) == 0 {
		return ""
	}
	return k.segments[len(k.segments)-1]
}

// Compare orders keys segment by segment; a prefix sorts first
func (k DocumentKey) Compare(other DocumentKey) int {
	n := min(len(k.segments), len(other.segments))
	for i := 0; i < n; i++ {
		if c := strings.Compare(k.segments[i], other.segments[i]); c != 0 {
			return c
		}
	}
	return compareInt64s(int64(len(k.segments)), int64(len(other.segments)))
}

// String returns the slash-separated path
func (k DocumentKey) String() string {
	return strings.Join(k.segments, "/")
}

// DocumentReference identifies a document in a specific database
type DocumentReference struct {
	Database DatabaseID
	Key      DocumentKey
}

// ParseResourceName parses
// "projects/{project}/databases/{database}/documents/{path}"
func ParseResourceName(name string) (DocumentReference, error) {
	parts := strings.Split(strings.Trim(name, "/"), "/")
	if len(parts) < 7 || parts[0] != "projects" || parts[2] != "databases" || parts[4] != "documents" {
		return DocumentReference{}, fmt.Errorf("%w: %q is not a document resource name", ErrInvalidPath, name)
	}
	key, err := NewDocumentKey(parts[5:]...)
	if err != nil {
		return DocumentReference{}, err
	}
	return DocumentReference{Database: NewDatabaseID(parts[1], parts[3]), Key: key}, nil
}

// Compare orders by database, then key
func (r DocumentReference) Compare(other DocumentReference) int {
	if c := r.Database.Compare(other.Database); c != 0 {
		return c
	}
	return r.Key.Compare(other.Key)
}

// ResourceName returns the fully qualified name of the document
func (r DocumentReference) ResourceName() string {
	return r.Database.String() + "/documents/" + r.Key.String()
}

// String returns the resource name
func (r DocumentReference) String() string {
	return r.ResourceName()
}
