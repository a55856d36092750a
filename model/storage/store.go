package storage

import (
	"github.com/wbrown/janus-fieldvalue/model"
)

// Store persists documents and keeps every field path indexed in value order
type Store interface {
	// Put writes a document, replacing any previous version and its index entries
	Put(doc Document) error

	// Get returns the document stored under key, or nil if there is none
	Get(key model.DocumentKey) (*Document, error)

	// Delete removes a document and its index entries
	Delete(key model.DocumentKey) error

	// ScanField iterates documents that have the field, ordered by the
	// field's value and then by storage id
	ScanField(field string, r Range) (Iterator, error)

	// CountField counts documents whose field falls in the range
	CountField(field string, r Range) (int64, error)

	// BeginTx starts a read-write transaction
	BeginTx() (StoreTx, error)

	// Close releases the underlying database
	Close() error
}

// StoreTx batches writes into one atomic commit
type StoreTx interface {
	Put(doc Document) error
	Delete(key model.DocumentKey) error
	Commit() error
	Rollback() error
}

// Iterator walks the result of a field scan
type Iterator interface {
	// Next advances to the next document, returning false when done
	Next() bool

	// Document returns the current document
	Document() (*Document, error)

	// Close releases the iterator's transaction
	Close() error
}
