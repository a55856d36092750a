package storage

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"

	"github.com/wbrown/janus-fieldvalue/model"
	"github.com/wbrown/janus-fieldvalue/model/annotations"
	"github.com/wbrown/janus-fieldvalue/model/codec"
)

// Options configures a BadgerStore
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	MemTableSize   int64
	BlockCacheSize int64
	IndexCacheSize int64
	NumCompactors  int

	// Logger receives badger's own log output. Nil discards it.
	Logger *log.Entry

	// Handler receives an annotation event per store operation
	Handler annotations.Handler
}

// DefaultOptions returns the tuning used for read-heavy workloads
func DefaultOptions(path string) Options {
	return Options{
		Path:           path,
		MemTableSize:   128 << 20, // 128MB memtables (default 64MB)
		BlockCacheSize: 256 << 20, // 256MB block cache for faster reads
		IndexCacheSize: 100 << 20,
		NumCompactors:  4,
		Logger:         log.WithField("component", "badger"),
	}
}

// BadgerStore implements Store using BadgerDB
type BadgerStore struct {
	db          *badger.DB
	log         *log.Entry
	annotations *annotations.Collector
}

// NewBadgerStore opens a BadgerDB-backed store
func NewBadgerStore(o Options) (*BadgerStore, error) {
	opts := badger.DefaultOptions(o.Path)
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	if o.Logger != nil {
		opts.Logger = o.Logger
	}

	if o.MemTableSize > 0 {
		opts.MemTableSize = o.MemTableSize
	}
	if o.BlockCacheSize > 0 {
		opts.BlockCacheSize = o.BlockCacheSize
	}
	if o.IndexCacheSize > 0 {
		opts.IndexCacheSize = o.IndexCacheSize
	}
	if o.NumCompactors > 0 {
		opts.NumCompactors = o.NumCompactors
	}
	opts.DetectConflicts = false
	opts.ValueThreshold = 1 << 10 // 1KB - store small documents in LSM tree

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	entry := log.WithField("store", o.Path)
	if o.InMemory {
		entry = log.WithField("store", "memory")
	}
	entry.Debug("opened document store")

	return &BadgerStore{
		db:          db,
		log:         entry,
		annotations: annotations.NewForwarder(o.Handler),
	}, nil
}

// Put writes a document and its field index entries
func (s *BadgerStore) Put(doc Document) error {
	return s.backendError(s.db.Update(func(txn *badger.Txn) error {
		return s.putDocument(txn, doc)
	}))
}

// backendError reports a failed operation as an annotation and returns it
func (s *BadgerStore) backendError(err error) error {
	if err != nil && s.annotations.Enabled() {
		s.annotations.Add(annotations.Event{
			Name:  annotations.ErrorBackend,
			Start: time.Now(),
			End:   time.Now(),
			Data:  map[string]any{"error": err.Error()},
		})
	}
	return err
}

func (s *BadgerStore) putDocument(txn *badger.Txn, doc Document) error {
	start := time.Now()
	if doc.Fields.Type() != model.TypeObject {
		return fmt.Errorf("put %s: %w", doc.Key, ErrNotObject)
	}
	hash := doc.Hash()

	// Drop index entries of the version being replaced
	if err := s.unindex(txn, hash); err != nil {
		return err
	}

	if err := txn.Set(documentKey(hash), encodeDocument(doc)); err != nil {
		return fmt.Errorf("failed to write document %s: %w", doc.Key, err)
	}

	var err error
	indexed := 0
	indexedFields(doc.Fields, "", func(path string, value model.FieldValue) {
		if err != nil {
			return
		}
		if e := txn.Set(indexKey(path, value, hash), nil); e != nil {
			err = fmt.Errorf("failed to index %s.%s: %w", doc.Key, path, e)
			return
		}
		indexed++
	})
	if err != nil {
		return err
	}

	s.log.WithFields(log.Fields{"doc": doc.Key.String(), "id": doc.ID()}).Debug("put document")
	s.annotations.AddTiming(annotations.StorePut, start, map[string]any{
		"doc":         doc.Key.String(),
		"index.count": indexed,
	})
	return nil
}

// unindex removes the index entries of the stored document with hash, if any
func (s *BadgerStore) unindex(txn *badger.Txn, hash DocHash) error {
	old, err := s.getByHash(txn, hash)
	if err != nil || old == nil {
		return err
	}
	var derr error
	indexedFields(old.Fields, "", func(path string, value model.FieldValue) {
		if derr != nil {
			return
		}
		if e := txn.Delete(indexKey(path, value, hash)); e != nil && e != badger.ErrKeyNotFound {
			derr = fmt.Errorf("failed to delete index %s.%s: %w", old.Key, path, e)
		}
	})
	return derr
}

// Get retrieves a document by key
func (s *BadgerStore) Get(key model.DocumentKey) (*Document, error) {
	start := time.Now()
	var result *Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		result, err = s.getByHash(txn, HashKey(key))
		return err
	})
	if err != nil {
		return nil, s.backendError(err)
	}
	s.annotations.AddTiming(annotations.StoreGet, start, map[string]any{
		"doc":   key.String(),
		"found": result != nil,
	})
	return result, nil
}

func (s *BadgerStore) getByHash(txn *badger.Txn, hash DocHash) (*Document, error) {
	item, err := txn.Get(documentKey(hash))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result *Document
	err = item.Value(func(val []byte) error {
		result, err = decodeDocument(val)
		return err
	})
	return result, err
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *BadgerStore) Delete(key model.DocumentKey) error {
	return s.backendError(s.db.Update(func(txn *badger.Txn) error {
		return s.deleteDocument(txn, key)
	}))
}

func (s *BadgerStore) deleteDocument(txn *badger.Txn, key model.DocumentKey) error {
	start := time.Now()
	hash := HashKey(key)
	if err := s.unindex(txn, hash); err != nil {
		return err
	}
	if err := txn.Delete(documentKey(hash)); err != nil && err != badger.ErrKeyNotFound {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	s.log.WithField("doc", key.String()).Debug("deleted document")
	s.annotations.AddTiming(annotations.StoreDelete, start, map[string]any{"doc": key.String()})
	return nil
}

// scanBounds returns the key range of a field scan
func scanBounds(field string, r Range) (start, end []byte) {
	prefix := fieldPrefix(field)
	start = prefix
	if r.Start != nil {
		start = codec.AppendSortKey(append([]byte{}, prefix...), *r.Start)
	}
	if r.End != nil {
		end = codec.AppendSortKey(append([]byte{}, prefix...), *r.End)
	} else {
		end = prefixEnd(prefix)
	}
	return start, end
}

// ScanField returns an iterator over documents ordered by one field
func (s *BadgerStore) ScanField(field string, r Range) (Iterator, error) {
	start, end := scanBounds(field, r)
	txn := s.db.NewTransaction(false)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false // index values are empty
	it := txn.NewIterator(opts)

	return &BadgerIterator{
		txn:     txn,
		it:      it,
		store:   s,
		field:   field,
		start:   start,
		end:     end,
		started: time.Now(),
	}, nil
}

// CountField counts index keys in a range without fetching documents
func (s *BadgerStore) CountField(field string, r Range) (int64, error) {
	began := time.Now()
	start, end := scanBounds(field, r)
	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.PrefetchSize = 10000

	it := txn.NewIterator(opts)
	defer it.Close()

	var count int64
	for it.Seek(start); it.Valid(); it.Next() {
		if end != nil && bytes.Compare(it.Item().Key(), end) >= 0 {
			break
		}
		count++
	}
	s.annotations.AddTiming(annotations.StoreCount, began, map[string]any{
		"field": field,
		"count": count,
	})
	return count, nil
}

// BeginTx starts a new transaction
func (s *BadgerStore) BeginTx() (StoreTx, error) {
	return &BadgerTx{store: s, txn: s.db.NewTransaction(true)}, nil
}

// Close closes the store
func (s *BadgerStore) Close() error {
	s.log.Debug("closing document store")
	return s.db.Close()
}

// BadgerIterator implements Iterator for BadgerDB
type BadgerIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	store   *BadgerStore
	field   string
	start   []byte
	end     []byte
	valid   bool
	count   int
	started time.Time
}

// Next advances the iterator
func (i *BadgerIterator) Next() bool {
	if !i.valid {
		// First call - seek to start
		i.it.Seek(i.start)
		i.valid = true
	} else {
		i.it.Next()
	}

	if !i.it.Valid() {
		return false
	}
	if i.end != nil && bytes.Compare(i.it.Item().Key(), i.end) >= 0 {
		return false
	}
	i.count++
	return true
}

// Document loads the document the current index entry points at
func (i *BadgerIterator) Document() (*Document, error) {
	hash, err := hashFromIndexKey(i.it.Item().Key())
	if err != nil {
		return nil, err
	}
	doc, err := i.store.getByHash(i.txn, hash)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("index entry for missing document %s", codec.EncodeHash(hash))
	}
	return doc, nil
}

// Close closes the iterator
func (i *BadgerIterator) Close() error {
	i.it.Close()
	i.txn.Discard()
	i.store.annotations.AddTiming(annotations.StoreScan, i.started, map[string]any{
		"field":     i.field,
		"doc.count": i.count,
	})
	return nil
}

// BadgerTx implements StoreTx for BadgerDB
type BadgerTx struct {
	store *BadgerStore
	txn   *badger.Txn
}

// Put writes a document within the transaction
func (t *BadgerTx) Put(doc Document) error {
	return t.store.putDocument(t.txn, doc)
}

// Delete removes a document within the transaction
func (t *BadgerTx) Delete(key model.DocumentKey) error {
	return t.store.deleteDocument(t.txn, key)
}

// Commit commits the transaction
func (t *BadgerTx) Commit() error {
	return t.txn.Commit()
}

// Rollback discards the transaction
func (t *BadgerTx) Rollback() error {
	t.txn.Discard()
	return nil
}
