package model

import (
	"sync"
)

// KeyIntern caches parsed document keys by path
// Uses sync.Map for lock-free concurrent reads
type KeyIntern struct {
	cache sync.Map // map[string]DocumentKey
}

// Global key intern instance
var keyIntern = &KeyIntern{}

// InternDocumentKey returns a shared parsed key for path. Keys are
// immutable, so every caller may hold the same instance.
func InternDocumentKey(path string) (DocumentKey, error) {
	// Fast path: load existing (lock-free)
	if val, ok := keyIntern.cache.Load(path); ok {
		return val.(DocumentKey), nil
	}

	// Slow path: parse and store
	key, err := ParseDocumentKey(path)
	if err != nil {
		return DocumentKey{}, err
	}
	actual, _ := keyIntern.cache.LoadOrStore(path, key)
	return actual.(DocumentKey), nil
}

// StringIntern deduplicates string payloads such as object keys decoded
// from storage
type StringIntern struct {
	cache sync.Map // map[string]string
}

var stringIntern = &StringIntern{}

// InternString returns a canonical instance of s
func InternString(s string) string {
	if val, ok := stringIntern.cache.Load(s); ok {
		return val.(string)
	}
	actual, _ := stringIntern.cache.LoadOrStore(s, s)
	return actual.(string)
}

// ClearInterns clears the key and string intern caches
// Useful for testing or when memory needs to be reclaimed
func ClearInterns() {
	keyIntern = &KeyIntern{}
	stringIntern = &StringIntern{}
}
