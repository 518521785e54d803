// Package cache holds small in-process caches for collaborator responses.
package cache

// Cache is a keyed store with expiring entries.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Size returns the number of entries, expired ones included until purged.
	Size() int
}

// Ensure interface conformance
var _ Cache[string] = (*LRUCache[string])(nil)
