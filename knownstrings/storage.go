package knownstrings

import "errors"

// errStorageClosed is returned by storage operations after Close.
var errStorageClosed = errors.New("storage closed")

// storage is a persistence backend for a Set (Bolt or in-memory).
type storage interface {
	// Get returns the value of key in bucket, or nil.
	Get(bucket string, key []byte) ([]byte, error)

	// Put stores all pairs in one transaction, creating the bucket if needed.
	Put(bucket string, batch []kv) error

	// ForEach visits every pair of bucket in key order. A missing bucket is
	// empty. k and v are only valid during the call.
	ForEach(bucket string, fn func(k, v []byte) error) error

	Close() error
}

type kv struct {
	key   []byte
	value []byte
}
