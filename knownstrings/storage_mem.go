package knownstrings

import (
	"bytes"
	"slices"
	"sync"
)

type memStorage struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
	closed  bool
}

// newMemStorage returns a transient in-memory storage.
func newMemStorage() storage {
	return &memStorage{buckets: make(map[string]*memBucket)}
}

type memBucket struct {
	items []kv // sorted by key
}

func (b *memBucket) find(key []byte) (int, bool) {
	return slices.BinarySearchFunc(b.items, key, func(e kv, k []byte) int {
		return bytes.Compare(e.key, k)
	})
}

func (s *memStorage) Get(bucket string, key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStorageClosed
	}
	b := s.buckets[bucket]
	if b == nil {
		return nil, nil
	}
	if i, ok := b.find(key); ok {
		return slices.Clone(b.items[i].value), nil
	}
	return nil, nil
}

func (s *memStorage) Put(bucket string, batch []kv) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStorageClosed
	}
	b := s.buckets[bucket]
	if b == nil {
		b = &memBucket{}
		s.buckets[bucket] = b
	}
	for _, e := range batch {
		e = kv{slices.Clone(e.key), slices.Clone(e.value)}
		if i, ok := b.find(e.key); ok {
			b.items[i] = e
		} else {
			b.items = slices.Insert(b.items, i, e)
		}
	}
	return nil
}

func (s *memStorage) ForEach(bucket string, fn func(k, v []byte) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errStorageClosed
	}
	var items []kv
	if b := s.buckets[bucket]; b != nil {
		items = slices.Clone(b.items)
	}
	s.mu.Unlock()

	for _, e := range items {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	return nil
}
