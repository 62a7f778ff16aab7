package knownstrings

import (
	"unsafe"

	"go.etcd.io/bbolt"
)

type boltStorage struct {
	bdb *bbolt.DB
}

func newBoltStorage(bdb *bbolt.DB) storage {
	return &boltStorage{bdb: bdb}
}

func (s *boltStorage) Get(bucket string, key []byte) ([]byte, error) {
	var result []byte
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		b := btx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			result = append([]byte(nil), v...)
		}
		return nil
	})
	return result, err
}

func (s *boltStorage) Put(bucket string, batch []kv) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		b, err := btx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		for _, e := range batch {
			if err := b.Put(e.key, e.value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStorage) ForEach(bucket string, fn func(k, v []byte) error) error {
	return s.bdb.View(func(btx *bbolt.Tx) error {
		b := btx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(fn)
	})
}

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
