// Package knownstrings maps 64-bit string hashes back to the strings they
// were computed from, so that property keys and type tags can be named in
// errors and dumps.
package knownstrings

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/andreyvit/mercury/strid"
	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// ErrUnknown is returned by Get for a hash nobody has recorded.
var ErrUnknown = errors.New("unknown string hash")

const (
	stringsBucket = "strings"
	importsBucket = "imports"
)

type Options struct {
	Logger *slog.Logger

	// Timeout bounds waiting for the database file lock. Defaults to 10s.
	Timeout time.Duration

	// ReadOnly opens the database without writing to it. Strings recorded or
	// imported later are kept in memory only.
	ReadOnly bool

	IsTesting bool
}

// Set is a hash to string dictionary, loaded into memory and optionally
// persisted in a Bolt database.
type Set struct {
	mu         sync.RWMutex
	byID       map[strid.ID]string
	discovered []string

	store    storage
	readOnly bool
	logger   *slog.Logger
}

type entry struct {
	Value  string `msgpack:"v"`
	Source string `msgpack:"src,omitempty"`
}

type importRecord struct {
	Source string    `msgpack:"src"`
	Count  int       `msgpack:"n"`
	At     time.Time `msgpack:"at"`
}

// New returns an empty set that lives in memory.
func New() *Set {
	return newSet(newMemStorage(), Options{})
}

// Open opens or creates a Bolt-backed set and loads every stored string.
func Open(path string, opt Options) (*Set, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}
	bopt.ReadOnly = opt.ReadOnly
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("knownstrings: %w", err)
	}

	s := newSet(newBoltStorage(bdb), opt)
	if err := s.load(); err != nil {
		bdb.Close()
		return nil, fmt.Errorf("knownstrings: %s: %w", path, err)
	}
	return s, nil
}

func newSet(store storage, opt Options) *Set {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		byID:     make(map[strid.ID]string),
		store:    store,
		readOnly: opt.ReadOnly,
		logger:   logger,
	}
}

func (s *Set) load() error {
	return s.store.ForEach(stringsBucket, func(k, v []byte) error {
		if len(k) != 8 {
			return fmt.Errorf("invalid key %x", k)
		}
		var e entry
		if err := msgpack.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("%x: %w", k, err)
		}
		s.byID[strid.ID(binary.BigEndian.Uint64(k))] = e.Value
		return nil
	})
}

func (s *Set) Close() error {
	return s.store.Close()
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Set) Lookup(id strid.ID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	return v, ok
}

// Get is Lookup that fails with ErrUnknown.
func (s *Set) Get(id strid.ID) (string, error) {
	if v, ok := s.Lookup(id); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w %v (raw: %d)", ErrUnknown, id, uint64(id))
}

// Name returns the string for id, or the hex form of id.
func (s *Set) Name(id strid.ID) string {
	if v, ok := s.Lookup(id); ok {
		return v
	}
	return id.String()
}

// Record adds str under its hash and reports whether it was new.
func (s *Set) Record(str string) (bool, error) {
	id := strid.Of(str)
	s.mu.Lock()
	if _, ok := s.byID[id]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.byID[id] = str
	s.discovered = append(s.discovered, str)
	s.mu.Unlock()

	s.logger.Debug("knownstrings: discovered", "id", id.String(), "value", str)
	if s.readOnly {
		return true, nil
	}
	return true, s.persist([]kv{encodeEntry(id, entry{Value: str})})
}

// Discovered returns the strings added by Record since the set was opened.
func (s *Set) Discovered() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.discovered)
}

// Import reads a JSON object mapping strings to their decimal hashes and
// returns how many strings were new. The same content is only imported
// once per database.
func (s *Set) Import(r io.Reader, source string) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	fp := binary.BigEndian.AppendUint64(nil, xxhash.Sum64(data))
	if prev, err := s.store.Get(importsBucket, fp); err != nil {
		return 0, err
	} else if prev != nil {
		var rec importRecord
		if err := msgpack.Unmarshal(prev, &rec); err == nil {
			s.logger.Debug("knownstrings: already imported", "source", source, "previous", rec.Source, "at", rec.At)
		}
		return 0, nil
	}

	pairs, err := parseStrings(data)
	if err != nil {
		return 0, fmt.Errorf("knownstrings: %s: %w", source, err)
	}

	var batch []kv
	s.mu.Lock()
	for _, p := range pairs {
		if _, ok := s.byID[p.id]; ok {
			continue
		}
		if want := strid.Of(p.value); want != p.id {
			s.logger.Warn("knownstrings: hash mismatch", "source", source, "value", p.value, "id", p.id.String(), "computed", want.String())
		}
		s.byID[p.id] = p.value
		batch = append(batch, encodeEntry(p.id, entry{Value: p.value, Source: source}))
	}
	s.mu.Unlock()

	if s.readOnly {
		return len(batch), nil
	}
	if err := s.persist(batch); err != nil {
		return 0, err
	}
	rec, err := msgpack.Marshal(&importRecord{source, len(batch), time.Now().UTC()})
	if err != nil {
		return 0, err
	}
	return len(batch), s.store.Put(importsBucket, []kv{{fp, rec}})
}

func (s *Set) persist(batch []kv) error {
	if len(batch) == 0 {
		return nil
	}
	if err := s.store.Put(stringsBucket, batch); err != nil {
		return fmt.Errorf("knownstrings: %w", err)
	}
	return nil
}

func encodeEntry(id strid.ID, e entry) kv {
	v, err := msgpack.Marshal(&e)
	if err != nil {
		panic(fmt.Errorf("knownstrings: %w", err))
	}
	return kv{binary.BigEndian.AppendUint64(nil, uint64(id)), v}
}

type pair struct {
	value string
	id    strid.ID
}

func parseStrings(data []byte) ([]pair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object, found %v", tok)
	}
	var result []pair
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		num, ok := tok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%q: expected a number, found %v", key, tok)
		}
		id, err := strconv.ParseUint(num.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		result = append(result, pair{key, strid.ID(id)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return result, nil
}
