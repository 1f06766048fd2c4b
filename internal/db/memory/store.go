// Package memory is an in-process db.Store for tests and local runs without Valkey.
// KNN is brute force over every hash under an index prefix.
package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/roomfinder/internal/db"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
	"github.com/kailas-cloud/roomfinder/internal/domain/vector"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

// Store keeps hashes, TTL keys and index definitions in maps.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	kv      map[string]kvEntry
	indexes map[string]db.IndexDefinition
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		kv:      make(map[string]kvEntry),
		indexes: make(map[string]db.IndexDefinition),
		now:     time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// HSetMulti merges fields into each hash.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		h, ok := s.hashes[item.Key]
		if !ok {
			h = make(map[string]string, len(item.Fields))
			s.hashes[item.Key] = h
		}
		for k, v := range item.Fields {
			h[k] = v
		}
	}
	return nil
}

// HGetAllMulti returns a copy of each hash; missing keys yield empty maps.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		out[i] = copyFields(s.hashes[key])
	}
	return out, nil
}

// Del removes a hash or TTL key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, key)
	delete(s.kv, key)
	return nil
}

// Scan returns hash keys matching a glob pattern in key order.
func (s *Store) Scan(_ context.Context, pattern string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.hashes {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		if ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

// Get returns a live TTL key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.kv[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return &db.Error{Op: db.OpSet, Err: fmt.Errorf("ttl must be positive")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = kvEntry{value: append([]byte(nil), value...), expiresAt: s.now().Add(ttl)}
	return nil
}

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = *def
	return nil
}

// DropIndex forgets an index definition. Hashes are kept.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether the index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// SearchKNN scores every indexed hash by cosine similarity against q.Vector.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	if !hasVectorField(&def, q.VectorField) {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("unknown vector field %q", q.VectorField)}
	}

	var entries []db.SearchEntry
	for key, h := range s.hashes {
		if !hasAnyPrefix(key, def.Prefixes) || !matchesFilter(h, q.Filters) {
			continue
		}
		blob, ok := h[q.VectorField]
		if !ok {
			continue
		}
		vec, err := db.DecodeVector(blob)
		if err != nil || len(vec) != len(q.Vector) {
			continue // a wrong-dimension hash is skipped by the server index too
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  max(0, vector.Cosine(q.Vector, vec)),
			Fields: project(h, q.ReturnFields),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// SearchAll lists hashes under the index prefixes in key order.
func (s *Store) SearchAll(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefixes := []string{q.KeyPrefix}
	if def, ok := s.indexes[q.IndexName]; ok && len(def.Prefixes) > 0 {
		prefixes = def.Prefixes
	}

	keys := make([]string, 0)
	for key := range s.hashes {
		if hasAnyPrefix(key, prefixes) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if len(keys) > q.Limit {
		keys = keys[:q.Limit]
	}

	entries := make([]db.SearchEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, db.SearchEntry{Key: key, Fields: project(s.hashes[key], q.ReturnFields)})
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func hasVectorField(def *db.IndexDefinition, name string) bool {
	for _, f := range def.VectorFields() {
		if f == name {
			return true
		}
	}
	return false
}

func hasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// matchesFilter applies TAG semantics: comma-separated, case-insensitive exact match.
func matchesFilter(h map[string]string, expr filter.Expression) bool {
	for _, cond := range expr.Must() {
		found := false
		for _, tag := range strings.Split(h[cond.Key()], ",") {
			if strings.EqualFold(strings.TrimSpace(tag), cond.Match()) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func project(fields map[string]string, keep []string) map[string]string {
	if len(keep) == 0 {
		return copyFields(fields)
	}
	out := make(map[string]string, len(keep))
	for _, k := range keep {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}

func copyFields(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
