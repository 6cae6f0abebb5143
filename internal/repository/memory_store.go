package repository

import (
	"context"
	"reflect"
	"sync"

	"rewardhub/internal/model"
)

// MemoryStore is a RecordStore held in process memory. Rows keep insertion
// order.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]model.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]model.Record)}
}

func (s *MemoryStore) Select(_ context.Context, collection string, filter model.Filter) ([]model.Record, error) {
	if _, err := lookup(collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Record, 0, len(s.rows[collection]))
	for _, r := range s.rows[collection] {
		if matches(r, filter) {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, collection string, rec model.Record) error {
	t, err := lookup(collection)
	if err != nil {
		return err
	}
	key, ok := rec[t.primaryKey]
	if !ok {
		return ErrMissingPrimaryKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows[collection] {
		if equalValue(r[t.primaryKey], key) {
			return ErrDuplicateKey
		}
	}
	s.rows[collection] = append(s.rows[collection], cloneRecord(rec))
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection string, match model.Filter, patch model.Record) (int64, error) {
	if _, err := lookup(collection); err != nil {
		return 0, err
	}
	if len(match) == 0 {
		return 0, ErrMissingMatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, r := range s.rows[collection] {
		if !matches(r, match) {
			continue
		}
		for k, v := range patch {
			r[k] = v
		}
		n++
	}

	if n == 0 && isVersioned(match) {
		return 0, ErrVersionConflict
	}
	return n, nil
}

func (s *MemoryStore) UpdateAll(_ context.Context, collection string, patch model.Record) (int64, error) {
	if _, err := lookup(collection); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rows[collection] {
		for k, v := range patch {
			r[k] = v
		}
	}
	return int64(len(s.rows[collection])), nil
}

func (s *MemoryStore) Delete(_ context.Context, collection string, match model.Filter) error {
	if _, err := lookup(collection); err != nil {
		return err
	}
	if len(match) == 0 {
		return ErrMissingMatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[collection][:0]
	for _, r := range s.rows[collection] {
		if !matches(r, match) {
			kept = append(kept, r)
		}
	}
	s.rows[collection] = kept
	return nil
}

func matches(r model.Record, filter model.Filter) bool {
	for k, want := range filter {
		if !equalValue(r[k], want) {
			return false
		}
	}
	return true
}

// equalValue compares column values, treating every integer type alike.
func equalValue(a, b interface{}) bool {
	if x, ok := asInt64(a); ok {
		if y, ok := asInt64(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func asInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
	}
	return 0, false
}

func cloneRecord(r model.Record) model.Record {
	out := make(model.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
