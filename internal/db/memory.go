package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory. It backs local development
// runs (DOCSTORE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Upsert(ctx context.Context, collection, id string, doc interface{}) error {
	m, err := toMap(doc, id)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.data[collection]
	if !ok {
		coll = make(map[string][]byte)
		s.data[collection] = coll
	}
	coll[id] = raw
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[collection][id]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query, out interface{}) error {
	type row struct {
		raw    []byte
		fields map[string]interface{}
	}

	s.mu.RLock()
	rows := make([]row, 0, len(s.data[collection]))
	for id, raw := range s.data[collection] {
		fields := make(map[string]interface{})
		if err := json.Unmarshal(raw, &fields); err != nil {
			s.mu.RUnlock()
			return fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
		}
		if matches(fields, q) {
			rows = append(rows, row{raw: raw, fields: fields})
		}
	}
	s.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].fields[q.OrderBy], rows[j].fields[q.OrderBy]
			if q.Descending {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	list := make([]json.RawMessage, len(rows))
	for i, r := range rows {
		list[i] = r.raw
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func matches(fields map[string]interface{}, q Query) bool {
	for _, f := range q.Where {
		if fmt.Sprint(fields[f.Field]) != f.Value {
			return false
		}
	}
	if len(q.AnyOf) == 0 {
		return true
	}
	for _, f := range q.AnyOf {
		if fmt.Sprint(fields[f.Field]) == f.Value {
			return true
		}
	}
	return false
}

// lessValue orders JSON scalars: numbers numerically, RFC 3339 timestamps
// chronologically, everything else as strings.
func lessValue(a, b interface{}) bool {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return fa < fb
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	ta, errA := time.Parse(time.RFC3339Nano, sa)
	tb, errB := time.Parse(time.RFC3339Nano, sb)
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return sa < sb
}
