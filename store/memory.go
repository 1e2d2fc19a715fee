package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
)

// Memory implements Store in process memory. One mutex serializes whole
// transactions, which satisfies the same isolation contract as the mongo
// implementation. Values go through a JSON round-trip so callers never share
// memory with the store.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (s *Memory) RunTransaction(ctx context.Context, fn func(tx Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTxn{store: s, staged: make(map[string]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for collection, docs := range tx.staged {
		for id, raw := range docs {
			if raw == nil {
				delete(s.collection(collection), id)
			} else {
				s.collection(collection)[id] = raw
			}
		}
	}
	return nil
}

func (s *Memory) Get(ctx context.Context, collection, id string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeRaw(s.collection(collection)[id], dest)
}

func (s *Memory) Set(ctx context.Context, collection, id string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = raw
	return nil
}

func (s *Memory) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collection(collection), id)
	return nil
}

func (s *Memory) Scan(ctx context.Context, collection string, fn func(id string, decode func(dest interface{}) error) error) error {
	// Snapshot under the lock, then visit without it so fn may call back
	// into the store.
	s.mu.Lock()
	snapshot := make(map[string][]byte, len(s.collection(collection)))
	for id, raw := range s.collection(collection) {
		snapshot[id] = raw
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		raw := snapshot[id]
		err := fn(id, func(dest interface{}) error { return decodeRaw(raw, dest) })
		if errors.Is(err, ErrStopScan) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Memory) collection(name string) map[string][]byte {
	if s.data[name] == nil {
		s.data[name] = make(map[string][]byte)
	}
	return s.data[name]
}

func decodeRaw(raw []byte, dest interface{}) error {
	if raw == nil {
		return ErrNoDocument
	}
	return json.Unmarshal(raw, dest)
}

// memoryTxn stages writes until the transaction body succeeds. A nil staged
// value marks a delete.
type memoryTxn struct {
	store  *Memory
	staged map[string]map[string][]byte
}

func (t *memoryTxn) Get(collection, id string, dest interface{}) error {
	if docs, ok := t.staged[collection]; ok {
		if raw, ok := docs[id]; ok {
			return decodeRaw(raw, dest)
		}
	}
	return decodeRaw(t.store.collection(collection)[id], dest)
}

func (t *memoryTxn) Set(collection, id string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	t.stage(collection)[id] = raw
	return nil
}

func (t *memoryTxn) Delete(collection, id string) error {
	t.stage(collection)[id] = nil
	return nil
}

func (t *memoryTxn) Scan(collection string, fn func(id string, decode func(dest interface{}) error) error) error {
	// Merge committed documents with staged writes; the transaction lock is
	// already held.
	merged := make(map[string][]byte)
	for id, raw := range t.store.collection(collection) {
		merged[id] = raw
	}
	for id, raw := range t.staged[collection] {
		if raw == nil {
			delete(merged, id)
		} else {
			merged[id] = raw
		}
	}

	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		raw := merged[id]
		err := fn(id, func(dest interface{}) error { return decodeRaw(raw, dest) })
		if errors.Is(err, ErrStopScan) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *memoryTxn) stage(collection string) map[string][]byte {
	if t.staged[collection] == nil {
		t.staged[collection] = make(map[string][]byte)
	}
	return t.staged[collection]
}
