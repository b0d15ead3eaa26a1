package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. It backs development runs and the
// service tests. A single mutex serializes transactions, so transaction
// functions never observe conflicts here.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]map[string]json.RawMessage
	notifier *Notifier
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string]map[string]json.RawMessage),
		notifier: NewNotifier(),
	}
}

func (s *MemoryStore) get(collection, id string) (json.RawMessage, bool) {
	docs, ok := s.data[collection]
	if !ok {
		return nil, false
	}
	raw, ok := docs[id]
	return raw, ok
}

func (s *MemoryStore) put(collection, id string, raw json.RawMessage) {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	s.data[collection][id] = raw
	s.notifier.Publish(Snapshot{Collection: collection, ID: id, Exists: true, Data: raw})
}

func (s *MemoryStore) remove(collection, id string) {
	if docs, ok := s.data[collection]; ok {
		if _, existed := docs[id]; existed {
			delete(docs, id)
			s.notifier.Publish(Snapshot{Collection: collection, ID: id, Exists: false})
		}
	}
}

// Get unmarshals the document into dest, or returns ErrDocMissing.
func (s *MemoryStore) Get(ctx context.Context, collection, id string, dest any) error {
	s.mu.Lock()
	raw, ok := s.get(collection, id)
	s.mu.Unlock()
	if !ok {
		return ErrDocMissing
	}
	return json.Unmarshal(raw, dest)
}

// Set writes the full document, creating it if absent.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, raw)
	return nil
}

// Merge overlays fields onto the document's top level, creating it if absent.
func (s *MemoryStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, _ := s.get(collection, id)
	merged, err := mergeJSON(existing, fields)
	if err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	s.put(collection, id, merged)
	return nil
}

// Delete removes the document. Deleting an absent document is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(collection, id)
	return nil
}

// List returns a snapshot of every document in the collection, ordered by ID.
func (s *MemoryStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.data[collection]
	out := make([]Snapshot, 0, len(docs))
	for id, raw := range docs {
		out = append(out, Snapshot{Collection: collection, ID: id, Exists: true, Data: raw})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memoryTx stages writes against the locked store and applies them on commit.
type memoryTx struct {
	store   *MemoryStore
	writes  map[string]map[string]json.RawMessage // staged value; nil means delete
	ordered []Ref
}

func (t *memoryTx) staged(collection, id string) (json.RawMessage, bool) {
	if docs, ok := t.writes[collection]; ok {
		raw, ok := docs[id]
		return raw, ok
	}
	return nil, false
}

func (t *memoryTx) stage(collection, id string, raw json.RawMessage) {
	if t.writes[collection] == nil {
		t.writes[collection] = make(map[string]json.RawMessage)
	}
	if _, seen := t.writes[collection][id]; !seen {
		t.ordered = append(t.ordered, Ref{Collection: collection, ID: id})
	}
	t.writes[collection][id] = raw
}

func (t *memoryTx) Get(collection, id string, dest any) error {
	if raw, ok := t.staged(collection, id); ok {
		if raw == nil {
			return ErrDocMissing
		}
		return json.Unmarshal(raw, dest)
	}
	raw, ok := t.store.get(collection, id)
	if !ok {
		return ErrDocMissing
	}
	return json.Unmarshal(raw, dest)
}

func (t *memoryTx) Set(collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	t.stage(collection, id, raw)
	return nil
}

func (t *memoryTx) Merge(collection, id string, fields map[string]any) error {
	existing, ok := t.staged(collection, id)
	if !ok {
		existing, _ = t.store.get(collection, id)
	}
	merged, err := mergeJSON(existing, fields)
	if err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	t.stage(collection, id, merged)
	return nil
}

func (t *memoryTx) Delete(collection, id string) error {
	t.stage(collection, id, nil)
	return nil
}

// RunTransaction executes fn atomically: staged writes apply only when fn
// returns nil.
func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memoryTx{store: s, writes: make(map[string]map[string]json.RawMessage)}
	if err := fn(tx); err != nil {
		return err
	}
	for _, ref := range tx.ordered {
		raw := tx.writes[ref.Collection][ref.ID]
		if raw == nil {
			s.remove(ref.Collection, ref.ID)
		} else {
			s.put(ref.Collection, ref.ID, raw)
		}
	}
	return nil
}

// BatchDelete removes refs in sequential chunks of at most BatchLimit.
func (s *MemoryStore) BatchDelete(ctx context.Context, refs []Ref) error {
	for _, chunk := range ChunkRefs(refs, BatchLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		for _, ref := range chunk {
			s.remove(ref.Collection, ref.ID)
		}
		s.mu.Unlock()
	}
	return nil
}

// Subscribe delivers the current snapshot immediately, then every change.
func (s *MemoryStore) Subscribe(ctx context.Context, collection, id string) (<-chan Snapshot, func(), error) {
	s.mu.Lock()
	raw, ok := s.get(collection, id)
	initial := Snapshot{Collection: collection, ID: id, Exists: ok, Data: raw}
	ch, cancel := s.notifier.Subscribe(collection, id, initial)
	s.mu.Unlock()
	return ch, cancel, nil
}

// Close drops all subscribers.
func (s *MemoryStore) Close() error {
	s.notifier.CloseAll()
	return nil
}
