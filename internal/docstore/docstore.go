// Package docstore defines the transactional document-store boundary the
// scheduling core depends on, plus the in-process backends. Documents are
// JSON values addressed by (collection, id).
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// BatchLimit is the hard ceiling on operations per delete batch imposed by
// the backing store. BatchDelete implementations chunk at this size.
const BatchLimit = 450

var (
	// ErrDocMissing is returned by Get when the document does not exist.
	ErrDocMissing = errors.New("document does not exist")
	// ErrConflict is returned when a transaction could not be committed
	// after the store's internal retries.
	ErrConflict = errors.New("transaction conflict")
	// ErrUnavailable is returned by the noop store when no document store
	// is configured.
	ErrUnavailable = errors.New("document store not configured")
)

// Ref addresses one document.
type Ref struct {
	Collection string
	ID         string
}

// Snapshot is the state of one document at a point in time, as delivered to
// subscribers and collection listings.
type Snapshot struct {
	Collection string
	ID         string
	Exists     bool
	Data       json.RawMessage
}

// Decode unmarshals the snapshot payload into dest. Returns ErrDocMissing
// for snapshots of deleted or never-created documents.
func (s Snapshot) Decode(dest any) error {
	if !s.Exists {
		return ErrDocMissing
	}
	return json.Unmarshal(s.Data, dest)
}

// Tx is the handle passed to a transaction function. Reads see committed
// state plus the transaction's own writes.
type Tx interface {
	Get(collection, id string, dest any) error
	Set(collection, id string, doc any) error
	Merge(collection, id string, fields map[string]any) error
	Delete(collection, id string) error
}

// Store is the document-store contract. RunTransaction executes fn atomically
// and retries on conflict, so fn must be safe to invoke more than once.
// BatchDelete deletes refs in sequential chunks of at most BatchLimit;
// deleting an absent document is a no-op. Merge writes only the given
// top-level fields, leaving the rest of the document untouched.
type Store interface {
	Get(ctx context.Context, collection, id string, dest any) error
	Set(ctx context.Context, collection, id string, doc any) error
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Snapshot, error)
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	BatchDelete(ctx context.Context, refs []Ref) error
	Subscribe(ctx context.Context, collection, id string) (<-chan Snapshot, func(), error)
	Close() error
}

// ChunkRefs splits refs into consecutive chunks of at most size documents.
func ChunkRefs(refs []Ref, size int) [][]Ref {
	if size <= 0 || len(refs) == 0 {
		return nil
	}
	chunks := make([][]Ref, 0, (len(refs)+size-1)/size)
	for start := 0; start < len(refs); start += size {
		end := start + size
		if end > len(refs) {
			end = len(refs)
		}
		chunks = append(chunks, refs[start:end])
	}
	return chunks
}

// mergeJSON overlays fields onto the top level of an existing JSON document.
// A nil existing payload starts from an empty document.
func mergeJSON(existing json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	doc := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	return json.Marshal(doc)
}
