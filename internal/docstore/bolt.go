package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore is an embedded Store backed by bbolt. Each collection maps to a
// bucket; bbolt serializes writers, so transaction functions never conflict.
type BoltStore struct {
	db       *bolt.DB
	notifier *Notifier
}

// NewBoltStore opens (or creates) the database file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db at %s: %w", path, err)
	}
	return &BoltStore{db: db, notifier: NewNotifier()}, nil
}

func (s *BoltStore) Get(ctx context.Context, collection, id string, dest any) error {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return ErrDocMissing
		}
		data := b.Get([]byte(id))
		if data == nil {
			return ErrDocMissing
		}
		raw = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (s *BoltStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return b.Put([]byte(id), raw)
	})
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	s.notifier.Publish(Snapshot{Collection: collection, ID: id, Exists: true, Data: raw})
	return nil
}

func (s *BoltStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	var merged json.RawMessage
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		existing := b.Get([]byte(id))
		merged, err = mergeJSON(existing, fields)
		if err != nil {
			return fmt.Errorf("merge %s/%s: %w", collection, id, err)
		}
		return b.Put([]byte(id), merged)
	})
	if err != nil {
		return err
	}
	s.notifier.Publish(Snapshot{Collection: collection, ID: id, Exists: true, Data: merged})
	return nil
}

func (s *BoltStore) Delete(ctx context.Context, collection, id string) error {
	existed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		if b.Get([]byte(id)) != nil {
			existed = true
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if existed {
		s.notifier.Publish(Snapshot{Collection: collection, ID: id, Exists: false})
	}
	return nil
}

func (s *BoltStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	var out []Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			out = append(out, Snapshot{
				Collection: collection,
				ID:         string(k),
				Exists:     true,
				Data:       bytes.Clone(v),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// boltTx adapts a bbolt write transaction to the Tx interface and records
// writes so subscribers can be notified after commit.
type boltTx struct {
	tx      *bolt.Tx
	pending []Snapshot
}

func (t *boltTx) Get(collection, id string, dest any) error {
	b := t.tx.Bucket([]byte(collection))
	if b == nil {
		return ErrDocMissing
	}
	data := b.Get([]byte(id))
	if data == nil {
		return ErrDocMissing
	}
	return json.Unmarshal(data, dest)
}

func (t *boltTx) Set(collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	b, err := t.tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return err
	}
	if err := b.Put([]byte(id), raw); err != nil {
		return err
	}
	t.pending = append(t.pending, Snapshot{Collection: collection, ID: id, Exists: true, Data: raw})
	return nil
}

func (t *boltTx) Merge(collection, id string, fields map[string]any) error {
	b, err := t.tx.CreateBucketIfNotExists([]byte(collection))
	if err != nil {
		return err
	}
	merged, err := mergeJSON(b.Get([]byte(id)), fields)
	if err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	if err := b.Put([]byte(id), merged); err != nil {
		return err
	}
	t.pending = append(t.pending, Snapshot{Collection: collection, ID: id, Exists: true, Data: merged})
	return nil
}

func (t *boltTx) Delete(collection, id string) error {
	b := t.tx.Bucket([]byte(collection))
	if b == nil {
		return nil
	}
	if b.Get([]byte(id)) == nil {
		return nil
	}
	if err := b.Delete([]byte(id)); err != nil {
		return err
	}
	t.pending = append(t.pending, Snapshot{Collection: collection, ID: id, Exists: false})
	return nil
}

// RunTransaction executes fn inside a single bbolt update. An error from fn
// rolls back every write.
func (s *BoltStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	var committed []Snapshot
	err := s.db.Update(func(btx *bolt.Tx) error {
		adapter := &boltTx{tx: btx}
		if err := fn(adapter); err != nil {
			return err
		}
		committed = adapter.pending
		return nil
	})
	if err != nil {
		return err
	}
	for _, snap := range committed {
		s.notifier.Publish(snap)
	}
	return nil
}

// BatchDelete removes refs in sequential chunks of at most BatchLimit, one
// atomic update per chunk.
func (s *BoltStore) BatchDelete(ctx context.Context, refs []Ref) error {
	for _, chunk := range ChunkRefs(refs, BatchLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var removed []Snapshot
		err := s.db.Update(func(tx *bolt.Tx) error {
			for _, ref := range chunk {
				b := tx.Bucket([]byte(ref.Collection))
				if b == nil || b.Get([]byte(ref.ID)) == nil {
					continue
				}
				if err := b.Delete([]byte(ref.ID)); err != nil {
					return err
				}
				removed = append(removed, Snapshot{Collection: ref.Collection, ID: ref.ID, Exists: false})
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
		for _, snap := range removed {
			s.notifier.Publish(snap)
		}
	}
	return nil
}

func (s *BoltStore) Subscribe(ctx context.Context, collection, id string) (<-chan Snapshot, func(), error) {
	var initial Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		initial = Snapshot{Collection: collection, ID: id}
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		if data := b.Get([]byte(id)); data != nil {
			initial.Exists = true
			initial.Data = bytes.Clone(data)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.notifier.Subscribe(collection, id, initial)
	return ch, cancel, nil
}

func (s *BoltStore) Close() error {
	s.notifier.CloseAll()
	return s.db.Close()
}
