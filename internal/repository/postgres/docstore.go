package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"groupsched/internal/docstore"
)

const serializationFailure = "40001"

// txRetries is how many times a serializable transaction is re-run on a
// serialization failure before giving up with ErrConflict.
const txRetries = 3

// DocStore implements docstore.Store on Postgres. Documents live in a single
// docs table keyed by (collection, id) with a jsonb payload:
//
//	CREATE TABLE docs (
//	    collection TEXT NOT NULL,
//	    id         TEXT NOT NULL,
//	    data       JSONB NOT NULL,
//	    PRIMARY KEY (collection, id)
//	);
type DocStore struct {
	DB       *sql.DB
	notifier *docstore.Notifier
}

// NewDocStore returns a DocStore over the given connection pool.
func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{DB: db, notifier: docstore.NewNotifier()}
}

func (s *DocStore) Get(ctx context.Context, collection, id string, dest any) error {
	query := `SELECT data FROM docs WHERE collection = $1 AND id = $2`
	var raw []byte
	err := s.DB.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.ErrDocMissing
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (s *DocStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	query := `
		INSERT INTO docs (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := s.DB.ExecContext(ctx, query, collection, id, raw); err != nil {
		return err
	}
	s.notifier.Publish(docstore.Snapshot{Collection: collection, ID: id, Exists: true, Data: raw})
	return nil
}

func (s *DocStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	// jsonb || overlays top-level keys, matching the merge-write contract.
	query := `
		INSERT INTO docs (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = docs.data || EXCLUDED.data
		RETURNING data
	`
	var merged []byte
	if err := s.DB.QueryRowContext(ctx, query, collection, id, raw).Scan(&merged); err != nil {
		return err
	}
	s.notifier.Publish(docstore.Snapshot{Collection: collection, ID: id, Exists: true, Data: merged})
	return nil
}

func (s *DocStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM docs WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.notifier.Publish(docstore.Snapshot{Collection: collection, ID: id, Exists: false})
	}
	return nil
}

func (s *DocStore) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	query := `SELECT id, data FROM docs WHERE collection = $1 ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []docstore.Snapshot
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		out = append(out, docstore.Snapshot{Collection: collection, ID: id, Exists: true, Data: raw})
	}
	return out, rows.Err()
}

// sqlTx adapts one database transaction to docstore.Tx, buffering snapshots
// for publication after commit.
type sqlTx struct {
	tx      *sql.Tx
	ctx     context.Context
	pending []docstore.Snapshot
}

func (t *sqlTx) Get(collection, id string, dest any) error {
	var raw []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT data FROM docs WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.ErrDocMissing
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (t *sqlTx) Set(collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	query := `
		INSERT INTO docs (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data
	`
	if _, err := t.tx.ExecContext(t.ctx, query, collection, id, raw); err != nil {
		return err
	}
	t.pending = append(t.pending, docstore.Snapshot{Collection: collection, ID: id, Exists: true, Data: raw})
	return nil
}

func (t *sqlTx) Merge(collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	query := `
		INSERT INTO docs (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = docs.data || EXCLUDED.data
		RETURNING data
	`
	var merged []byte
	if err := t.tx.QueryRowContext(t.ctx, query, collection, id, raw).Scan(&merged); err != nil {
		return err
	}
	t.pending = append(t.pending, docstore.Snapshot{Collection: collection, ID: id, Exists: true, Data: merged})
	return nil
}

func (t *sqlTx) Delete(collection, id string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM docs WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		t.pending = append(t.pending, docstore.Snapshot{Collection: collection, ID: id, Exists: false})
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == serializationFailure
}

// RunTransaction runs fn in a serializable transaction, re-running it on
// serialization failures up to txRetries times.
func (s *DocStore) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= txRetries; attempt++ {
		committed, err := s.runOnce(ctx, fn)
		if err == nil {
			for _, snap := range committed {
				s.notifier.Publish(snap)
			}
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", docstore.ErrConflict, lastErr)
}

func (s *DocStore) runOnce(ctx context.Context, fn func(tx docstore.Tx) error) ([]docstore.Snapshot, error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	adapter := &sqlTx{tx: tx, ctx: ctx}
	if err := fn(adapter); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return adapter.pending, nil
}

// BatchDelete removes refs in sequential chunks of at most BatchLimit, one
// transaction per chunk. Later chunks are not attempted after a failure;
// earlier deletions stand.
func (s *DocStore) BatchDelete(ctx context.Context, refs []docstore.Ref) error {
	for _, chunk := range docstore.ChunkRefs(refs, docstore.BatchLimit) {
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, ref := range chunk {
			if _, err := tx.ExecContext(ctx, `DELETE FROM docs WHERE collection = $1 AND id = $2`, ref.Collection, ref.ID); err != nil {
				tx.Rollback()
				return fmt.Errorf("delete %s/%s: %w", ref.Collection, ref.ID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit delete batch: %w", err)
		}
		for _, ref := range chunk {
			s.notifier.Publish(docstore.Snapshot{Collection: ref.Collection, ID: ref.ID, Exists: false})
		}
	}
	return nil
}

// Subscribe delivers the current row immediately, then every change made
// through this store instance. Changes written by other processes are not
// observed; the deployment runs a single writer per campaign document.
func (s *DocStore) Subscribe(ctx context.Context, collection, id string) (<-chan docstore.Snapshot, func(), error) {
	initial := docstore.Snapshot{Collection: collection, ID: id}
	var raw []byte
	err := s.DB.QueryRowContext(ctx, `SELECT data FROM docs WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	switch {
	case err == nil:
		initial.Exists = true
		initial.Data = raw
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, nil, err
	}
	ch, cancel := s.notifier.Subscribe(collection, id, initial)
	return ch, cancel, nil
}

func (s *DocStore) Close() error {
	s.notifier.CloseAll()
	return s.DB.Close()
}
