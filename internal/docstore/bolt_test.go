package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	var missing testDoc
	require.ErrorIs(t, s.Get(ctx, "things", "a", &missing), ErrDocMissing)

	require.NoError(t, s.Set(ctx, "things", "a", testDoc{Name: "first", Count: 1}))
	var got testDoc
	require.NoError(t, s.Get(ctx, "things", "a", &got))
	assert.Equal(t, testDoc{Name: "first", Count: 1}, got)

	require.NoError(t, s.Delete(ctx, "things", "a"))
	require.ErrorIs(t, s.Get(ctx, "things", "a", &got), ErrDocMissing)
	require.NoError(t, s.Delete(ctx, "things", "a"))
}

func TestBoltStore_Merge(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	require.NoError(t, s.Set(ctx, "things", "a", testDoc{Name: "first", Count: 1}))
	require.NoError(t, s.Merge(ctx, "things", "a", map[string]any{"count": 9}))

	var got testDoc
	require.NoError(t, s.Get(ctx, "things", "a", &got))
	assert.Equal(t, testDoc{Name: "first", Count: 9}, got)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "things", "a", testDoc{Name: "durable"}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	var got testDoc
	require.NoError(t, s.Get(ctx, "things", "a", &got))
	assert.Equal(t, "durable", got.Name)
}

func TestBoltStore_TransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(tx Tx) error {
		if err := tx.Set("things", "a", testDoc{Name: "never"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var got testDoc
	assert.ErrorIs(t, s.Get(ctx, "things", "a", &got), ErrDocMissing)
}

func TestBoltStore_TransactionReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	err := s.RunTransaction(ctx, func(tx Tx) error {
		if err := tx.Set("things", "a", testDoc{Name: "a"}); err != nil {
			return err
		}
		var staged testDoc
		if err := tx.Get("things", "a", &staged); err != nil {
			return err
		}
		return tx.Set("things", "b", testDoc{Name: staged.Name + "b"})
	})
	require.NoError(t, err)

	var b testDoc
	require.NoError(t, s.Get(ctx, "things", "b", &b))
	assert.Equal(t, "ab", b.Name)
}

func TestBoltStore_BatchDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	var refs []Ref
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, "things", id, testDoc{Name: id}))
		refs = append(refs, Ref{Collection: "things", ID: id})
	}
	refs = append(refs, Ref{Collection: "other", ID: "ghost"})

	require.NoError(t, s.BatchDelete(ctx, refs))
	snaps, err := s.List(ctx, "things")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestBoltStore_SubscribeDeliversInitialAndUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)
	require.NoError(t, s.Set(ctx, "things", "a", testDoc{Name: "initial"}))

	ch, cancel, err := s.Subscribe(ctx, "things", "a")
	require.NoError(t, err)
	defer cancel()

	snap := waitForSnapshot(t, ch)
	var doc testDoc
	require.NoError(t, snap.Decode(&doc))
	assert.Equal(t, "initial", doc.Name)

	require.NoError(t, s.Set(ctx, "things", "a", testDoc{Name: "updated"}))
	snap = waitForSnapshot(t, ch)
	require.NoError(t, snap.Decode(&doc))
	assert.Equal(t, "updated", doc.Name)
}
