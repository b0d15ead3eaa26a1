package docstore

import "context"

// NoopStore is the "store not configured" client. Every operation reports
// ErrUnavailable. Chosen once at startup so call sites never nil-check.
type NoopStore struct{}

// NewNoopStore returns a store that refuses every operation.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (NoopStore) Get(ctx context.Context, collection, id string, dest any) error {
	return ErrUnavailable
}

func (NoopStore) Set(ctx context.Context, collection, id string, doc any) error {
	return ErrUnavailable
}

func (NoopStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return ErrUnavailable
}

func (NoopStore) Delete(ctx context.Context, collection, id string) error {
	return ErrUnavailable
}

func (NoopStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	return nil, ErrUnavailable
}

func (NoopStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return ErrUnavailable
}

func (NoopStore) BatchDelete(ctx context.Context, refs []Ref) error {
	return ErrUnavailable
}

func (NoopStore) Subscribe(ctx context.Context, collection, id string) (<-chan Snapshot, func(), error) {
	return nil, nil, ErrUnavailable
}

func (NoopStore) Close() error { return nil }
