package pending

import (
	"context"

	"groupsched/internal/domain"
)

// SaveFunc writes the full merged day map as one document update.
type SaveFunc func(ctx context.Context, days map[domain.DateKey]domain.AvailabilityStatus) error

// Commit saves the store's pending edits through the race-safe batch
// protocol: the keys in flight are snapshotted at dispatch, and only those
// exact keys are cleared on success — never "all current pending edits",
// which would wipe paints applied while the write was in flight. A failed
// save leaves every pending edit in place for a manual retry; there is no
// mid-flight cancellation.
func Commit(ctx context.Context, s *Store, save SaveFunc) error {
	if !s.HasPending() {
		return nil
	}
	batchID, payload := s.BeginCommit()
	if err := save(ctx, payload); err != nil {
		s.FailCommit(batchID)
		return err
	}
	s.CompleteCommit(batchID)
	return nil
}
