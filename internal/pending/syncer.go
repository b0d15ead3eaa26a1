package pending

import (
	"context"
	"log/slog"

	"groupsched/internal/docstore"
	"groupsched/internal/domain"
)

// availabilityDoc is the wire shape of an availability document; only the
// day map matters to reconciliation.
type availabilityDoc struct {
	Days map[domain.DateKey]domain.AvailabilityStatus `json:"days"`
}

// Syncer consumes availability snapshots from a docstore subscription and
// feeds them to a Store. One goroutine per subscription; the channel is the
// only path from server state into the session.
type Syncer struct {
	Store  *Store
	Logger *slog.Logger
}

// Run reconciles until ctx is done or the snapshot channel closes. A
// snapshot of a missing document reconciles against an empty day map.
func (s *Syncer) Run(ctx context.Context, snapshots <-chan docstore.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			var doc availabilityDoc
			if snap.Exists {
				if err := snap.Decode(&doc); err != nil {
					if s.Logger != nil {
						s.Logger.Warn("skipping undecodable availability snapshot",
							"collection", snap.Collection, "id", snap.ID, "err", err)
					}
					continue
				}
			}
			if doc.Days == nil {
				doc.Days = map[domain.DateKey]domain.AvailabilityStatus{}
			}
			s.Store.Reconcile(doc.Days)
		}
	}
}
