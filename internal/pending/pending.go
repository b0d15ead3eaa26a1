// Package pending holds a session's unsaved availability edits and
// reconciles them against server snapshots as they arrive.
package pending

import (
	"sort"
	"sync"

	"groupsched/internal/domain"
)

// Store tracks one user's unsaved day edits for one campaign. A pending
// entry exists for a day iff its status differs from the last known server
// value for that day; reconciliation, a successful commit, or Discard are
// the only paths that shrink the set.
type Store struct {
	mu      sync.Mutex
	server  map[domain.DateKey]domain.AvailabilityStatus
	pending map[domain.DateKey]domain.AvailabilityStatus
	commits map[int]map[domain.DateKey]domain.AvailabilityStatus
	nextID  int
}

// NewStore returns an empty store: no server state, no pending edits.
func NewStore() *Store {
	return &Store{
		server:  make(map[domain.DateKey]domain.AvailabilityStatus),
		pending: make(map[domain.DateKey]domain.AvailabilityStatus),
		commits: make(map[int]map[domain.DateKey]domain.AvailabilityStatus),
	}
}

// EffectiveStatus is the status the user sees: pending value if present,
// else server value, else unspecified. Computed fresh on every call.
func (s *Store) EffectiveStatus(key domain.DateKey) domain.AvailabilityStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.pending[key]; ok {
		return status
	}
	return s.server[key]
}

// ServerStatus is the last known server value for the day.
func (s *Store) ServerStatus(key domain.DateKey) domain.AvailabilityStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server[key]
}

// SetPaint stages desired for the day. The comparison runs against the
// current server value, not the previous pending value, so painting a day
// back to its server value always cancels the delta instead of accumulating
// a no-op write.
func (s *Store) SetPaint(key domain.DateKey, desired domain.AvailabilityStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server[key] == desired {
		delete(s.pending, key)
		return
	}
	s.pending[key] = desired
}

// Reconcile replaces the server view with snapshot and drops every pending
// entry the server now matches (typically because this session's own save
// landed). Idempotent; never adds pending entries.
func (s *Store) Reconcile(snapshot map[domain.DateKey]domain.AvailabilityStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	server := make(map[domain.DateKey]domain.AvailabilityStatus, len(snapshot))
	for key, status := range snapshot {
		if status != domain.StatusUnspecified {
			server[key] = status
		}
	}
	s.server = server
	for key, status := range s.pending {
		if s.server[key] == status {
			delete(s.pending, key)
		}
	}
}

// HasPending reports whether any unsaved edits exist.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// PendingKeys returns the days with unsaved edits, sorted.
func (s *Store) PendingKeys() []domain.DateKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]domain.DateKey, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// BeginCommit snapshots the current pending set and returns the full merged
// day map (server plus pending, pending wins) to write as one document
// update. Only the keys snapshotted here are cleared by CompleteCommit, so
// paints applied while the write is in flight survive it.
func (s *Store) BeginCommit() (int, map[domain.DateKey]domain.AvailabilityStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make(map[domain.DateKey]domain.AvailabilityStatus, len(s.pending))
	for key, status := range s.pending {
		batch[key] = status
	}
	id := s.nextID
	s.nextID++
	s.commits[id] = batch

	payload := make(map[domain.DateKey]domain.AvailabilityStatus, len(s.server)+len(batch))
	for key, status := range s.server {
		payload[key] = status
	}
	for key, status := range batch {
		if status == domain.StatusUnspecified {
			delete(payload, key)
			continue
		}
		payload[key] = status
	}
	return id, payload
}

// CompleteCommit clears exactly the keys snapshotted by BeginCommit, and
// only where the pending value still equals the committed one. It also
// folds the committed values into the server view so the effective status
// holds until the snapshot stream catches up.
func (s *Store) CompleteCommit(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.commits[id]
	if !ok {
		return
	}
	delete(s.commits, id)
	for key, committed := range batch {
		if committed == domain.StatusUnspecified {
			delete(s.server, key)
		} else {
			s.server[key] = committed
		}
		if current, exists := s.pending[key]; exists && current == committed {
			delete(s.pending, key)
		}
	}
}

// FailCommit abandons the batch, leaving every pending entry untouched for
// a manual retry.
func (s *Store) FailCommit(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.commits, id)
}

// Discard drops all pending edits and in-flight batches (sign-out).
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[domain.DateKey]domain.AvailabilityStatus)
	s.commits = make(map[int]map[domain.DateKey]domain.AvailabilityStatus)
}
