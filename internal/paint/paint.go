// Package paint turns pointer events on calendar cells into pending-edit
// mutations.
package paint

import (
	"time"

	"groupsched/internal/domain"
)

// Target is where paints land; satisfied by the pending-edit store.
type Target interface {
	SetPaint(key domain.DateKey, status domain.AvailabilityStatus)
}

// Machine is the drag-paint state machine. Two states: idle and painting.
// Not safe for concurrent use; pointer events arrive on one event loop.
type Machine struct {
	target   Target
	brush    domain.AvailabilityStatus
	painting bool
	now      func() time.Time
}

// NewMachine returns an idle machine painting with the available brush.
// now defaults to time.Now; it decides which days count as past.
func NewMachine(target Target, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{target: target, brush: domain.StatusAvailable, now: now}
}

// SetBrush selects the status applied by subsequent paints. The unspecified
// brush acts as an eraser.
func (m *Machine) SetBrush(status domain.AvailabilityStatus) {
	m.brush = status
}

// Brush returns the currently selected paint status.
func (m *Machine) Brush() domain.AvailabilityStatus {
	return m.brush
}

// Painting reports whether a drag is in progress.
func (m *Machine) Painting() bool {
	return m.painting
}

// Editable reports whether the day accepts paint. Days strictly before
// today are frozen; today itself is editable.
func (m *Machine) Editable(key domain.DateKey) bool {
	return key >= domain.ToDateKey(m.now())
}

// PointerDown starts a drag at the cell and paints it. On a non-editable
// cell nothing happens and the machine stays idle, so a click is exactly a
// one-cell paint.
func (m *Machine) PointerDown(key domain.DateKey) {
	if !m.Editable(key) {
		return
	}
	m.painting = true
	m.target.SetPaint(key, m.brush)
}

// PointerEnter paints the cell if a drag is in progress. Entering a
// non-editable cell is a no-op but the drag continues.
func (m *Machine) PointerEnter(key domain.DateKey) {
	if !m.painting {
		return
	}
	if !m.Editable(key) {
		return
	}
	m.target.SetPaint(key, m.brush)
}

// PointerUp ends the drag. Callers must route the release event globally,
// not just from grid cells: a drag released outside the calendar still has
// to land here or painting never stops.
func (m *Machine) PointerUp() {
	m.painting = false
}
