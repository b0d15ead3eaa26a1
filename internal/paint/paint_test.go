package paint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/domain"
)

type recordedPaint struct {
	key    domain.DateKey
	status domain.AvailabilityStatus
}

type recordingTarget struct {
	paints []recordedPaint
}

func (r *recordingTarget) SetPaint(key domain.DateKey, status domain.AvailabilityStatus) {
	r.paints = append(r.paints, recordedPaint{key, status})
}

func testNow() time.Time {
	return time.Date(2026, time.September, 10, 12, 0, 0, 0, time.Local)
}

func TestMachine_ClickPaintsOneCell(t *testing.T) {
	target := &recordingTarget{}
	m := NewMachine(target, testNow)

	m.PointerDown("2026-09-15")
	m.PointerUp()

	require.Len(t, target.paints, 1)
	assert.Equal(t, recordedPaint{"2026-09-15", domain.StatusAvailable}, target.paints[0])
	assert.False(t, m.Painting())
}

func TestMachine_DragPaintsEveryEnteredCell(t *testing.T) {
	target := &recordingTarget{}
	m := NewMachine(target, testNow)
	m.SetBrush(domain.StatusUnavailable)

	m.PointerDown("2026-09-15")
	m.PointerEnter("2026-09-16")
	m.PointerEnter("2026-09-17")
	m.PointerUp()

	require.Len(t, target.paints, 3)
	for i, key := range []domain.DateKey{"2026-09-15", "2026-09-16", "2026-09-17"} {
		assert.Equal(t, recordedPaint{key, domain.StatusUnavailable}, target.paints[i])
	}
}

func TestMachine_EnterWithoutDragIsIgnored(t *testing.T) {
	target := &recordingTarget{}
	m := NewMachine(target, testNow)

	m.PointerEnter("2026-09-15")

	assert.Empty(t, target.paints, "hovering without a pressed pointer paints nothing")
}

func TestMachine_PastDayDoesNotStartDrag(t *testing.T) {
	target := &recordingTarget{}
	m := NewMachine(target, testNow)

	m.PointerDown("2026-09-09")
	assert.False(t, m.Painting(), "pressing a frozen cell leaves the machine idle")
	m.PointerEnter("2026-09-16")

	assert.Empty(t, target.paints)
}

func TestMachine_DragSkipsPastDaysButContinues(t *testing.T) {
	target := &recordingTarget{}
	m := NewMachine(target, testNow)

	m.PointerDown("2026-09-10") // today is editable
	m.PointerEnter("2026-09-09")
	m.PointerEnter("2026-09-11")
	m.PointerUp()

	require.Len(t, target.paints, 2)
	assert.Equal(t, domain.DateKey("2026-09-10"), target.paints[0].key)
	assert.Equal(t, domain.DateKey("2026-09-11"), target.paints[1].key)
}

func TestMachine_EraserBrush(t *testing.T) {
	target := &recordingTarget{}
	m := NewMachine(target, testNow)
	m.SetBrush(domain.StatusUnspecified)

	m.PointerDown("2026-09-15")
	m.PointerUp()

	require.Len(t, target.paints, 1)
	assert.Equal(t, domain.StatusUnspecified, target.paints[0].status)
}

func TestMachine_Editable(t *testing.T) {
	m := NewMachine(&recordingTarget{}, testNow)

	assert.False(t, m.Editable("2026-09-09"))
	assert.True(t, m.Editable("2026-09-10"), "today is editable")
	assert.True(t, m.Editable("2026-09-11"))
}
