package domain

import (
	"encoding/json"
	"strings"
)

// AvailabilityStatus is a member's answer for a single calendar day.
type AvailabilityStatus int

const (
	// StatusUnspecified means the member has not answered for the day.
	StatusUnspecified AvailabilityStatus = iota
	// StatusAvailable means the member can attend on the day.
	StatusAvailable
	// StatusMaybe means the member might attend on the day.
	StatusMaybe
	// StatusUnavailable means the member cannot attend on the day.
	StatusUnavailable
)

var statusLabels = map[AvailabilityStatus]string{
	StatusUnspecified: "UNSPECIFIED",
	StatusAvailable:   "AVAILABLE",
	StatusMaybe:       "MAYBE",
	StatusUnavailable: "UNAVAILABLE",
}

var statusScores = map[AvailabilityStatus]int{
	StatusUnspecified: 0,
	StatusAvailable:   2,
	StatusMaybe:       1,
	StatusUnavailable: -2,
}

// Label returns the display label for a status. Unknown values map to UNSPECIFIED.
func (s AvailabilityStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[StatusUnspecified]
}

// Score returns the scheduling weight used by the ranking engine.
func (s AvailabilityStatus) Score() int {
	return statusScores[s]
}

// StatusFromLabel converts a status label back to a status value.
func StatusFromLabel(label string) AvailabilityStatus {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "AVAILABLE":
		return StatusAvailable
	case "MAYBE":
		return StatusMaybe
	case "UNAVAILABLE":
		return StatusUnavailable
	default:
		return StatusUnspecified
	}
}

// MarshalJSON encodes the status as its label so stored documents stay
// readable and stable across enum reordering.
func (s AvailabilityStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}

// UnmarshalJSON decodes a status label. Unknown labels decode to StatusUnspecified.
func (s *AvailabilityStatus) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	*s = StatusFromLabel(label)
	return nil
}
