package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityStatus_LabelAndScore(t *testing.T) {
	tests := []struct {
		status AvailabilityStatus
		label  string
		score  int
	}{
		{StatusUnspecified, "UNSPECIFIED", 0},
		{StatusAvailable, "AVAILABLE", 2},
		{StatusMaybe, "MAYBE", 1},
		{StatusUnavailable, "UNAVAILABLE", -2},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.label, tt.status.Label())
			assert.Equal(t, tt.score, tt.status.Score())
		})
	}
}

func TestAvailabilityStatus_LabelUnknownValue(t *testing.T) {
	assert.Equal(t, "UNSPECIFIED", AvailabilityStatus(42).Label())
}

func TestStatusFromLabel(t *testing.T) {
	assert.Equal(t, StatusAvailable, StatusFromLabel("AVAILABLE"))
	assert.Equal(t, StatusMaybe, StatusFromLabel(" maybe "))
	assert.Equal(t, StatusUnavailable, StatusFromLabel("unavailable"))
	assert.Equal(t, StatusUnspecified, StatusFromLabel("FREE"))
	assert.Equal(t, StatusUnspecified, StatusFromLabel(""))
}

func TestAvailabilityStatus_JSONUsesLabels(t *testing.T) {
	raw, err := json.Marshal(map[DateKey]AvailabilityStatus{"2026-03-14": StatusMaybe})
	require.NoError(t, err)
	assert.JSONEq(t, `{"2026-03-14":"MAYBE"}`, string(raw))

	var days map[DateKey]AvailabilityStatus
	require.NoError(t, json.Unmarshal([]byte(`{"2026-03-14":"UNAVAILABLE","2026-03-15":"bogus"}`), &days))
	assert.Equal(t, StatusUnavailable, days["2026-03-14"])
	assert.Equal(t, StatusUnspecified, days["2026-03-15"])
}

func TestAvailabilityRecord_Status(t *testing.T) {
	var nilRecord *AvailabilityRecord
	assert.Equal(t, StatusUnspecified, nilRecord.Status("2026-03-14"))

	r := &AvailabilityRecord{Days: map[DateKey]AvailabilityStatus{"2026-03-14": StatusAvailable}}
	assert.Equal(t, StatusAvailable, r.Status("2026-03-14"))
	assert.Equal(t, StatusUnspecified, r.Status("2026-03-15"))
}
