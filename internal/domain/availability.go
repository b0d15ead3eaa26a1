package domain

import "context"

// AvailabilityRecord is one user's day-by-day answers within one campaign.
// Days absent from the map are StatusUnspecified. The record is created
// implicitly on first save and removed only with the campaign or membership.
// swagger:model AvailabilityRecord
type AvailabilityRecord struct {
	CampaignID string                         `json:"campaign_id"`
	UserID     string                         `json:"user_id"`
	Days       map[DateKey]AvailabilityStatus `json:"days"`
}

// Status returns the stored status for a day, defaulting to unspecified.
func (r *AvailabilityRecord) Status(key DateKey) AvailabilityStatus {
	if r == nil {
		return StatusUnspecified
	}
	return r.Days[key]
}

// AvailabilityDocID is the document ID for a user's record in a campaign.
func AvailabilityDocID(campaignID, userID string) string {
	return campaignID + ":" + userID
}

// AvailabilityService defines availability storage and the summary view.
type AvailabilityService interface {
	GetRecord(ctx context.Context, campaignID, userID string) (*AvailabilityRecord, error)
	SaveDays(ctx context.Context, campaignID, userID string, days map[DateKey]AvailabilityStatus) error
	ListByCampaign(ctx context.Context, campaignID string) ([]*AvailabilityRecord, error)
	MonthSummary(ctx context.Context, campaignID, monthValue string, actor Actor) (*ScheduleSummary, error)
}

// ScheduleSummary is the host's aggregated view for a month.
// swagger:model ScheduleSummary
type ScheduleSummary struct {
	CampaignID string             `json:"campaign_id"`
	Month      string             `json:"month"`
	Dates      []DateScoreSummary `json:"dates"`
	Top        []DateScoreSummary `json:"top"`
	AllGreen   []DateKey          `json:"all_green"`
	AnyRed     []DateKey          `json:"any_red"`
}

// DateScoreSummary aggregates every member's status for one date. Derived,
// never persisted.
// swagger:model DateScoreSummary
type DateScoreSummary struct {
	DateKey          DateKey `json:"date_key"`
	AvailableCount   int     `json:"available_count"`
	MaybeCount       int     `json:"maybe_count"`
	UnavailableCount int     `json:"unavailable_count"`
	UnspecifiedCount int     `json:"unspecified_count"`
	Score            int     `json:"score"`
}
