package domain

import "time"

// Membership joins a user to a campaign. Its existence is the sole
// authorization fact for "user belongs to campaign". Display name and email
// are denormalized snapshots taken at join time.
// swagger:model Membership
type Membership struct {
	CampaignID  string    `json:"campaign_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MembershipDocID is the document ID for a membership record. The campaign
// prefix lets dependents of one campaign be enumerated by ID prefix.
func MembershipDocID(campaignID, userID string) string {
	return campaignID + ":" + userID
}
