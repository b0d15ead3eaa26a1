package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDeletionIncomplete wraps a batch failure during cascading campaign
// deletion. Re-invoking the deletion is always safe.
var ErrDeletionIncomplete = errors.New("campaign deletion incomplete")

// Campaign is a scheduling round: members paint availability on its calendar
// and the host picks a date.
// swagger:model Campaign
type Campaign struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	InviteCode    string    `json:"invite_code"`
	InviteEnabled bool      `json:"invite_enabled"`
	CreatedByUID  string    `json:"created_by_uid"`
	// HostUID is the member whose preferences the summary view optimizes for.
	// Defaults to the creator; empty when the host seat is vacant.
	HostUID   string    `json:"host_uid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CampaignSettings holds per-campaign policy knobs.
type CampaignSettings struct {
	CampaignID string `json:"campaign_id"`
	// SkipUnanswered drops all-unspecified dates from top candidates.
	SkipUnanswered bool `json:"skip_unanswered"`
}

// CampaignService defines campaign lifecycle operations.
type CampaignService interface {
	CreateCampaign(ctx context.Context, name string, creator *User) (*Campaign, error)
	GetCampaign(ctx context.Context, campaignID string, actor Actor) (*Campaign, []*Membership, error)
	DeleteCampaign(ctx context.Context, campaignID string, actor Actor) error
	KickMember(ctx context.Context, campaignID, userID string, actor Actor) error
	ReassignHost(ctx context.Context, campaignID, newHostUID string, actor Actor) error
}
