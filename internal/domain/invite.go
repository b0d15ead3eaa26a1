package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInviteNotFound is returned when no invite matches the code and no
	// legacy static code applies.
	ErrInviteNotFound = errors.New("invite not found")
	// ErrInviteRevoked is returned when redeeming a revoked invite.
	ErrInviteRevoked = errors.New("invite has been revoked")
	// ErrInviteDisabled is returned when redeeming a disabled invite.
	ErrInviteDisabled = errors.New("invite is disabled")
	// ErrInviteAlreadyRedeemed is returned when a single-use invite was
	// redeemed by a different user.
	ErrInviteAlreadyRedeemed = errors.New("invite already redeemed")
	// ErrCodeCollision marks a generated code that is already held by an
	// active invite. CreateInvite retries on it; all other errors propagate.
	ErrCodeCollision = errors.New("invite code collision")
	// ErrCodeExhausted is returned when every generation attempt collided.
	ErrCodeExhausted = errors.New("unable to allocate a unique invite code")
)

// Invite grants campaign membership (and optionally a role) upon redemption.
// Campaign invites are multi-use while enabled; single-use variants are
// consumed by their first redemption.
// swagger:model Invite
type Invite struct {
	Code          string    `json:"code"`
	CampaignID    string    `json:"campaign_id"`
	Role          string    `json:"role"`
	Enabled       bool      `json:"enabled"`
	Revoked       bool      `json:"revoked"`
	SingleUse     bool      `json:"single_use"`
	CreatedByUID  string    `json:"created_by_uid"`
	RedeemedByUID string    `json:"redeemed_by_uid,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InviteService defines the invite code lifecycle.
type InviteService interface {
	CreateInvite(ctx context.Context, campaignID, role string, actor Actor) (*Invite, error)
	RedeemInvite(ctx context.Context, code string, user *User) (*Membership, error)
	SetInviteEnabled(ctx context.Context, campaignID string, enabled bool, actor Actor) error
	RevokeInvite(ctx context.Context, code string, actor Actor) error
	SendInviteEmail(ctx context.Context, campaignID, email string, actor Actor) error
}
