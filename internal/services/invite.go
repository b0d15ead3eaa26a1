package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"groupsched/internal/docstore"
	"groupsched/internal/domain"
)

const (
	inviteCodeGroups   = 3
	inviteCodeGroupLen = 4
	// createInviteAttempts bounds the retry loop on code collisions. A
	// pathological collision storm becomes a visible failure instead of an
	// unbounded loop.
	createInviteAttempts = 6
)

// inviteCodeAlphabet omits visually ambiguous characters (0/O, 1/I/L) so
// codes survive being read aloud or transcribed by hand.
var inviteCodeAlphabet = []rune("ABCDEFGHJKMNPQRSTUVWXYZ23456789")

var inviteCodeRegexp = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

// GenerateInviteCode produces a code like QX7M-KF42-PWH9 from a
// cryptographically strong source. There is no silent downgrade: if the
// secure source fails, the error propagates.
func GenerateInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	groups := make([]string, 0, inviteCodeGroups)
	for g := 0; g < inviteCodeGroups; g++ {
		b := make([]rune, inviteCodeGroupLen)
		for i := 0; i < inviteCodeGroupLen; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("secure random source unavailable: %w", err)
			}
			b[i] = inviteCodeAlphabet[n.Int64()]
		}
		groups = append(groups, string(b))
	}
	return strings.Join(groups, "-"), nil
}

// ValidInviteCodeShape reports whether code has the generated 3x4 shape.
// Legacy static codes are exempt from this check.
func ValidInviteCodeShape(code string) bool {
	return inviteCodeRegexp.MatchString(code)
}

// LegacyInvite is an environment-configured static code consulted only when
// no invite document matches. It maps to a fixed campaign and role.
type LegacyInvite struct {
	CampaignID string
	Role       string
}

type inviteService struct {
	store          docstore.Store
	emailService   domain.EmailService
	legacyCodes    map[string]LegacyInvite
	generateCode   func() (string, error)
	contextTimeout time.Duration
}

// NewInviteService creates an InviteService over the document store.
// emailService may be nil when no mailer is configured.
func NewInviteService(store docstore.Store, emailService domain.EmailService, legacyCodes map[string]LegacyInvite, timeout time.Duration) domain.InviteService {
	return &inviteService{
		store:          store,
		emailService:   emailService,
		legacyCodes:    legacyCodes,
		generateCode:   GenerateInviteCode,
		contextTimeout: timeout,
	}
}

// allocateInvite writes a new invite inside tx, failing with
// ErrCodeCollision when the code is already held by an unrevoked invite.
// Campaign-creation reuses it inside its own transaction.
func allocateInvite(tx docstore.Tx, campaignID, code, role, createdByUID string, now time.Time) (*domain.Invite, error) {
	var existing domain.Invite
	err := tx.Get(collInvites, code, &existing)
	switch {
	case err == nil:
		if !existing.Revoked {
			return nil, domain.ErrCodeCollision
		}
		// Revoked codes are no longer active; the slot may be reused.
	case errors.Is(err, docstore.ErrDocMissing):
	default:
		return nil, fmt.Errorf("check invite code: %w", err)
	}

	inv := &domain.Invite{
		Code:         code,
		CampaignID:   campaignID,
		Role:         role,
		Enabled:      true,
		CreatedByUID: createdByUID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Set(collInvites, code, inv); err != nil {
		return nil, fmt.Errorf("write invite: %w", err)
	}
	return inv, nil
}

func (s *inviteService) CreateInvite(ctx context.Context, campaignID, role string, actor domain.Actor) (*domain.Invite, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if campaignID == "" {
		return nil, domain.ErrInvalidInput
	}

	for attempt := 0; attempt < createInviteAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}
		var created *domain.Invite
		err = s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
			var campaign domain.Campaign
			if err := tx.Get(collCampaigns, campaignID, &campaign); err != nil {
				if errors.Is(err, docstore.ErrDocMissing) {
					return domain.ErrNotFound
				}
				return fmt.Errorf("get campaign: %w", err)
			}
			now := time.Now()
			inv, err := allocateInvite(tx, campaignID, code, role, actor.UID, now)
			if err != nil {
				return err
			}
			// Only one code may be active per campaign: retire the one
			// being replaced so it stops redeeming.
			if campaign.InviteCode != "" && campaign.InviteCode != code {
				if err := tx.Merge(collInvites, campaign.InviteCode, map[string]any{
					"enabled":    false,
					"updated_at": now,
				}); err != nil {
					return fmt.Errorf("disable previous invite: %w", err)
				}
			}
			if err := tx.Merge(collCampaigns, campaignID, map[string]any{
				"invite_code":    code,
				"invite_enabled": true,
				"updated_at":     inv.CreatedAt,
			}); err != nil {
				return fmt.Errorf("update campaign invite: %w", err)
			}
			created = inv
			return nil
		})
		if errors.Is(err, domain.ErrCodeCollision) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return nil, domain.ErrCodeExhausted
}

func (s *inviteService) RedeemInvite(ctx context.Context, code string, user *domain.User) (*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" || user == nil || user.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	var membership *domain.Membership
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		now := time.Now()
		var inv domain.Invite
		err := tx.Get(collInvites, code, &inv)
		if errors.Is(err, docstore.ErrDocMissing) {
			// Legacy static codes are a backward-compatible fallback
			// consulted only when no invite document matches.
			legacy, ok := s.legacyCodes[code]
			if !ok {
				return domain.ErrInviteNotFound
			}
			inv = domain.Invite{
				Code:       code,
				CampaignID: legacy.CampaignID,
				Role:       legacy.Role,
				Enabled:    true,
			}
		} else if err != nil {
			return fmt.Errorf("get invite: %w", err)
		}

		if inv.Revoked {
			return domain.ErrInviteRevoked
		}
		if !inv.Enabled {
			return domain.ErrInviteDisabled
		}
		if inv.SingleUse && inv.RedeemedByUID != "" && inv.RedeemedByUID != user.ID {
			return domain.ErrInviteAlreadyRedeemed
		}

		var campaign domain.Campaign
		if err := tx.Get(collCampaigns, inv.CampaignID, &campaign); err != nil {
			if errors.Is(err, docstore.ErrDocMissing) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get campaign: %w", err)
		}

		if inv.SingleUse && inv.RedeemedByUID == "" {
			if err := tx.Merge(collInvites, code, map[string]any{
				"redeemed_by_uid": user.ID,
				"updated_at":      now,
			}); err != nil {
				return fmt.Errorf("mark invite redeemed: %w", err)
			}
		}

		m := &domain.Membership{
			CampaignID:  campaign.ID,
			UserID:      user.ID,
			DisplayName: user.Name,
			Email:       user.Email,
			JoinedAt:    now,
		}
		if err := tx.Set(collMemberships, domain.MembershipDocID(campaign.ID, user.ID), m); err != nil {
			return fmt.Errorf("write membership: %w", err)
		}

		if campaign.HostUID == "" {
			if err := tx.Merge(collCampaigns, campaign.ID, map[string]any{
				"host_uid":   user.ID,
				"updated_at": now,
			}); err != nil {
				return fmt.Errorf("assign host: %w", err)
			}
		}
		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *inviteService) SetInviteEnabled(ctx context.Context, campaignID string, enabled bool, actor domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		now := time.Now()
		var campaign domain.Campaign
		if err := tx.Get(collCampaigns, campaignID, &campaign); err != nil {
			if errors.Is(err, docstore.ErrDocMissing) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get campaign: %w", err)
		}
		if campaign.InviteCode == "" {
			return domain.ErrInviteNotFound
		}
		if err := tx.Merge(collInvites, campaign.InviteCode, map[string]any{
			"enabled":    enabled,
			"updated_at": now,
		}); err != nil {
			return fmt.Errorf("update invite: %w", err)
		}
		if err := tx.Merge(collCampaigns, campaignID, map[string]any{
			"invite_enabled": enabled,
			"updated_at":     now,
		}); err != nil {
			return fmt.Errorf("update campaign: %w", err)
		}
		return nil
	})
}

func (s *inviteService) RevokeInvite(ctx context.Context, code string, actor domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	code = strings.TrimSpace(strings.ToUpper(code))

	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		now := time.Now()
		var inv domain.Invite
		if err := tx.Get(collInvites, code, &inv); err != nil {
			if errors.Is(err, docstore.ErrDocMissing) {
				return domain.ErrInviteNotFound
			}
			return fmt.Errorf("get invite: %w", err)
		}
		if err := tx.Merge(collInvites, code, map[string]any{
			"revoked":    true,
			"enabled":    false,
			"updated_at": now,
		}); err != nil {
			return fmt.Errorf("revoke invite: %w", err)
		}

		// Existing memberships stay; only future redemptions are blocked.
		var campaign domain.Campaign
		err := tx.Get(collCampaigns, inv.CampaignID, &campaign)
		if errors.Is(err, docstore.ErrDocMissing) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get campaign: %w", err)
		}
		if campaign.InviteCode == code {
			if err := tx.Merge(collCampaigns, campaign.ID, map[string]any{
				"invite_enabled": false,
				"updated_at":     now,
			}); err != nil {
				return fmt.Errorf("update campaign: %w", err)
			}
		}
		return nil
	})
}

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (s *inviteService) SendInviteEmail(ctx context.Context, campaignID, email string, actor domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return domain.ErrInvalidInput
	}
	if s.emailService == nil {
		return fmt.Errorf("no mailer configured")
	}

	var campaign domain.Campaign
	if err := s.store.Get(ctx, collCampaigns, campaignID, &campaign); err != nil {
		if errors.Is(err, docstore.ErrDocMissing) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get campaign: %w", err)
	}
	if campaign.InviteCode == "" || !campaign.InviteEnabled {
		return domain.ErrInviteDisabled
	}

	inviterName := actor.UID
	var inviter domain.User
	if err := s.store.Get(ctx, collUsers, actor.UID, &inviter); err == nil && inviter.Name != "" {
		inviterName = inviter.Name
	}

	data := &domain.CampaignInviteEmailData{
		Email:        email,
		InviterName:  inviterName,
		CampaignName: campaign.Name,
		InviteCode:   campaign.InviteCode,
	}
	if err := s.emailService.SendCampaignInvite(ctx, data); err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	return nil
}
