package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"groupsched/internal/docstore"
	"groupsched/internal/domain"
)

type campaignService struct {
	store          docstore.Store
	generateCode   func() (string, error)
	contextTimeout time.Duration
}

// NewCampaignService creates a CampaignService over the document store.
func NewCampaignService(store docstore.Store, timeout time.Duration) domain.CampaignService {
	return &campaignService{
		store:          store,
		generateCode:   GenerateInviteCode,
		contextTimeout: timeout,
	}
}

// CreateCampaign allocates the campaign, its invite, the creator's
// membership and the host assignment in one transaction. The invite code
// retries on collision like standalone invite creation.
func (s *campaignService) CreateCampaign(ctx context.Context, name string, creator *domain.User) (*domain.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	if creator == nil || creator.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	campaignID := uuid.NewString()
	for attempt := 0; attempt < createInviteAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}
		var created *domain.Campaign
		err = s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
			now := time.Now()
			inv, err := allocateInvite(tx, campaignID, code, domain.RoleMember, creator.ID, now)
			if err != nil {
				return err
			}
			campaign := &domain.Campaign{
				ID:            campaignID,
				Name:          name,
				InviteCode:    inv.Code,
				InviteEnabled: true,
				CreatedByUID:  creator.ID,
				HostUID:       creator.ID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Set(collCampaigns, campaignID, campaign); err != nil {
				return fmt.Errorf("write campaign: %w", err)
			}
			membership := &domain.Membership{
				CampaignID:  campaignID,
				UserID:      creator.ID,
				DisplayName: creator.Name,
				Email:       creator.Email,
				JoinedAt:    now,
			}
			if err := tx.Set(collMemberships, domain.MembershipDocID(campaignID, creator.ID), membership); err != nil {
				return fmt.Errorf("write membership: %w", err)
			}
			settings := &domain.CampaignSettings{
				CampaignID:     campaignID,
				SkipUnanswered: true,
			}
			if err := tx.Set(collSettings, campaignID, settings); err != nil {
				return fmt.Errorf("write settings: %w", err)
			}
			created = campaign
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

func (s *campaignService) GetCampaign(ctx context.Context, campaignID string, actor domain.Actor) (*domain.Campaign, []*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var campaign domain.Campaign
	if err := s.store.Get(ctx, collCampaigns, campaignID, &campaign); err != nil {
		if errors.Is(err, docstore.ErrDocMissing) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get campaign: %w", err)
	}

	members, err := s.listMemberships(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin() && !containsMember(members, actor.UID) {
		return nil, nil, domain.ErrForbidden
	}
	return &campaign, members, nil
}

func containsMember(members []*domain.Membership, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (s *campaignService) listMemberships(ctx context.Context, campaignID string) ([]*domain.Membership, error) {
	snaps, err := s.store.List(ctx, collMemberships)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	members := []*domain.Membership{}
	prefix := campaignID + ":"
	for _, snap := range snaps {
		if !strings.HasPrefix(snap.ID, prefix) {
			continue
		}
		var m domain.Membership
		if err := snap.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode membership %s: %w", snap.ID, err)
		}
		members = append(members, &m)
	}
	return members, nil
}

// DeleteCampaign removes the campaign root, its invite and settings, and
// every dependent membership and availability record. The dependent sets
// can exceed one transaction's operation limit, so deletion runs as
// sequential bounded batches: a failure mid-way leaves earlier batches
// deleted, and re-invoking is always safe because deleting an absent
// document is a no-op.
func (s *campaignService) DeleteCampaign(ctx context.Context, campaignID string, actor domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if campaignID == "" {
		return domain.ErrInvalidInput
	}

	var campaign domain.Campaign
	err := s.store.Get(ctx, collCampaigns, campaignID, &campaign)
	switch {
	case err == nil:
		if !actor.IsAdmin() && campaign.CreatedByUID != actor.UID {
			return domain.ErrForbidden
		}
	case errors.Is(err, docstore.ErrDocMissing):
		// Already gone; still sweep dependents so a partially-failed
		// earlier deletion can be finished.
		if !actor.IsAdmin() {
			return domain.ErrForbidden
		}
	default:
		return fmt.Errorf("get campaign: %w", err)
	}

	refs := []docstore.Ref{{Collection: collCampaigns, ID: campaignID}}
	if campaign.InviteCode != "" {
		refs = append(refs, docstore.Ref{Collection: collInvites, ID: campaign.InviteCode})
	}
	refs = append(refs, docstore.Ref{Collection: collSettings, ID: campaignID})

	prefix := campaignID + ":"
	for _, coll := range []string{collMemberships, collAvailability} {
		snaps, err := s.store.List(ctx, coll)
		if err != nil {
			return fmt.Errorf("enumerate %s: %w", coll, err)
		}
		for _, snap := range snaps {
			if strings.HasPrefix(snap.ID, prefix) {
				refs = append(refs, docstore.Ref{Collection: coll, ID: snap.ID})
			}
		}
	}

	if err := s.store.BatchDelete(ctx, refs); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeletionIncomplete, err)
	}
	return nil
}

// KickMember removes a member's membership and availability record. If the
// removed member was host, the host seat passes to an arbitrary remaining
// member, or is cleared when nobody remains, atomically with the removal.
func (s *campaignService) KickMember(ctx context.Context, campaignID, userID string, actor domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	// Candidate replacements are enumerated outside the transaction; the
	// transaction re-reads each candidate so a concurrently-kicked member
	// is never promoted.
	members, err := s.listMemberships(ctx, campaignID)
	if err != nil {
		return err
	}
	var candidates []string
	for _, m := range members {
		if m.UserID != userID {
			candidates = append(candidates, m.UserID)
		}
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
		var membership domain.Membership
		if err := tx.Get(collMemberships, domain.MembershipDocID(campaignID, userID), &membership); err != nil {
			if errors.Is(err, docstore.ErrDocMissing) {
				return domain.ErrNotMember
			}
			return fmt.Errorf("get membership: %w", err)
		}
		if err := tx.Delete(collMemberships, domain.MembershipDocID(campaignID, userID)); err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		if err := tx.Delete(collAvailability, domain.AvailabilityDocID(campaignID, userID)); err != nil {
			return fmt.Errorf("delete availability: %w", err)
		}

		if campaign.HostUID == userID {
			newHost := ""
			for _, candidate := range candidates {
				var m domain.Membership
				if err := tx.Get(collMemberships, domain.MembershipDocID(campaignID, candidate), &m); err == nil {
					newHost = candidate
					break
				}
			}
			if err := tx.Merge(collCampaigns, campaignID, map[string]any{
				"host_uid":   newHost,
				"updated_at": now,
			}); err != nil {
				return fmt.Errorf("reassign host: %w", err)
			}
		}
		return nil
	})
}

// ReassignHost points the host seat at another current member.
func (s *campaignService) ReassignHost(ctx context.Context, campaignID, newHostUID string, actor domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if newHostUID == "" {
		return domain.ErrInvalidInput
	}

	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		var campaign domain.Campaign
		if err := tx.Get(collCampaigns, campaignID, &campaign); err != nil {
			if errors.Is(err, docstore.ErrDocMissing) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get campaign: %w", err)
		}
		var membership domain.Membership
		if err := tx.Get(collMemberships, domain.MembershipDocID(campaignID, newHostUID), &membership); err != nil {
			if errors.Is(err, docstore.ErrDocMissing) {
				return domain.ErrNotMember
			}
			return fmt.Errorf("get membership: %w", err)
		}
		return tx.Merge(collCampaigns, campaignID, map[string]any{
			"host_uid":   newHostUID,
			"updated_at": time.Now(),
		})
	})
}
