package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"groupsched/internal/docstore"
	"groupsched/internal/domain"
	"groupsched/internal/ranking"
)

type availabilityService struct {
	store          docstore.Store
	rankOptions    ranking.Options
	contextTimeout time.Duration
}

// NewAvailabilityService creates an AvailabilityService over the document
// store. rankOptions sets the summary policy (top-N size, whether untouched
// days are skipped).
func NewAvailabilityService(store docstore.Store, rankOptions ranking.Options, timeout time.Duration) domain.AvailabilityService {
	return &availabilityService{
		store:          store,
		rankOptions:    rankOptions,
		contextTimeout: timeout,
	}
}

// GetRecord loads a user's record. A missing document is an empty record,
// never an error: every day defaults to unspecified.
func (s *availabilityService) GetRecord(ctx context.Context, campaignID, userID string) (*domain.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	record := &domain.AvailabilityRecord{
		CampaignID: campaignID,
		UserID:     userID,
		Days:       map[domain.DateKey]domain.AvailabilityStatus{},
	}
	err := s.store.Get(ctx, collAvailability, domain.AvailabilityDocID(campaignID, userID), record)
	if err != nil && !errors.Is(err, docstore.ErrDocMissing) {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	if record.Days == nil {
		record.Days = map[domain.DateKey]domain.AvailabilityStatus{}
	}
	return record, nil
}

// SaveDays writes the full merged day map as one document update. Days
// painted back to unspecified are dropped rather than stored.
func (s *availabilityService) SaveDays(ctx context.Context, campaignID, userID string, days map[domain.DateKey]domain.AvailabilityStatus) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if campaignID == "" || userID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.requireMember(ctx, campaignID, userID); err != nil {
		return err
	}
	cleaned := make(map[domain.DateKey]domain.AvailabilityStatus, len(days))
	for key, status := range days {
		if !domain.IsValidDateKey(key) {
			return fmt.Errorf("%w: bad date key %q", domain.ErrInvalidInput, key)
		}
		if status != domain.StatusUnspecified {
			cleaned[key] = status
		}
	}
	record := &domain.AvailabilityRecord{
		CampaignID: campaignID,
		UserID:     userID,
		Days:       cleaned,
	}
	if err := s.store.Set(ctx, collAvailability, domain.AvailabilityDocID(campaignID, userID), record); err != nil {
		return fmt.Errorf("save availability: %w", err)
	}
	return nil
}

// requireMember rejects writes from users outside the campaign.
func (s *availabilityService) requireMember(ctx context.Context, campaignID, userID string) error {
	var m domain.Membership
	if err := s.store.Get(ctx, collMemberships, domain.MembershipDocID(campaignID, userID), &m); err != nil {
		if errors.Is(err, docstore.ErrDocMissing) {
			return domain.ErrNotMember
		}
		return fmt.Errorf("get membership: %w", err)
	}
	return nil
}

func (s *availabilityService) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	snaps, err := s.store.List(ctx, collAvailability)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	records := []*domain.AvailabilityRecord{}
	prefix := campaignID + ":"
	for _, snap := range snaps {
		if !strings.HasPrefix(snap.ID, prefix) {
			continue
		}
		var r domain.AvailabilityRecord
		if err := snap.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode availability %s: %w", snap.ID, err)
		}
		records = append(records, &r)
	}
	return records, nil
}

// MonthSummary aggregates every member's statuses for the month and ranks
// the candidate dates. Only the host and admins may see it.
func (s *availabilityService) MonthSummary(ctx context.Context, campaignID, monthValue string, actor domain.Actor) (*domain.ScheduleSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var campaign domain.Campaign
	if err := s.store.Get(ctx, collCampaigns, campaignID, &campaign); err != nil {
		if errors.Is(err, docstore.ErrDocMissing) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if !actor.IsAdmin() && campaign.HostUID != actor.UID {
		return nil, domain.ErrForbidden
	}

	memberSnaps, err := s.store.List(ctx, collMemberships)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	var memberIDs []string
	prefix := campaignID + ":"
	for _, snap := range memberSnaps {
		if !strings.HasPrefix(snap.ID, prefix) {
			continue
		}
		var m domain.Membership
		if err := snap.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode membership %s: %w", snap.ID, err)
		}
		memberIDs = append(memberIDs, m.UserID)
	}

	records, err := s.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*domain.AvailabilityRecord, len(records))
	for _, r := range records {
		byUser[r.UserID] = r
	}
	resolve := func(userID string, key domain.DateKey) domain.AvailabilityStatus {
		return byUser[userID].Status(key)
	}

	opts := s.rankOptions
	var settings domain.CampaignSettings
	if err := s.store.Get(ctx, collSettings, campaignID, &settings); err == nil {
		opts.SkipUnanswered = settings.SkipUnanswered
	}

	keys := domain.MonthDateKeys(monthValue, nil)
	summaries := ranking.Summarize(memberIDs, keys, resolve)
	return &domain.ScheduleSummary{
		CampaignID: campaignID,
		Month:      monthValue,
		Dates:      ranking.Rank(summaries),
		Top:        ranking.TopCandidates(summaries, opts),
		AllGreen:   ranking.AllGreen(summaries, len(memberIDs)),
		AnyRed:     ranking.AnyRed(summaries),
	}, nil
}
