package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/docstore"
	"groupsched/internal/domain"
)

const testTimeout = 5 * time.Second

var (
	adminActor  = domain.Actor{UID: "admin-1", Roles: []string{domain.RoleAdmin, domain.RoleMember}}
	memberActor = domain.Actor{UID: "member-1", Roles: []string{domain.RoleMember}}
)

func testUser(id, name string) *domain.User {
	return &domain.User{
		ID:    id,
		Email: id + "@example.com",
		Name:  name,
		Roles: []string{domain.RoleMember},
	}
}

// codeSequence returns a generator that yields the given codes in order.
func codeSequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func newTestInviteService(t *testing.T, store docstore.Store, codes ...string) *inviteService {
	t.Helper()
	svc := NewInviteService(store, nil, nil, testTimeout).(*inviteService)
	if len(codes) > 0 {
		svc.generateCode = codeSequence(codes...)
	}
	return svc
}

// seedCampaign writes a campaign with an active invite straight into the store.
func seedCampaign(t *testing.T, store docstore.Store, campaignID, code, hostUID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, collCampaigns, campaignID, &domain.Campaign{
		ID:            campaignID,
		Name:          "Autumn session",
		InviteCode:    code,
		InviteEnabled: code != "",
		CreatedByUID:  "admin-1",
		HostUID:       hostUID,
	}))
	if code != "" {
		require.NoError(t, store.Set(ctx, collInvites, code, &domain.Invite{
			Code:         code,
			CampaignID:   campaignID,
			Role:         domain.RoleMember,
			Enabled:      true,
			CreatedByUID: "admin-1",
		}))
	}
}

func TestGenerateInviteCode_Shape(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateInviteCode()
		require.NoError(t, err)
		assert.True(t, ValidInviteCodeShape(code), "code %q", code)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		assert.NotContains(t, code, "L")
	}
}

func TestValidInviteCodeShape(t *testing.T) {
	assert.True(t, ValidInviteCodeShape("QX7M-KF42-PWH9"))
	assert.False(t, ValidInviteCodeShape("qx7m-kf42-pwh9"))
	assert.False(t, ValidInviteCodeShape("QX7M-KF42"))
	assert.False(t, ValidInviteCodeShape("QX0M-KF42-PWH9"), "ambiguous characters excluded")
	assert.False(t, ValidInviteCodeShape("TEAM-ALPHA-2024"))
}

func TestCreateInvite_AllocatesAndUpdatesCampaign(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "", "admin-1")
	svc := newTestInviteService(t, store, "AAAA-BBBB-CCCC")

	inv, err := svc.CreateInvite(ctx, "camp-1", domain.RoleMember, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "AAAA-BBBB-CCCC", inv.Code)
	assert.True(t, inv.Enabled)

	var campaign domain.Campaign
	require.NoError(t, store.Get(ctx, collCampaigns, "camp-1", &campaign))
	assert.Equal(t, "AAAA-BBBB-CCCC", campaign.InviteCode)
	assert.True(t, campaign.InviteEnabled)
}

func TestCreateInvite_RetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "TAKEN-CODE-HERE", "admin-1")
	seedCampaign(t, store, "camp-2", "", "admin-1")

	svc := newTestInviteService(t, store, "TAKEN-CODE-HERE", "FRESH-CODE-HERE")

	inv, err := svc.CreateInvite(ctx, "camp-2", domain.RoleMember, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "FRESH-CODE-HERE", inv.Code)
}

func TestCreateInvite_ExhaustsAfterBoundedAttempts(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "TAKEN-CODE-HERE", "admin-1")
	seedCampaign(t, store, "camp-2", "", "admin-1")

	attempts := 0
	svc := newTestInviteService(t, store)
	svc.generateCode = func() (string, error) {
		attempts++
		return "TAKEN-CODE-HERE", nil
	}

	_, err := svc.CreateInvite(ctx, "camp-2", domain.RoleMember, adminActor)
	require.ErrorIs(t, err, domain.ErrCodeExhausted)
	assert.Equal(t, createInviteAttempts, attempts, "exactly the bounded number of attempts")

	var campaign domain.Campaign
	require.NoError(t, store.Get(ctx, collCampaigns, "camp-2", &campaign))
	assert.Empty(t, campaign.InviteCode, "no partial writes after exhaustion")
}

func TestCreateInvite_ReusesRevokedSlot(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "", "admin-1")
	require.NoError(t, store.Set(ctx, collInvites, "OLDC-ODES-LOTX", &domain.Invite{
		Code: "OLDC-ODES-LOTX", CampaignID: "camp-0", Revoked: true,
	}))

	svc := newTestInviteService(t, store, "OLDC-ODES-LOTX")
	inv, err := svc.CreateInvite(ctx, "camp-1", domain.RoleMember, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "camp-1", inv.CampaignID)
	assert.False(t, inv.Revoked)
}

func TestCreateInvite_DisablesReplacedCode(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "AAAA-BBBB-CCCC", "admin-1")

	svc := newTestInviteService(t, store, "DDDD-EEEE-FFFF")
	inv, err := svc.CreateInvite(ctx, "camp-1", domain.RoleMember, adminActor)
	require.NoError(t, err)
	require.Equal(t, "DDDD-EEEE-FFFF", inv.Code)

	var old domain.Invite
	require.NoError(t, store.Get(ctx, collInvites, "AAAA-BBBB-CCCC", &old))
	assert.False(t, old.Enabled, "replaced code must stop redeeming")

	_, err = svc.RedeemInvite(ctx, "AAAA-BBBB-CCCC", testUser("user-2", "Blake"))
	require.ErrorIs(t, err, domain.ErrInviteDisabled)

	m, err := svc.RedeemInvite(ctx, "DDDD-EEEE-FFFF", testUser("user-2", "Blake"))
	require.NoError(t, err)
	assert.Equal(t, "camp-1", m.CampaignID)
}

func TestCreateInvite_RequiresAdmin(t *testing.T) {
	store := docstore.NewMemoryStore()
	defer store.Close()
	svc := newTestInviteService(t, store, "AAAA-BBBB-CCCC")

	_, err := svc.CreateInvite(context.Background(), "camp-1", domain.RoleMember, memberActor)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRedeemInvite_CreatesMembership(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "AAAA-BBBB-CCCC", "admin-1")
	svc := newTestInviteService(t, store)

	// Codes are case-insensitive on input.
	m, err := svc.RedeemInvite(ctx, "  aaaa-bbbb-cccc ", testUser("user-9", "Quinn"))
	require.NoError(t, err)
	assert.Equal(t, "camp-1", m.CampaignID)
	assert.Equal(t, "Quinn", m.DisplayName)

	var stored domain.Membership
	require.NoError(t, store.Get(ctx, collMemberships, domain.MembershipDocID("camp-1", "user-9"), &stored))
	assert.Equal(t, "user-9", stored.UserID)
}

func TestRedeemInvite_AssignsHostWhenSeatVacant(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "AAAA-BBBB-CCCC", "")
	svc := newTestInviteService(t, store)

	_, err := svc.RedeemInvite(ctx, "AAAA-BBBB-CCCC", testUser("user-9", "Quinn"))
	require.NoError(t, err)

	var campaign domain.Campaign
	require.NoError(t, store.Get(ctx, collCampaigns, "camp-1", &campaign))
	assert.Equal(t, "user-9", campaign.HostUID)
}

func TestRedeemInvite_ErrorCases(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "AAAA-BBBB-CCCC", "admin-1")
	require.NoError(t, store.Set(ctx, collInvites, "REVO-KEDC-ODEX", &domain.Invite{
		Code: "REVO-KEDC-ODEX", CampaignID: "camp-1", Revoked: true,
	}))
	require.NoError(t, store.Set(ctx, collInvites, "DISA-BLED-CODE", &domain.Invite{
		Code: "DISA-BLED-CODE", CampaignID: "camp-1", Enabled: false,
	}))
	require.NoError(t, store.Set(ctx, collInvites, "SING-LEUS-EDXX", &domain.Invite{
		Code: "SING-LEUS-EDXX", CampaignID: "camp-1", Enabled: true,
		SingleUse: true, RedeemedByUID: "someone-else",
	}))
	svc := newTestInviteService(t, store)

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"unknown code", "ZZZZ-ZZZZ-ZZZZ", domain.ErrInviteNotFound},
		{"revoked", "REVO-KEDC-ODEX", domain.ErrInviteRevoked},
		{"disabled", "DISA-BLED-CODE", domain.ErrInviteDisabled},
		{"single use by another user", "SING-LEUS-EDXX", domain.ErrInviteAlreadyRedeemed},
		{"empty code", "", domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RedeemInvite(ctx, tt.code, testUser("user-9", "Quinn"))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedeemInvite_SameUserIdempotent(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "AAAA-BBBB-CCCC", "admin-1")
	require.NoError(t, store.Set(ctx, collInvites, "SING-LEUS-EDXX", &domain.Invite{
		Code: "SING-LEUS-EDXX", CampaignID: "camp-1", Enabled: true, SingleUse: true,
	}))
	svc := newTestInviteService(t, store)
	user := testUser("user-9", "Quinn")

	_, err := svc.RedeemInvite(ctx, "SING-LEUS-EDXX", user)
	require.NoError(t, err)
	_, err = svc.RedeemInvite(ctx, "SING-LEUS-EDXX", user)
	require.NoError(t, err, "re-redemption by the same user succeeds")
}

func TestRedeemInvite_LegacyStaticCode(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-legacy", "", "admin-1")

	svc := NewInviteService(store, nil, map[string]LegacyInvite{
		"OLDTEAMCODE": {CampaignID: "camp-legacy", Role: domain.RoleMember},
	}, testTimeout).(*inviteService)

	m, err := svc.RedeemInvite(ctx, "oldteamcode", testUser("user-9", "Quinn"))
	require.NoError(t, err)
	assert.Equal(t, "camp-legacy", m.CampaignID)
}

func TestRedeemInvite_StoredInviteShadowsLegacyCode(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "", "admin-1")
	require.NoError(t, store.Set(ctx, collInvites, "SHARED", &domain.Invite{
		Code: "SHARED", CampaignID: "camp-1", Revoked: true,
	}))

	svc := NewInviteService(store, nil, map[string]LegacyInvite{
		"SHARED": {CampaignID: "camp-other", Role: domain.RoleMember},
	}, testTimeout).(*inviteService)

	_, err := svc.RedeemInvite(ctx, "SHARED", testUser("user-9", "Quinn"))
	require.ErrorIs(t, err, domain.ErrInviteRevoked,
		"a stored invite wins over a legacy code with the same value")
}

func TestSetInviteEnabled_TogglesInviteAndCampaign(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "AAAA-BBBB-CCCC", "admin-1")
	svc := newTestInviteService(t, store)

	require.NoError(t, svc.SetInviteEnabled(ctx, "camp-1", false, adminActor))

	var inv domain.Invite
	require.NoError(t, store.Get(ctx, collInvites, "AAAA-BBBB-CCCC", &inv))
	assert.False(t, inv.Enabled)
	var campaign domain.Campaign
	require.NoError(t, store.Get(ctx, collCampaigns, "camp-1", &campaign))
	assert.False(t, campaign.InviteEnabled)

	_, err := svc.RedeemInvite(ctx, "AAAA-BBBB-CCCC", testUser("user-9", "Quinn"))
	require.ErrorIs(t, err, domain.ErrInviteDisabled)
}

func TestRevokeInvite_DisablesCampaignInvite(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	defer store.Close()
	seedCampaign(t, store, "camp-1", "AAAA-BBBB-CCCC", "admin-1")
	svc := newTestInviteService(t, store)

	require.NoError(t, svc.RevokeInvite(ctx, "AAAA-BBBB-CCCC", adminActor))

	var inv domain.Invite
	require.NoError(t, store.Get(ctx, collInvites, "AAAA-BBBB-CCCC", &inv))
	assert.True(t, inv.Revoked)
	assert.False(t, inv.Enabled)

	var campaign domain.Campaign
	require.NoError(t, store.Get(ctx, collCampaigns, "camp-1", &campaign))
	assert.False(t, campaign.InviteEnabled)

	_, err := svc.RedeemInvite(ctx, "AAAA-BBBB-CCCC", testUser("user-9", "Quinn"))
	require.ErrorIs(t, err, domain.ErrInviteRevoked)
}
