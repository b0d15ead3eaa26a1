package services

// Document collections used by the scheduling services.
const (
	collUsers        = "users"
	collUserEmails   = "user_emails"
	collCampaigns    = "campaigns"
	collInvites      = "invites"
	collMemberships  = "memberships"
	collAvailability = "availability"
	collSettings     = "settings"
)
