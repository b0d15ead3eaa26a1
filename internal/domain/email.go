package domain

import "context"

// Mailer sends a single email.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders a named template into subject, html and text bodies.
type EmailTemplateRenderer interface {
	Render(templateName string, data interface{}) (subject, htmlBody, textBody string, err error)
}

// CampaignInviteEmailData is the payload for the campaign invite email.
type CampaignInviteEmailData struct {
	Email        string
	InviterName  string
	CampaignName string
	InviteCode   string
}

// EmailService sends application emails.
type EmailService interface {
	SendCampaignInvite(ctx context.Context, data *CampaignInviteEmailData) error
}
