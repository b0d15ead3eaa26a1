package services

import (
	"context"
	"fmt"

	"groupsched/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService creates an EmailService over the given mailer and
// template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

func (s *emailService) SendCampaignInvite(ctx context.Context, data *domain.CampaignInviteEmailData) error {
	subject, htmlBody, textBody, err := s.renderer.Render("campaign_invite", data)
	if err != nil {
		return fmt.Errorf("render campaign invite email: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send campaign invite email: %w", err)
	}
	return nil
}
