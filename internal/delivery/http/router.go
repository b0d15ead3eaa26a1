package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"groupsched/internal/delivery/http/controllers"
	"groupsched/internal/delivery/http/middleware"
	"groupsched/internal/domain"
)

// Controllers bundles the handler groups the router mounts.
type Controllers struct {
	Auth         *controllers.AuthController
	Campaign     *controllers.CampaignController
	Invite       *controllers.InviteController
	Availability *controllers.AvailabilityController
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/signin", c.Auth.SignIn)
	mux.HandleFunc("GET /auth/me", auth(c.Auth.Me))

	// Campaigns
	mux.HandleFunc("POST /campaigns", auth(c.Campaign.Create))
	mux.HandleFunc("GET /campaigns/{campaignID}", auth(c.Campaign.Get))
	mux.HandleFunc("DELETE /campaigns/{campaignID}", auth(c.Campaign.Delete))
	mux.HandleFunc("POST /campaigns/{campaignID}/kick", auth(c.Campaign.Kick))
	mux.HandleFunc("PUT /campaigns/{campaignID}/host", auth(c.Campaign.ReassignHost))

	// Invites
	mux.HandleFunc("POST /campaigns/{campaignID}/invites", auth(c.Invite.Create))
	mux.HandleFunc("PUT /campaigns/{campaignID}/invites/enabled", auth(c.Invite.SetEnabled))
	mux.HandleFunc("POST /campaigns/{campaignID}/invites/email", auth(c.Invite.SendEmail))
	mux.HandleFunc("POST /invites/redeem", auth(c.Invite.Redeem))
	mux.HandleFunc("DELETE /invites/{code}", auth(c.Invite.Revoke))

	// Availability
	mux.HandleFunc("GET /campaigns/{campaignID}/availability", auth(c.Availability.GetOwn))
	mux.HandleFunc("PUT /campaigns/{campaignID}/availability", auth(c.Availability.SaveOwn))
	mux.HandleFunc("GET /campaigns/{campaignID}/calendar", auth(c.Availability.Calendar))
	mux.HandleFunc("GET /campaigns/{campaignID}/summary", auth(c.Availability.Summary))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
