package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "groupsched/internal/delivery/http/helpers"
	"groupsched/internal/delivery/http/middleware"
	"groupsched/internal/domain"
)

// CreateInviteRequest is the request body for POST /campaigns/{campaignID}/invites
type CreateInviteRequest struct {
	Role string `json:"role"`
}

// Validate implements Validator.
func (c CreateInviteRequest) Validate() []string {
	role := strings.TrimSpace(strings.ToLower(c.Role))
	if role != "" && role != domain.RoleAdmin && role != domain.RoleMember {
		return []string{`role must be "admin" or "member"`}
	}
	return nil
}

// RedeemInviteRequest is the request body for POST /invites/redeem
type RedeemInviteRequest struct {
	Code string `json:"code"`
}

// Validate implements Validator.
func (rr RedeemInviteRequest) Validate() []string {
	if strings.TrimSpace(rr.Code) == "" {
		return []string{"code is required"}
	}
	return nil
}

// SetInviteEnabledRequest is the request body for PUT /campaigns/{campaignID}/invites/enabled
type SetInviteEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SendInviteEmailRequest is the request body for POST /campaigns/{campaignID}/invites/email
type SendInviteEmailRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (s SendInviteEmailRequest) Validate() []string {
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		return []string{"email is required"}
	}
	if !emailRegexp.MatchString(email) {
		return []string{"invalid email format"}
	}
	return nil
}

type InviteController struct {
	Logger      *slog.Logger
	Service     domain.InviteService
	UserService domain.UserService
}

func NewInviteController(logger *slog.Logger, svc domain.InviteService, users domain.UserService) *InviteController {
	return &InviteController{
		Logger:      logger,
		Service:     svc,
		UserService: users,
	}
}

// Create godoc
// @Summary Create an invite code
// @Description Allocate a fresh invite code for a campaign. Admin only. Retries on code collision; fails if no unique code can be allocated.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body CreateInviteRequest true "Invite options"
// @Success 201 {object} helpers.APIResponse "data contains the invite"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (code allocation exhausted)"
// @Router /campaigns/{campaignID}/invites [post]
func (c *InviteController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	var req CreateInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	role := strings.TrimSpace(strings.ToLower(req.Role))
	if role == "" {
		role = domain.RoleMember
	}
	invite, err := c.Service.CreateInvite(r.Context(), campaignID, role, *actor)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, invite)
}

// Redeem godoc
// @Summary Redeem an invite code
// @Description Join a campaign by invite code. Codes are case-insensitive. Redeeming an invite for a campaign the user already belongs to succeeds without change.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RedeemInviteRequest true "Invite code"
// @Success 200 {object} helpers.APIResponse "data contains the membership"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (revoked, disabled, or already redeemed)"
// @Router /invites/redeem [post]
func (c *InviteController) Redeem(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	var req RedeemInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.UserService.GetByID(r.Context(), actor.UID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	membership, err := c.Service.RedeemInvite(r.Context(), req.Code, user)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, membership)
}

// SetEnabled godoc
// @Summary Enable or disable a campaign's invite
// @Description Toggle whether the campaign's current invite code can be redeemed. Admin only.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body SetInviteEnabledRequest true "Enabled flag"
// @Success 200 {object} helpers.APIResponse "data contains {enabled: ...}"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /campaigns/{campaignID}/invites/enabled [put]
func (c *InviteController) SetEnabled(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	var req SetInviteEnabledRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.SetInviteEnabled(r.Context(), campaignID, req.Enabled, *actor); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

// Revoke godoc
// @Summary Revoke an invite code
// @Description Permanently revoke an invite code. A revoked code can never be redeemed again, but its slot becomes reusable for future allocations.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param code path string true "Invite code"
// @Success 200 {object} helpers.APIResponse "data contains {revoked: true}"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invites/{code} [delete]
func (c *InviteController) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	code := r.PathValue("code")
	if err := c.Service.RevokeInvite(r.Context(), code, *actor); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"revoked": true})
}

// SendEmail godoc
// @Summary Email the invite code to someone
// @Description Send the campaign's current invite code to an email address. Admin only.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body SendInviteEmailRequest true "Recipient"
// @Success 200 {object} helpers.APIResponse "data contains {sent: true}"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (invite disabled)"
// @Router /campaigns/{campaignID}/invites/email [post]
func (c *InviteController) SendEmail(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	var req SendInviteEmailRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.SendInviteEmail(r.Context(), campaignID, req.Email, *actor); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"sent": true})
}
