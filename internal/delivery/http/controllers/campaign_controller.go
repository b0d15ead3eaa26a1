package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "groupsched/internal/delivery/http/helpers"
	"groupsched/internal/delivery/http/middleware"
	"groupsched/internal/domain"
)

// CreateCampaignRequest is the request body for POST /campaigns
type CreateCampaignRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (c CreateCampaignRequest) Validate() []string {
	var errs []string
	name := strings.TrimSpace(c.Name)
	if name == "" {
		errs = append(errs, "name is required")
	} else if len(name) > 120 {
		errs = append(errs, "name must be at most 120 characters")
	}
	return errs
}

// CampaignResponse is the campaign with its member list.
type CampaignResponse struct {
	Campaign *domain.Campaign     `json:"campaign"`
	Members  []*domain.Membership `json:"members,omitempty"`
}

// KickMemberRequest is the request body for POST /campaigns/{campaignID}/kick
type KickMemberRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (k KickMemberRequest) Validate() []string {
	if strings.TrimSpace(k.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

// ReassignHostRequest is the request body for PUT /campaigns/{campaignID}/host
type ReassignHostRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (rr ReassignHostRequest) Validate() []string {
	if strings.TrimSpace(rr.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

type CampaignController struct {
	Logger      *slog.Logger
	Service     domain.CampaignService
	UserService domain.UserService
}

func NewCampaignController(logger *slog.Logger, svc domain.CampaignService, users domain.UserService) *CampaignController {
	return &CampaignController{
		Logger:      logger,
		Service:     svc,
		UserService: users,
	}
}

// Create godoc
// @Summary Create a campaign
// @Description Create a scheduling campaign. The creator becomes the first member and the host, and an invite code is allocated atomically with the campaign.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCampaignRequest true "Campaign data"
// @Success 201 {object} helpers.APIResponse "data contains the campaign"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (invite code allocation exhausted)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /campaigns [post]
func (c *CampaignController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	var req CreateCampaignRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	creator, err := c.UserService.GetByID(r.Context(), actor.UID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	campaign, err := c.Service.CreateCampaign(r.Context(), strings.TrimSpace(req.Name), creator)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, CampaignResponse{Campaign: campaign})
}

// Get godoc
// @Summary Get a campaign
// @Description Fetch a campaign and its member list. Members and admins only.
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Success 200 {object} helpers.APIResponse "data contains the campaign and members"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /campaigns/{campaignID} [get]
func (c *CampaignController) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	campaign, members, err := c.Service.GetCampaign(r.Context(), campaignID, *actor)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CampaignResponse{Campaign: campaign, Members: members})
}

// Delete godoc
// @Summary Delete a campaign
// @Description Delete a campaign and all dependent documents (invite, settings, memberships, availability). Safe to re-invoke if a previous deletion was interrupted.
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Success 200 {object} helpers.APIResponse "data contains {deleted: true}"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error (deletion incomplete, retry)"
// @Router /campaigns/{campaignID} [delete]
func (c *CampaignController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	if err := c.Service.DeleteCampaign(r.Context(), campaignID, *actor); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Kick godoc
// @Summary Remove a member from a campaign
// @Description Remove a member and their availability record. If the kicked member was the host, the host seat moves to another member or is left vacant.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body KickMemberRequest true "Member to remove"
// @Success 200 {object} helpers.APIResponse "data contains {kicked: true}"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /campaigns/{campaignID}/kick [post]
func (c *CampaignController) Kick(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	var req KickMemberRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.KickMember(r.Context(), campaignID, req.UserID, *actor); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"kicked": true})
}

// ReassignHost godoc
// @Summary Reassign the campaign host
// @Description Move the host seat to another member. The target must already be a member.
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body ReassignHostRequest true "New host"
// @Success 200 {object} helpers.APIResponse "data contains {host_uid: ...}"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (target is not a member)"
// @Router /campaigns/{campaignID}/host [put]
func (c *CampaignController) ReassignHost(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	var req ReassignHostRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ReassignHost(r.Context(), campaignID, req.UserID, *actor); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]string{"host_uid": req.UserID})
}
