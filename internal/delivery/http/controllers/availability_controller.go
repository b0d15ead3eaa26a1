package controllers

import (
	"log/slog"
	"net/http"
	"time"

	h "groupsched/internal/delivery/http/helpers"
	"groupsched/internal/delivery/http/middleware"
	"groupsched/internal/domain"
)

// SaveDaysRequest is the request body for PUT /campaigns/{campaignID}/availability
// Statuses are the labels AVAILABLE, MAYBE, UNAVAILABLE, or UNSPECIFIED;
// UNSPECIFIED clears the day.
type SaveDaysRequest struct {
	Days map[domain.DateKey]domain.AvailabilityStatus `json:"days"`
}

// Validate implements Validator.
func (s SaveDaysRequest) Validate() []string {
	var errs []string
	if len(s.Days) == 0 {
		errs = append(errs, "days is required")
	}
	for key := range s.Days {
		if !domain.IsValidDateKey(key) {
			errs = append(errs, "invalid date key "+string(key))
		}
	}
	return errs
}

// CalendarResponse is a month grid with the user's own statuses filled in.
type CalendarResponse struct {
	Month string                                       `json:"month"`
	Grid  [][]domain.DateKey                           `json:"grid"`
	Days  map[domain.DateKey]domain.AvailabilityStatus `json:"days"`
}

type AvailabilityController struct {
	Logger  *slog.Logger
	Service domain.AvailabilityService
	// WeekStart is the first day of week for calendar grids when the
	// request does not say otherwise.
	WeekStart time.Weekday
}

func NewAvailabilityController(logger *slog.Logger, svc domain.AvailabilityService, weekStart time.Weekday) *AvailabilityController {
	return &AvailabilityController{
		Logger:    logger,
		Service:   svc,
		WeekStart: weekStart,
	}
}

// GetOwn godoc
// @Summary Get the caller's availability record
// @Description Fetch the authenticated user's day-by-day answers for a campaign. A user with no saved answers gets an empty record.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Success 200 {object} helpers.APIResponse "data contains the availability record"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /campaigns/{campaignID}/availability [get]
func (c *AvailabilityController) GetOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	record, err := c.Service.GetRecord(r.Context(), campaignID, actor.UID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, record)
}

// SaveOwn godoc
// @Summary Save the caller's availability
// @Description Replace the authenticated user's day-by-day answers for a campaign. Days set to UNSPECIFIED are cleared. Members only.
// @Tags availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body SaveDaysRequest true "Day statuses"
// @Success 200 {object} helpers.APIResponse "data contains the saved record"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not a member)"
// @Router /campaigns/{campaignID}/availability [put]
func (c *AvailabilityController) SaveOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	var req SaveDaysRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.SaveDays(r.Context(), campaignID, actor.UID, req.Days); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	record, err := c.Service.GetRecord(r.Context(), campaignID, actor.UID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, record)
}

// Calendar godoc
// @Summary Get the month calendar grid
// @Description Return the month's week-aligned grid of date keys with the caller's own statuses. The month query parameter is YYYY-MM; missing or malformed values fall back to the current month.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param month query string false "Month (YYYY-MM)"
// @Param week_start query int false "First day of week (0 = Sunday, 1 = Monday); overrides the configured default"
// @Success 200 {object} helpers.APIResponse "data contains the grid and day statuses"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /campaigns/{campaignID}/calendar [get]
func (c *AvailabilityController) Calendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	month := r.URL.Query().Get("month")
	weekStart := c.WeekStart
	switch r.URL.Query().Get("week_start") {
	case "0":
		weekStart = time.Sunday
	case "1":
		weekStart = time.Monday
	}

	record, err := c.Service.GetRecord(r.Context(), campaignID, actor.UID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	grid := domain.CalendarGrid(month, weekStart, nil)
	h.WriteJSONSuccess(w, http.StatusOK, CalendarResponse{
		Month: month,
		Grid:  grid,
		Days:  record.Days,
	})
}

// Summary godoc
// @Summary Get the host's month summary
// @Description Aggregate every member's statuses for the month and rank candidate dates, best first. Host and admins only.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} helpers.APIResponse "data contains the schedule summary"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /campaigns/{campaignID}/summary [get]
func (c *AvailabilityController) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authentication")
		return
	}
	campaignID := r.PathValue("campaignID")
	month := r.URL.Query().Get("month")
	summary, err := c.Service.MonthSummary(r.Context(), campaignID, month, *actor)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, summary)
}
