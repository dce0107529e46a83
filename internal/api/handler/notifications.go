package handler

import (
	"net/http"
	"time"

	"github.com/albapepper/notify-engine/internal/api/respond"
	"github.com/albapepper/notify-engine/internal/notifications"
)

// NotificationRequest is the body of the schedule and admit endpoints.
type NotificationRequest struct {
	Category string            `json:"category" example:"daily_reward"`
	ID       string            `json:"id,omitempty"`
	Title    string            `json:"title" example:"Daily reward ready"`
	Body     string            `json:"body" example:"Claim 50 coins"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EngagementRequest is the body of the engagement endpoint.
type EngagementRequest struct {
	NotificationID string     `json:"notification_id"`
	Group          string     `json:"group" example:"rewards"`
	At             *time.Time `json:"at,omitempty"`
}

// ThrottleStateResponse is the rate limiter bookkeeping.
type ThrottleStateResponse struct {
	HourStart time.Time            `json:"hour_start"`
	HourCount map[string]int       `json:"hour_count"`
	LastFire  map[string]time.Time `json:"last_fire"`
}

// ScheduleNotification runs a request through the scheduling engine.
// @Summary Schedule a notification
// @Description Batches low priority requests and rate-limits the rest. Denied requests are dropped and reported in the decision.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body NotificationRequest true "Notification"
// @Success 200 {object} scheduler.Decision
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/notifications [post]
func (h *Handler) ScheduleNotification(w http.ResponseWriter, r *http.Request) {
	now := h.engine.Now()
	req, ok := h.decodeNotification(w, r, now)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, h.engine.Schedule(r.Context(), req, now))
}

// AdmitNotification evaluates a request without changing any state.
// @Summary Dry-run admission check
// @Description Reports whether the rate limiter would admit the request right now. Nothing is recorded.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body NotificationRequest true "Notification"
// @Success 200 {object} throttle.AdmitResult
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/notifications/admit [post]
func (h *Handler) AdmitNotification(w http.ResponseWriter, r *http.Request) {
	now := h.engine.Now()
	req, ok := h.decodeNotification(w, r, now)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, h.engine.ShouldAdmit(req, now))
}

// RecordEngagement notes that a user opened a delivered notification.
// @Summary Record an engagement
// @Tags notifications
// @Accept json
// @Param request body EngagementRequest true "Engagement"
// @Success 204
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/engagements [post]
func (h *Handler) RecordEngagement(w http.ResponseWriter, r *http.Request) {
	var body EngagementRequest
	if err := respond.DecodeJSON(r, &body); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", err.Error())
		return
	}
	if body.NotificationID == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_ID", "notification_id is required")
		return
	}
	g, err := notifications.ParseGroup(body.Group)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "UNKNOWN_GROUP", "Unknown group", err.Error())
		return
	}
	at := h.engine.Now()
	if body.At != nil {
		at = *body.At
	}
	if err := h.engine.RecordEngagement(r.Context(), body.NotificationID, g, at); err != nil {
		h.logger.Error("Engagement record failed", "id", body.NotificationID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "RECORD_FAILED", "Could not record engagement")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetThrottleState returns the rate limiter bookkeeping.
// @Summary Rate limiter state
// @Tags notifications
// @Produce json
// @Success 200 {object} ThrottleStateResponse
// @Router /api/v1/throttle [get]
func (h *Handler) GetThrottleState(w http.ResponseWriter, r *http.Request) {
	st := h.engine.ThrottleState(h.engine.Now())
	resp := ThrottleStateResponse{
		HourStart: st.HourStart,
		HourCount: make(map[string]int, len(st.HourCount)),
		LastFire:  make(map[string]time.Time, len(st.LastFire)),
	}
	for p, n := range st.HourCount {
		resp.HourCount[p.String()] = n
	}
	for c, t := range st.LastFire {
		resp.LastFire[string(c)] = t
	}
	respond.WriteJSONObject(w, http.StatusOK, resp)
}

func (h *Handler) decodeNotification(w http.ResponseWriter, r *http.Request, now time.Time) (notifications.Request, bool) {
	var body NotificationRequest
	if err := respond.DecodeJSON(r, &body); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", err.Error())
		return notifications.Request{}, false
	}
	category, err := notifications.ParseCategory(body.Category)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "UNKNOWN_CATEGORY", "Unknown notification category", err.Error())
		return notifications.Request{}, false
	}
	req, err := notifications.NewRequest(category, notifications.Payload{
		ID:       body.ID,
		Title:    body.Title,
		Body:     body.Body,
		Metadata: body.Metadata,
	}, now)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid notification", err.Error())
		return notifications.Request{}, false
	}
	return req, true
}
