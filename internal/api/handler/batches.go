package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/notify-engine/internal/api/respond"
	"github.com/albapepper/notify-engine/internal/batch"
	"github.com/albapepper/notify-engine/internal/notifications"
)

// BatchStatus is a group's pending digest plus its timer deadline.
type BatchStatus struct {
	batch.Preview
	Deadline *time.Time `json:"deadline,omitempty"`
}

// ListBatches returns the pending state of every group.
// @Summary List pending batches
// @Tags batches
// @Produce json
// @Success 200 {array} BatchStatus
// @Router /api/v1/batches [get]
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	out := make([]BatchStatus, 0, len(notifications.Groups))
	for _, g := range notifications.Groups {
		out = append(out, h.batchStatus(g))
	}
	respond.WriteJSONObject(w, http.StatusOK, out)
}

// GetBatch previews what a digest for the group would contain right now.
// @Summary Preview a batch
// @Tags batches
// @Produce json
// @Param group path string true "Group" Enums(gameplay, social, events, rewards)
// @Success 200 {object} BatchStatus
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/batches/{group} [get]
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	g, ok := groupParam(w, r)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, h.batchStatus(g))
}

// ForceBatch delivers everything pending in the group as one digest.
// @Summary Force a batch delivery
// @Tags batches
// @Produce json
// @Param group path string true "Group" Enums(gameplay, social, events, rewards)
// @Success 200 {object} notifications.Delivery
// @Success 204 "nothing pending"
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/batches/{group} [post]
func (h *Handler) ForceBatch(w http.ResponseWriter, r *http.Request) {
	g, ok := groupParam(w, r)
	if !ok {
		return
	}
	d, delivered := h.engine.ForceDeliver(r.Context(), g, h.engine.Now())
	if !delivered {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, d)
}

// CancelBatch drops everything pending in the group.
// @Summary Cancel a batch
// @Tags batches
// @Produce json
// @Param group path string true "Group" Enums(gameplay, social, events, rewards)
// @Success 200 {object} map[string]any
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/batches/{group} [delete]
func (h *Handler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	g, ok := groupParam(w, r)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"group":   g,
		"dropped": h.engine.Cancel(g),
	})
}

func (h *Handler) batchStatus(g notifications.Group) BatchStatus {
	st := BatchStatus{Preview: h.engine.Preview(g)}
	if at, ok := h.engine.Deadline(g); ok {
		st.Deadline = &at
	}
	return st
}

func groupParam(w http.ResponseWriter, r *http.Request) (notifications.Group, bool) {
	g, err := notifications.ParseGroup(chi.URLParam(r, "group"))
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusNotFound, "UNKNOWN_GROUP", "Unknown group", err.Error())
		return "", false
	}
	return g, true
}
