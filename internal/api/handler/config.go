package handler

import (
	"net/http"
	"time"

	"github.com/albapepper/notify-engine/internal/api/respond"
	"github.com/albapepper/notify-engine/internal/cache"
	"github.com/albapepper/notify-engine/internal/notifications"
	"github.com/albapepper/notify-engine/internal/settings"
	"github.com/albapepper/notify-engine/internal/timewindow"
)

// ScheduleConfigView is the JSON form of the schedule configuration.
type ScheduleConfigView struct {
	QuietHoursEnabled bool                   `json:"quiet_hours_enabled"`
	QuietStart        int                    `json:"quiet_start"`
	QuietEnd          int                    `json:"quiet_end"`
	WeekendQuietHours bool                   `json:"weekend_quiet_hours"`
	PriorityThreshold notifications.Priority `json:"priority_threshold" swaggertype:"string" example:"high"`
	ActiveDays        string                 `json:"active_days" example:"sun,mon,tue,wed,thu,fri,sat"`
	PeakStart         int                    `json:"peak_start"`
	PeakEnd           int                    `json:"peak_end"`
}

// ScheduleConfigPatch carries a partial schedule update. Omitted fields keep
// their current values. Out-of-range hours are folded into 0-23.
type ScheduleConfigPatch struct {
	QuietHoursEnabled *bool   `json:"quiet_hours_enabled,omitempty"`
	QuietStart        *int    `json:"quiet_start,omitempty"`
	QuietEnd          *int    `json:"quiet_end,omitempty"`
	WeekendQuietHours *bool   `json:"weekend_quiet_hours,omitempty"`
	PriorityThreshold *string `json:"priority_threshold,omitempty"`
	ActiveDays        *string `json:"active_days,omitempty"`
	PeakStart         *int    `json:"peak_start,omitempty"`
	PeakEnd           *int    `json:"peak_end,omitempty"`
}

// BatchConfigView is the JSON form of the batch configuration.
type BatchConfigView struct {
	Enabled            bool  `json:"enabled"`
	MinBatchSize       int   `json:"min_batch_size"`
	MaxBatchSize       int   `json:"max_batch_size"`
	BatchDelaySeconds  int64 `json:"batch_delay_seconds"`
	MaxBatchAgeSeconds int64 `json:"max_batch_age_seconds"`
}

// BatchConfigPatch carries a partial batch update. Sizes and durations are
// clamped, never rejected.
type BatchConfigPatch struct {
	Enabled            *bool  `json:"enabled,omitempty"`
	MinBatchSize       *int   `json:"min_batch_size,omitempty"`
	MaxBatchSize       *int   `json:"max_batch_size,omitempty"`
	BatchDelaySeconds  *int64 `json:"batch_delay_seconds,omitempty"`
	MaxBatchAgeSeconds *int64 `json:"max_batch_age_seconds,omitempty"`
}

// NewScheduleConfigView converts a schedule configuration for the wire.
func NewScheduleConfigView(c settings.ScheduleConfig) ScheduleConfigView {
	return ScheduleConfigView{
		QuietHoursEnabled: c.QuietHoursEnabled,
		QuietStart:        c.QuietStart,
		QuietEnd:          c.QuietEnd,
		WeekendQuietHours: c.WeekendQuietHours,
		PriorityThreshold: c.PriorityThreshold,
		ActiveDays:        settings.FormatDays(c.ActiveDays),
		PeakStart:         c.PeakStart,
		PeakEnd:           c.PeakEnd,
	}
}

// NewBatchConfigView converts a batch configuration for the wire.
func NewBatchConfigView(c settings.BatchConfig) BatchConfigView {
	return BatchConfigView{
		Enabled:            c.Enabled,
		MinBatchSize:       c.MinBatchSize,
		MaxBatchSize:       c.MaxBatchSize,
		BatchDelaySeconds:  int64(c.BatchDelay / time.Second),
		MaxBatchAgeSeconds: int64(c.MaxBatchAge / time.Second),
	}
}

// GetScheduleConfig returns the live schedule configuration.
// @Summary Get schedule configuration
// @Tags config
// @Produce json
// @Success 200 {object} ScheduleConfigView
// @Router /api/v1/config/schedule [get]
func (h *Handler) GetScheduleConfig(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, NewScheduleConfigView(h.engine.Settings().Schedule()))
}

// PutScheduleConfig applies a partial schedule update.
// @Summary Update schedule configuration
// @Tags config
// @Accept json
// @Produce json
// @Param config body ScheduleConfigPatch true "Fields to change"
// @Success 200 {object} ScheduleConfigView
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/config/schedule [put]
func (h *Handler) PutScheduleConfig(w http.ResponseWriter, r *http.Request) {
	var patch ScheduleConfigPatch
	if err := respond.DecodeJSON(r, &patch); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", err.Error())
		return
	}

	var threshold *notifications.Priority
	if patch.PriorityThreshold != nil {
		p, err := notifications.ParsePriority(*patch.PriorityThreshold)
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PRIORITY", "Invalid priority threshold", err.Error())
			return
		}
		threshold = &p
	}
	var days *timewindow.Days
	if patch.ActiveDays != nil {
		d, err := settings.ParseDays(*patch.ActiveDays)
		if err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_DAYS", "Invalid active days", err.Error())
			return
		}
		days = &d
	}

	err := h.engine.Settings().UpdateSchedule(r.Context(), func(c *settings.ScheduleConfig) {
		setIf(&c.QuietHoursEnabled, patch.QuietHoursEnabled)
		setIf(&c.QuietStart, patch.QuietStart)
		setIf(&c.QuietEnd, patch.QuietEnd)
		setIf(&c.WeekendQuietHours, patch.WeekendQuietHours)
		setIf(&c.PriorityThreshold, threshold)
		setIf(&c.ActiveDays, days)
		setIf(&c.PeakStart, patch.PeakStart)
		setIf(&c.PeakEnd, patch.PeakEnd)
	})
	h.afterConfigWrite(w, "schedule", err, func() any {
		return NewScheduleConfigView(h.engine.Settings().Schedule())
	})
}

// ResetScheduleConfig restores the default schedule configuration.
// @Summary Reset schedule configuration
// @Tags config
// @Produce json
// @Success 200 {object} ScheduleConfigView
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/config/schedule/reset [post]
func (h *Handler) ResetScheduleConfig(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Settings().ResetScheduleDefaults(r.Context())
	h.afterConfigWrite(w, "schedule", err, func() any {
		return NewScheduleConfigView(h.engine.Settings().Schedule())
	})
}

// GetBatchConfig returns the live batch configuration.
// @Summary Get batch configuration
// @Tags config
// @Produce json
// @Success 200 {object} BatchConfigView
// @Router /api/v1/config/batch [get]
func (h *Handler) GetBatchConfig(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, NewBatchConfigView(h.engine.Settings().Batch()))
}

// PutBatchConfig applies a partial batch update.
// @Summary Update batch configuration
// @Description min_batch_size is clamped into [2, max_batch_size]; the delay is at least one second and the max age at least the delay.
// @Tags config
// @Accept json
// @Produce json
// @Param config body BatchConfigPatch true "Fields to change"
// @Success 200 {object} BatchConfigView
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/config/batch [put]
func (h *Handler) PutBatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch BatchConfigPatch
	if err := respond.DecodeJSON(r, &patch); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", err.Error())
		return
	}

	err := h.engine.Settings().UpdateBatch(r.Context(), func(c *settings.BatchConfig) {
		setIf(&c.Enabled, patch.Enabled)
		setIf(&c.MaxBatchSize, patch.MaxBatchSize)
		setIf(&c.MinBatchSize, patch.MinBatchSize)
		if patch.BatchDelaySeconds != nil {
			c.BatchDelay = settings.Seconds(*patch.BatchDelaySeconds)
		}
		if patch.MaxBatchAgeSeconds != nil {
			c.MaxBatchAge = settings.Seconds(*patch.MaxBatchAgeSeconds)
		}
	})
	h.afterConfigWrite(w, "batch", err, func() any {
		return NewBatchConfigView(h.engine.Settings().Batch())
	})
}

// ResetBatchConfig restores the default batch configuration.
// @Summary Reset batch configuration
// @Tags config
// @Produce json
// @Success 200 {object} BatchConfigView
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/config/batch/reset [post]
func (h *Handler) ResetBatchConfig(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Settings().ResetBatchDefaults(r.Context())
	h.afterConfigWrite(w, "batch", err, func() any {
		return NewBatchConfigView(h.engine.Settings().Batch())
	})
}

// afterConfigWrite drops cached reports and writes the new configuration.
// The in-memory configuration is already live when persisting fails.
func (h *Handler) afterConfigWrite(w http.ResponseWriter, section string, err error, view func() any) {
	h.cache.Invalidate(cache.PrefixOptimization)
	if err != nil {
		h.logger.Error("Settings persist failed", "section", section, "error", err)
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "PERSIST_FAILED",
			"Configuration applied but could not be persisted", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, view())
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
