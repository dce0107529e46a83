package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/albapepper/notify-engine/internal/api/respond"
	"github.com/albapepper/notify-engine/internal/cache"
	"github.com/albapepper/notify-engine/internal/scheduler"
)

// MaxReportDays bounds the optimization timeframe.
const MaxReportDays = 90

// GetOptimization returns suggestions derived from recent analytics. It
// never changes configuration.
// @Summary Schedule optimization report
// @Description Analyses the trailing timeframe and suggests quiet hours, peak hours, priority threshold and active days. Cached with ETag support.
// @Tags optimizer
// @Produce json
// @Param days query int false "Timeframe in days (1-90)" default(7)
// @Success 200 {object} optimizer.Report
// @Success 304 "Not modified"
// @Failure 400 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/v1/optimization [get]
func (h *Handler) GetOptimization(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxReportDays {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_DAYS",
				fmt.Sprintf("days must be an integer between 1 and %d", MaxReportDays))
			return
		}
		days = n
	}

	cacheKey := fmt.Sprintf("%s%d", cache.PrefixOptimization, days)
	ttl := cache.TTLReport

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	report, err := h.engine.OptimizationReport(r.Context(), time.Duration(days)*24*time.Hour)
	if errors.Is(err, scheduler.ErrNoAnalytics) {
		respond.WriteError(w, http.StatusServiceUnavailable, "NO_ANALYTICS", "Analytics are not configured")
		return
	}
	if err != nil {
		h.logger.Error("Optimization report failed", "days", days, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "REPORT_FAILED", "Could not build optimization report")
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Could not encode report")
		return
	}
	etag := h.cache.Set(cacheKey, raw, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, raw, etag, ttl, false)
}
