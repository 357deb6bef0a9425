package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"focus/internal/api/v1/dto"
	"focus/internal/middleware"
	"focus/internal/model"
	"focus/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ActivityHandler struct {
	activityService service.ActivityService
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewActivityHandler(activityService service.ActivityService, v *validator.Validate, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 activity routes
func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /activities", authMw(http.HandlerFunc(h.record)))
	mux.Handle("GET /activities", authMw(http.HandlerFunc(h.list)))
	mux.Handle("DELETE /activities/{id}", authMw(http.HandlerFunc(h.delete)))
	mux.Handle("GET /activities/stats/daily", authMw(http.HandlerFunc(h.dailyStats)))
	mux.Handle("GET /activities/stats/weekly", authMw(http.HandlerFunc(h.weeklyStats)))
	mux.Handle("GET /activities/stats/apps", authMw(http.HandlerFunc(h.appStats)))
}

func (h *ActivityHandler) record(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	var req dto.ActivityCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	activity := &model.Activity{
		UserID:          u.ID,
		AppName:         req.AppName,
		AppPackage:      req.AppPackage,
		AppCategory:     req.AppCategory,
		DurationMinutes: req.DurationMinutes,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DeviceType:      req.DeviceType,
		SessionID:       req.SessionID,
	}
	result, err := h.activityService.Record(r.Context(), activity)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("activity recording failed")
		writeError(w, http.StatusInternalServerError, "recording failed")
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecordResponseDTO{
		Activity:        dto.ActivityFromModel(result.Activity),
		State:           result.State,
		TotalMinutes:    result.TotalMinutes,
		LimitMinutes:    result.LimitMinutes,
		Blocked:         result.Blocked,
		ScheduleBlocked: result.ScheduleBlocked,
	})
}

func (h *ActivityHandler) list(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	q := r.URL.Query()
	to := parseDateOr(q.Get("to"), time.Now().AddDate(0, 0, 1))
	from := parseDateOr(q.Get("from"), to.AddDate(0, 0, -7))
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	activities, err := h.activityService.List(r.Context(), u.ID, from, to, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("activity listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	resp := make([]dto.ActivityResponseDTO, 0, len(activities))
	for i := range activities {
		resp = append(resp, dto.ActivityFromModel(&activities[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ActivityHandler) delete(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}
	if err := h.activityService.Delete(r.Context(), u.ID, id); err != nil {
		if errors.Is(err, service.ErrActivityNotFound) {
			writeError(w, http.StatusNotFound, "activity not found")
			return
		}
		h.logger.Error().Err(err).Int64("activity_id", id).Msg("activity deletion failed")
		writeError(w, http.StatusInternalServerError, "deletion failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) dailyStats(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	day := parseDateOr(r.URL.Query().Get("date"), time.Now())
	stats, err := h.activityService.DailyStats(r.Context(), u.ID, day)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("daily stats failed")
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ActivityHandler) weeklyStats(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	end := parseDateOr(r.URL.Query().Get("end"), time.Now())
	stats, err := h.activityService.WeeklyStats(r.Context(), u.ID, end)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("weekly stats failed")
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ActivityHandler) appStats(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	q := r.URL.Query()
	to := parseDateOr(q.Get("to"), time.Now().AddDate(0, 0, 1))
	from := parseDateOr(q.Get("from"), to.AddDate(0, 0, -30))
	stats, err := h.activityService.AppStats(r.Context(), u.ID, from, to)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("app stats failed")
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseDateOr parses a YYYY-MM-DD query value, falling back when absent or
// malformed.
func parseDateOr(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fallback
	}
	return t
}
