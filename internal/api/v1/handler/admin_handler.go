package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"focus/internal/api/v1/dto"
	"focus/internal/middleware"
	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/service"

	"github.com/rs/zerolog"
)

type AdminHandler struct {
	adminService service.AdminService
	logger       zerolog.Logger
}

func NewAdminHandler(adminService service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

// RegisterRoutes mounts v1 admin routes behind both auth and admin middleware.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMw, adminMw func(http.Handler) http.Handler) {
	guard := func(next http.HandlerFunc) http.Handler {
		return authMw(adminMw(next))
	}
	mux.Handle("GET /admin/users", guard(h.listUsers))
	mux.Handle("POST /admin/users/{id}/suspend", guard(h.suspendUser))
	mux.Handle("POST /admin/users/{id}/activate", guard(h.activateUser))
	mux.Handle("DELETE /admin/users/{id}", guard(h.deleteUser))
	mux.Handle("GET /admin/stats", guard(h.stats))
	mux.Handle("GET /admin/stats/apps", guard(h.appUsage))
	mux.Handle("GET /admin/logs", guard(h.logs))
	mux.Handle("DELETE /admin/logs", guard(h.pruneLogs))
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	users, err := h.adminService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("admin user listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	resp := make([]dto.UserResponseDTO, 0, len(users))
	for i := range users {
		resp = append(resp, dto.UserFromModel(&users[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	admin, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.adminService.SetUserActive(r.Context(), admin.ID, id, active); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("admin user update failed")
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) suspendUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *AdminHandler) activateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.adminService.DeleteUser(r.Context(), admin.ID, id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("admin user deletion failed")
		writeError(w, http.StatusInternalServerError, "deletion failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("admin stats failed")
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) appUsage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, _ := strconv.Atoi(q.Get("days"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	stats, err := h.adminService.AppUsage(r.Context(), days, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("admin app usage failed")
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) logs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.LogFilter{
		Action: model.LogAction(q.Get("action")),
		Level:  model.LogLevel(q.Get("level")),
	}
	if v := q.Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.UserID = &id
		}
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	logs, err := h.adminService.Logs(r.Context(), f)
	if err != nil {
		h.logger.Error().Err(err).Msg("admin log listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AdminHandler) pruneLogs(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("older_than_days"))
	if days <= 0 {
		days = 90
	}
	pruned, err := h.adminService.PruneLogs(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.logger.Error().Err(err).Msg("log pruning failed")
		writeError(w, http.StatusInternalServerError, "pruning failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pruned": pruned, "older_than_days": days})
}
