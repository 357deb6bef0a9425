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

type BlockedAppHandler struct {
	blockedService service.BlockedAppService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewBlockedAppHandler(blockedService service.BlockedAppService, v *validator.Validate, logger zerolog.Logger) *BlockedAppHandler {
	return &BlockedAppHandler{blockedService: blockedService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 blocked-app routes
func (h *BlockedAppHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /blocked-apps", authMw(http.HandlerFunc(h.create)))
	mux.Handle("GET /blocked-apps", authMw(http.HandlerFunc(h.list)))
	mux.Handle("GET /blocked-apps/status", authMw(http.HandlerFunc(h.statusAll)))
	mux.Handle("GET /blocked-apps/{id}", authMw(http.HandlerFunc(h.get)))
	mux.Handle("PUT /blocked-apps/{id}", authMw(http.HandlerFunc(h.update)))
	mux.Handle("DELETE /blocked-apps/{id}", authMw(http.HandlerFunc(h.delete)))
	mux.Handle("GET /blocked-apps/{id}/status", authMw(http.HandlerFunc(h.status)))
	mux.Handle("POST /blocked-apps/{id}/reset", authMw(http.HandlerFunc(h.reset)))
}

func (h *BlockedAppHandler) decodeConfig(w http.ResponseWriter, r *http.Request, userID int64) (*model.BlockedApp, bool) {
	var req dto.BlockedAppCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return nil, false
	}
	return &model.BlockedApp{
		UserID:            userID,
		AppName:           req.AppName,
		AppPackage:        req.AppPackage,
		AppCategory:       req.AppCategory,
		DailyLimitMinutes: req.DailyLimitMinutes,
		BlockStart:        req.BlockStart,
		BlockEnd:          req.BlockEnd,
		BlockWeekdays:     req.BlockWeekdays,
	}, true
}

func (h *BlockedAppHandler) create(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	cfg, ok := h.decodeConfig(w, r, u.ID)
	if !ok {
		return
	}
	created, err := h.blockedService.Create(r.Context(), cfg)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateBlockedApp):
			writeError(w, http.StatusConflict, "app already has an active limit")
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("blocked app creation failed")
			writeError(w, http.StatusInternalServerError, "creation failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, dto.BlockedAppFromModel(created))
}

func (h *BlockedAppHandler) list(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	apps, err := h.blockedService.List(r.Context(), u.ID, includeInactive)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("blocked app listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	resp := make([]dto.BlockedAppResponseDTO, 0, len(apps))
	for i := range apps {
		resp = append(resp, dto.BlockedAppFromModel(&apps[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BlockedAppHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *BlockedAppHandler) get(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	app, err := h.blockedService.Get(r.Context(), u.ID, id)
	if err != nil {
		if errors.Is(err, service.ErrBlockedAppNotFound) {
			writeError(w, http.StatusNotFound, "blocked app not found")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("blocked app fetch failed")
		writeError(w, http.StatusInternalServerError, "fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, dto.BlockedAppFromModel(app))
}

func (h *BlockedAppHandler) update(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	cfg, ok := h.decodeConfig(w, r, u.ID)
	if !ok {
		return
	}
	cfg.ID = id
	updated, err := h.blockedService.Update(r.Context(), u.ID, cfg)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBlockedAppNotFound):
			writeError(w, http.StatusNotFound, "blocked app not found")
		case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Int64("id", id).Msg("blocked app update failed")
			writeError(w, http.StatusInternalServerError, "update failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, dto.BlockedAppFromModel(updated))
}

func (h *BlockedAppHandler) delete(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.blockedService.Delete(r.Context(), u.ID, id); err != nil {
		if errors.Is(err, service.ErrBlockedAppNotFound) {
			writeError(w, http.StatusNotFound, "blocked app not found")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("blocked app deletion failed")
		writeError(w, http.StatusInternalServerError, "deletion failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlockedAppHandler) status(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	st, err := h.blockedService.Status(r.Context(), u.ID, id, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrBlockedAppNotFound) {
			writeError(w, http.StatusNotFound, "blocked app not found")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("status computation failed")
		writeError(w, http.StatusInternalServerError, "status failed")
		return
	}
	writeJSON(w, http.StatusOK, dto.StatusFromModel(st))
}

func (h *BlockedAppHandler) statusAll(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	statuses, err := h.blockedService.StatusAll(r.Context(), u.ID, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("status listing failed")
		writeError(w, http.StatusInternalServerError, "status failed")
		return
	}
	resp := make([]dto.BlockedAppStatusDTO, 0, len(statuses))
	for i := range statuses {
		resp = append(resp, dto.StatusFromModel(&statuses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BlockedAppHandler) reset(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.blockedService.ResetUsage(r.Context(), u.ID, id); err != nil {
		if errors.Is(err, service.ErrBlockedAppNotFound) {
			writeError(w, http.StatusNotFound, "blocked app not found")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("usage reset failed")
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "usage reset"})
}
