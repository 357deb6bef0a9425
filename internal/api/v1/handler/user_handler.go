package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"focus/internal/api/v1/dto"
	"focus/internal/middleware"
	"focus/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewUserHandler(userService service.UserService, v *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /users/me", authMw(http.HandlerFunc(h.getMe)))
	mux.Handle("PATCH /users/me", authMw(http.HandlerFunc(h.updateMe)))
	mux.Handle("DELETE /users/me", authMw(http.HandlerFunc(h.deleteMe)))
	mux.Handle("POST /users/me/password", authMw(http.HandlerFunc(h.changePassword)))
	mux.Handle("GET /users/search", authMw(http.HandlerFunc(h.search)))
	mux.Handle("GET /users/{id}", authMw(http.HandlerFunc(h.getPublic)))
}

func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	writeJSON(w, http.StatusOK, dto.UserFromModel(u))
}

func (h *UserHandler) getPublic(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	u, err := h.userService.GetPublic(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("profile lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, dto.PublicUserFromModel(u))
}

func (h *UserHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	users, err := h.userService.Search(r.Context(), q.Get("q"), limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("user search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	resp := make([]dto.PublicUserDTO, 0, len(users))
	for i := range users {
		resp = append(resp, dto.PublicUserFromModel(&users[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	var req dto.UserUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	updated, err := h.userService.Update(r.Context(), u.ID, service.UserUpdate{
		FullName:             req.FullName,
		AvatarURL:            req.AvatarURL,
		DailyLimitMinutes:    req.DailyLimitMinutes,
		NotificationsEnabled: req.NotificationsEnabled,
		EmailReminders:       req.EmailReminders,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("profile update failed")
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	writeJSON(w, http.StatusOK, dto.UserFromModel(updated))
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	var req dto.ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	err := h.userService.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			writeError(w, http.StatusForbidden, "current password is incorrect")
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("password change failed")
			writeError(w, http.StatusInternalServerError, "password change failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *UserHandler) deleteMe(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	if err := h.userService.Delete(r.Context(), u.ID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("account deletion failed")
		writeError(w, http.StatusInternalServerError, "deletion failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
