package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"focus/internal/api/v1/dto"
	"focus/internal/middleware"
	"focus/internal/model"
	"focus/internal/repository"
	"focus/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ChallengeHandler struct {
	challengeService service.ChallengeService
	validate         *validator.Validate
	logger           zerolog.Logger
}

func NewChallengeHandler(challengeService service.ChallengeService, v *validator.Validate, logger zerolog.Logger) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 challenge routes
func (h *ChallengeHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("POST /challenges", authMw(http.HandlerFunc(h.create)))
	mux.Handle("GET /challenges", authMw(http.HandlerFunc(h.listPublic)))
	mux.Handle("GET /challenges/mine", authMw(http.HandlerFunc(h.listMine)))
	mux.Handle("GET /challenges/{id}", authMw(http.HandlerFunc(h.get)))
	mux.Handle("DELETE /challenges/{id}", authMw(http.HandlerFunc(h.delete)))
	mux.Handle("POST /challenges/{id}/join", authMw(http.HandlerFunc(h.join)))
	mux.Handle("POST /challenges/{id}/leave", authMw(http.HandlerFunc(h.leave)))
	mux.Handle("GET /challenges/{id}/leaderboard", authMw(http.HandlerFunc(h.leaderboard)))
}

func (h *ChallengeHandler) create(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	var req dto.ChallengeCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	c := &model.Challenge{
		CreatorID:       u.ID,
		Title:           req.Title,
		Description:     req.Description,
		Type:            model.ChallengeType(req.Type),
		TargetMinutes:   req.TargetMinutes,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxParticipants: req.MaxParticipants,
		IsPrivate:       req.IsPrivate,
	}
	created, err := h.challengeService.Create(r.Context(), c)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("challenge creation failed")
		writeError(w, http.StatusInternalServerError, "creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, dto.ChallengeFromModel(created, u.ID))
}

func (h *ChallengeHandler) listPublic(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	challenges, err := h.challengeService.ListPublic(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("challenge listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, challengesToDTO(challenges, u.ID))
}

func (h *ChallengeHandler) listMine(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	challenges, err := h.challengeService.ListMine(r.Context(), u.ID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", u.ID).Msg("challenge listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, challengesToDTO(challenges, u.ID))
}

func challengesToDTO(challenges []model.Challenge, viewerID int64) []dto.ChallengeResponseDTO {
	resp := make([]dto.ChallengeResponseDTO, 0, len(challenges))
	for i := range challenges {
		resp = append(resp, dto.ChallengeFromModel(&challenges[i], viewerID))
	}
	return resp
}

func (h *ChallengeHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *ChallengeHandler) get(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	c, err := h.challengeService.Get(r.Context(), u.ID, id)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("challenge fetch failed")
		writeError(w, http.StatusInternalServerError, "fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, dto.ChallengeFromModel(c, u.ID))
}

func (h *ChallengeHandler) delete(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.challengeService.Delete(r.Context(), u.ID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			writeError(w, http.StatusNotFound, "challenge not found")
		case errors.Is(err, service.ErrNotChallengeOwner):
			writeError(w, http.StatusForbidden, "only the creator can cancel a challenge")
		case errors.Is(err, service.ErrChallengeClosed):
			writeError(w, http.StatusConflict, "challenge already ended")
		default:
			h.logger.Error().Err(err).Int64("id", id).Msg("challenge cancellation failed")
			writeError(w, http.StatusInternalServerError, "cancellation failed")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChallengeHandler) join(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req dto.ChallengeJoinDTO
	// The body is optional for public challenges.
	_ = json.NewDecoder(r.Body).Decode(&req)

	p, err := h.challengeService.Join(r.Context(), u.ID, id, req.InvitationCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			writeError(w, http.StatusNotFound, "challenge not found")
		case errors.Is(err, service.ErrChallengeClosed):
			writeError(w, http.StatusConflict, "challenge is not accepting participants")
		case errors.Is(err, repository.ErrChallengeFull):
			writeError(w, http.StatusConflict, "challenge is full")
		case errors.Is(err, repository.ErrAlreadyJoined):
			writeError(w, http.StatusConflict, "already joined")
		default:
			h.logger.Error().Err(err).Int64("id", id).Msg("challenge join failed")
			writeError(w, http.StatusInternalServerError, "join failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, dto.ParticipantResponseDTO{
		ID:          p.ID,
		ChallengeID: p.ChallengeID,
		UserID:      p.UserID,
		JoinedAt:    p.JoinedAt,
	})
}

func (h *ChallengeHandler) leave(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.challengeService.Leave(r.Context(), u.ID, id); err != nil {
		if errors.Is(err, service.ErrNotParticipant) {
			writeError(w, http.StatusNotFound, "not a participant")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("challenge leave failed")
		writeError(w, http.StatusInternalServerError, "leave failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChallengeHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.challengeService.Leaderboard(r.Context(), u.ID, id)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		h.logger.Error().Err(err).Int64("id", id).Msg("leaderboard failed")
		writeError(w, http.StatusInternalServerError, "leaderboard failed")
		return
	}
	resp := make([]dto.LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.LeaderboardEntryDTO{
			Rank:             e.Rank,
			UserID:           e.UserID,
			Username:         e.Username,
			Score:            e.Score,
			TotalTimeMinutes: e.TotalTimeMinutes,
			GoalAchieved:     e.GoalAchieved,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
