package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/eli5-ai/guest-platform/internal/middleware"
	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/internal/service"
	"github.com/eli5-ai/guest-platform/pkg/logger"
)

// SessionHandler handles guest session endpoints.
type SessionHandler struct {
	service *service.GuestService
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc *service.GuestService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  log,
	}
}

// UpdateLevelRequest is the request to change the session default level.
type UpdateLevelRequest struct {
	Level string `json:"level"`
}

// Get handles GET /api/v1/guest/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)

	snap := h.service.Snapshot(ctx, guestID)
	writeJSON(w, http.StatusOK, snap)
}

// Clear handles DELETE /api/v1/guest/session
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)

	h.service.ClearSession(ctx, guestID)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateLevel handles PUT /api/v1/guest/session/level
func (h *SessionHandler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)

	var req UpdateLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	level, err := model.ParseLevel(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown education level")
		return
	}

	if err := h.service.UpdateLevel(ctx, guestID, level); err != nil {
		writeError(w, http.StatusConflict, "no session loaded")
		return
	}

	writeJSON(w, http.StatusOK, h.service.Snapshot(ctx, guestID))
}

// Migrate handles POST /api/v1/guest/session/migrate. It requires an
// authenticated account; the exported payload is returned once and the guest
// copy is deleted.
func (h *SessionHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)
	accountID := middleware.GetAccountID(ctx)

	payload := h.service.MigrateSession(ctx, guestID)
	if payload == nil {
		writeError(w, http.StatusNotFound, "no session to migrate")
		return
	}

	h.logger.Info("guest session migrated",
		zap.String("session_id", payload.SessionID),
		zap.String("account_id", accountID),
		zap.Int("message_count", payload.MessageCount),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"session":    payload,
		"account_id": accountID,
	})
}

// Levels handles GET /api/v1/levels
func (h *SessionHandler) Levels(w http.ResponseWriter, r *http.Request) {
	levels := model.Levels()
	out := make([]model.LevelInfo, len(levels))
	for i, l := range levels {
		out[i] = l.Info()
	}
	writeJSON(w, http.StatusOK, map[string]any{"levels": out})
}
