package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eli5-ai/guest-platform/internal/middleware"
	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/internal/orchestrator"
	"github.com/eli5-ai/guest-platform/internal/service"
	"github.com/eli5-ai/guest-platform/internal/session"
	"github.com/eli5-ai/guest-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.GuestService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.GuestService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// SendMessageRequest is the request to ask a new question.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// RegenerateRequest is the request to re-answer at a new level.
type RegenerateRequest struct {
	Level string `json:"level"`
}

// MessageResponse returns the resolved assistant message plus the refreshed
// session snapshot the UI re-renders from.
type MessageResponse struct {
	Message  *model.Message   `json:"message"`
	Snapshot service.Snapshot `json:"snapshot"`
}

// Send handles POST /api/v1/guest/session/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.SendMessage(ctx, guestID, req.Content)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, &MessageResponse{
		Message:  msg,
		Snapshot: h.service.Snapshot(ctx, guestID),
	})
}

// Regenerate handles POST /api/v1/guest/session/messages/{id}/regenerate
func (h *MessageHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guestID := middleware.GetGuestID(ctx)
	messageID := chi.URLParam(r, "id")

	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	level, err := model.ParseLevel(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown education level")
		return
	}

	msg, err := h.service.RegenerateMessage(ctx, guestID, messageID, level)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &MessageResponse{
		Message:  msg,
		Snapshot: h.service.Snapshot(ctx, guestID),
	})
}

// writeWorkflowError maps workflow preconditions to HTTP statuses.
// Generation failures are not errors here; they surface per-message.
func (h *MessageHandler) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		writeError(w, http.StatusConflict, "a generation is already in progress")
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusConflict, "no session loaded")
	case errors.Is(err, session.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "message not found")
	case errors.Is(err, orchestrator.ErrNoUserMessage):
		writeError(w, http.StatusUnprocessableEntity, "message has no preceding question")
	default:
		h.logger.Error("workflow failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process message")
	}
}
