package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5-ai/guest-platform/internal/llm"
	"github.com/eli5-ai/guest-platform/internal/middleware"
	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/internal/service"
	"github.com/eli5-ai/guest-platform/internal/store"
	"github.com/eli5-ai/guest-platform/pkg/logger"
)

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, content string, level model.EducationLevel, _ string) (*llm.Explanation, error) {
	return &llm.Explanation{ID: "exp", Content: "answer: " + content, Level: level}, nil
}

func (echoGenerator) Regenerate(_ context.Context, content string, newLevel model.EducationLevel, _ string) (*llm.Explanation, error) {
	return &llm.Explanation{ID: "exp", Content: "re-answer: " + content, Level: newLevel}, nil
}

func (echoGenerator) Name() string     { return "echo" }
func (echoGenerator) Models() []string { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewNop()
	svc := service.NewGuestService(store.NewMemoryKV(), echoGenerator{}, nil, log, time.Second)
	sessions := NewSessionHandler(svc, log)
	messages := NewMessageHandler(svc, log)

	r := chi.NewRouter()
	r.Route("/api/v1/guest/session", func(r chi.Router) {
		r.Use(middleware.GuestID)
		r.Get("/", sessions.Get)
		r.Delete("/", sessions.Clear)
		r.Put("/level", sessions.UpdateLevel)
		r.Post("/messages", messages.Send)
		r.Post("/messages/{id}/regenerate", messages.Regenerate)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.GuestIDHeader, "guest-test-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetSessionCreatesOnFirstRequest(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/guest/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotNil(t, snap.Session)
	assert.Equal(t, model.LevelElementary, snap.Session.CurrentLevel)
	assert.False(t, snap.CanConvert)
}

func TestMissingGuestHeaderRejected(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/guest/session", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/guest/session/messages",
		`{"content":"explain gravity"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Message)
	assert.Equal(t, model.RoleAssistant, resp.Message.Role)
	assert.Equal(t, model.StatusComplete, resp.Message.Status)
	assert.Equal(t, "answer: explain gravity", resp.Message.Content)
	require.NotNil(t, resp.Snapshot.Session)
	assert.Len(t, resp.Snapshot.Session.Messages, 2)
}

func TestSendMessageValidation(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/guest/session/messages", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)

	long := strings.Repeat("a", llm.MaxContentLength+1)
	rec = doRequest(t, r, http.MethodPost, "/api/v1/guest/session/messages",
		`{"content":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/api/v1/guest/session/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegenerateMessage(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/guest/session/messages",
		`{"content":"explain gravity"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var sent MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))

	rec = doRequest(t, r, http.MethodPost,
		"/api/v1/guest/session/messages/"+sent.Message.ID+"/regenerate",
		`{"level":"college"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, sent.Message.ID, resp.Message.ID)
	assert.Equal(t, "re-answer: explain gravity", resp.Message.Content)
	assert.Equal(t, model.LevelCollege, resp.Message.Level)
	assert.Equal(t, model.LevelCollege, resp.Snapshot.Session.CurrentLevel)
}

func TestRegenerateUnknownMessage(t *testing.T) {
	r := newTestRouter(t)

	// Prime the session so the failure is about the id, not the session.
	doRequest(t, r, http.MethodGet, "/api/v1/guest/session", "")

	rec := doRequest(t, r, http.MethodPost,
		"/api/v1/guest/session/messages/msg-0-missing/regenerate",
		`{"level":"college"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRegenerateBadLevel(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost,
		"/api/v1/guest/session/messages/msg-1-abc/regenerate",
		`{"level":"toddler"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLevelEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPut, "/api/v1/guest/session/level",
		`{"level":"phd"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, model.LevelPhD, snap.Session.CurrentLevel)
}

func TestClearSessionEndpoint(t *testing.T) {
	r := newTestRouter(t)

	doRequest(t, r, http.MethodPost, "/api/v1/guest/session/messages",
		`{"content":"explain gravity"}`)

	rec := doRequest(t, r, http.MethodDelete, "/api/v1/guest/session", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/api/v1/guest/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Nil(t, snap.Session)
}
