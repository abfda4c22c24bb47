package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"dealerchat/internal/domain"
)

func TestSendMessageReturnsReplyAndBareHistory(t *testing.T) {
	e := echo.New()
	h, st := newTestHandler(t)
	userID := seedUser(t, st)
	sessionID, err := st.AddSession(context.Background(), userID, "chat")
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}

	c, rec := postJSON(e, "/v1/sessions/"+sessionID+"/messages", `{"user_id":"`+userID+`","content":"how much is the sedan?"}`)
	c.SetParamNames("session_id")
	c.SetParamValues(sessionID)

	if err := h.SendMessage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Reply   string           `json:"reply"`
		History []domain.Message `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply == "" {
		t.Fatalf("expected a reply")
	}
	if len(resp.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(resp.History))
	}
	// the evidence-augmented prompt never leaves the orchestrator
	if resp.History[0].Content != "how much is the sedan?" {
		t.Fatalf("unexpected user entry: %q", resp.History[0].Content)
	}
}

func TestSendMessageUnknownSession(t *testing.T) {
	e := echo.New()
	h, st := newTestHandler(t)
	userID := seedUser(t, st)

	c, rec := postJSON(e, "/v1/sessions/sess_missing/messages", `{"user_id":"`+userID+`","content":"hi"}`)
	c.SetParamNames("session_id")
	c.SetParamValues("sess_missing")

	if err := h.SendMessage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSendMessageMissingContent(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	c, rec := postJSON(e, "/v1/sessions/s1/messages", `{"user_id":"u1"}`)
	c.SetParamNames("session_id")
	c.SetParamValues("s1")

	if err := h.SendMessage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetMessages(t *testing.T) {
	e := echo.New()
	h, st := newTestHandler(t)
	userID := seedUser(t, st)
	sessionID, err := st.AddSession(context.Background(), userID, "chat")
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if err := st.AddMessage(context.Background(), userID, sessionID, domain.RoleUser, "hello"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if err := st.AddMessage(context.Background(), userID, sessionID, domain.RoleAssistant, "hi there"); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sessionID+"/messages?user_id="+userID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(sessionID)

	if err := h.GetMessages(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Messages []domain.StoredMessage `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].Content != "hello" || resp.Messages[1].Content != "hi there" {
		t.Fatalf("unexpected messages: %+v", resp.Messages)
	}
}
