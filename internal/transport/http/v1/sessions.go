package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type createSessionRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

// CreateSession creates a session and runs the greeting turn.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	sessionID, messages, err := h.orch.CreateSession(c.Request().Context(), req.UserID, req.Title)
	if err != nil {
		return h.errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// ListSessions returns the user's sessions, newest first.
// GET /v1/sessions?user_id=
func (h *Handler) ListSessions(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	sessions, err := h.orch.ListSessions(c.Request().Context(), userID)
	if err != nil {
		return h.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// DeleteSession removes a session and its messages.
// DELETE /v1/sessions/:session_id?user_id=
func (h *Handler) DeleteSession(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	if err := h.orch.DeleteSession(c.Request().Context(), userID, c.Param("session_id")); err != nil {
		return h.errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type clearSessionRequest struct {
	UserID string `json:"user_id"`
}

// ClearSession wipes the session's messages and re-greets.
// POST /v1/sessions/:session_id/clear
func (h *Handler) ClearSession(c echo.Context) error {
	var req clearSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	messages, err := h.orch.ClearChat(c.Request().Context(), req.UserID, c.Param("session_id"))
	if err != nil {
		return h.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}
