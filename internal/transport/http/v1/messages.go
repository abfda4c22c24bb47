package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type sendMessageRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// SendMessage runs one user turn through the orchestrator.
// POST /v1/sessions/:session_id/messages
func (h *Handler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.UserID == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id and content are required"})
	}

	reply, history, err := h.orch.SendMessage(c.Request().Context(), req.UserID, c.Param("session_id"), req.Content)
	if err != nil {
		return h.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reply":   reply,
		"history": history,
	})
}

// GetMessages retrieves the persisted history of a session.
// GET /v1/sessions/:session_id/messages?user_id=
func (h *Handler) GetMessages(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id is required"})
	}

	messages, err := h.orch.ListMessages(c.Request().Context(), userID, c.Param("session_id"))
	if err != nil {
		return h.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}
