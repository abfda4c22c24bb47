// Package v1 provides the HTTP handlers for the chat API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"dealerchat/internal/chat"
	"dealerchat/internal/domain"
	"dealerchat/internal/store"
)

// Handler handles HTTP requests.
type Handler struct {
	orch  *chat.Orchestrator
	store store.Store
	log   zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(orch *chat.Orchestrator, st store.Store, log zerolog.Logger) *Handler {
	return &Handler{
		orch:  orch,
		store: st,
		log:   log.With().Str("component", "http").Logger(),
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// User registry
	e.POST("/v1/users", h.RegisterUser)
	e.POST("/v1/login", h.Login)

	// Session API
	e.POST("/v1/sessions", h.CreateSession)
	e.GET("/v1/sessions", h.ListSessions)
	e.DELETE("/v1/sessions/:session_id", h.DeleteSession)
	e.POST("/v1/sessions/:session_id/clear", h.ClearSession)

	// Message API
	e.POST("/v1/sessions/:session_id/messages", h.SendMessage)
	e.GET("/v1/sessions/:session_id/messages", h.GetMessages)

	e.GET("/healthz", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// errorJSON maps domain errors to status codes and renders the error body.
func (h *Handler) errorJSON(c echo.Context, err error) error {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrUnknownUser), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrContextOverflow):
		status = http.StatusBadRequest
	}
	h.log.Error().Err(err).Int("status", status).Str("path", c.Path()).Msg("request failed")
	return c.JSON(status, map[string]string{"error": err.Error()})
}
