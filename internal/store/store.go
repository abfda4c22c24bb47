// Package store defines owner-scoped conversation persistence and its
// implementations.
package store

import (
	"context"

	"dealerchat/internal/domain"
)

// Store persists users, sessions and messages. Every session/message
// operation carries the owning user id and must fail with
// domain.ErrUnknownUser before touching any data when that id is not a
// registered user. Message reads return rows in insertion order.
type Store interface {
	// User operations
	AddUser(ctx context.Context, firstName, lastName, username, passwordHash, userType string) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UserIsValid(ctx context.Context, userID string) (bool, error)

	// Session operations
	AddSession(ctx context.Context, userID, title string) (string, error)
	GetSessions(ctx context.Context, userID string) ([]domain.Session, error)
	ClearSession(ctx context.Context, userID, sessionID string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error

	// Message operations
	AddMessage(ctx context.Context, userID, sessionID string, role domain.Role, content string) error
	GetMessages(ctx context.Context, userID, sessionID string) ([]domain.StoredMessage, error)

	// Lifecycle
	Close() error
}
