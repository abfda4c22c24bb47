package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealerchat/internal/domain"
)

// PostgresStore implements Store on PostgreSQL via a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
// The schema is expected to be provisioned by migrations (see migrations/).
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// AddUser registers a user and returns its id.
func (s *PostgresStore) AddUser(ctx context.Context, firstName, lastName, username, passwordHash, userType string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, first_name, last_name, username, password_hash, user_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, firstName, lastName, username, passwordHash, userType, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetUserByUsername retrieves a user by username. Returns nil when absent.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u := &domain.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, first_name, last_name, username, password_hash, user_type, created_at
		FROM users WHERE username = $1
	`, username).Scan(&u.UserID, &u.FirstName, &u.LastName, &u.Username, &u.PasswordHash, &u.UserType, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// UserIsValid reports whether the user id is registered.
func (s *PostgresStore) UserIsValid(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM users WHERE user_id = $1`, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) requireUser(ctx context.Context, userID string) error {
	ok, err := s.UserIsValid(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUnknownUser
	}
	return nil
}

// AddSession creates a session for the user and returns its id.
func (s *PostgresStore) AddSession(ctx context.Context, userID, title string) (string, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return "", err
	}
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (session_id, user_id, title, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, userID, title, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetSessions lists the user's sessions, newest first.
func (s *PostgresStore) GetSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, user_id, title, created_at FROM sessions
		WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(&sess.SessionID, &sess.UserID, &sess.Title, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *PostgresStore) sessionExists(ctx context.Context, userID, sessionID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM sessions WHERE session_id = $1 AND user_id = $2`, sessionID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ClearSession deletes all messages of a session; the session row survives.
func (s *PostgresStore) ClearSession(ctx context.Context, userID, sessionID string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	ok, err := s.sessionExists(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	_, err = s.pool.Exec(ctx,
		`DELETE FROM messages WHERE user_id = $1 AND session_id = $2`, userID, sessionID)
	return err
}

// DeleteSession deletes a session and all of its messages.
func (s *PostgresStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.ClearSession(ctx, userID, sessionID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	return err
}

// AddMessage appends a message to a session.
func (s *PostgresStore) AddMessage(ctx context.Context, userID, sessionID string, role domain.Role, content string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	ok, err := s.sessionExists(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (message_id, user_id, session_id, role, content, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, "msg_"+uuid.New().String()[:8], userID, sessionID, role, content, time.Now().UTC())
	return err
}

// GetMessages returns a session's messages in insertion order.
func (s *PostgresStore) GetMessages(ctx context.Context, userID, sessionID string) ([]domain.StoredMessage, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT message_id, user_id, session_id, role, content, sent_at FROM messages
		WHERE user_id = $1 AND session_id = $2 ORDER BY seq ASC
	`, userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.StoredMessage
	for rows.Next() {
		var msg domain.StoredMessage
		if err := rows.Scan(&msg.MessageID, &msg.UserID, &msg.SessionID, &msg.Role, &msg.Content, &msg.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
