package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"dealerchat/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			user_type TEXT NOT NULL DEFAULT 'user',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sent_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id),
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(user_id, session_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddUser registers a user and returns its id.
func (s *SQLiteStore) AddUser(ctx context.Context, firstName, lastName, username, passwordHash, userType string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, first_name, last_name, username, password_hash, user_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, firstName, lastName, username, passwordHash, userType, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetUserByUsername retrieves a user by username. Returns nil when absent.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, first_name, last_name, username, password_hash, user_type, created_at
		 FROM users WHERE username = ?`, username).
		Scan(&u.UserID, &u.FirstName, &u.LastName, &u.Username, &u.PasswordHash, &u.UserType, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserIsValid reports whether the user id is registered.
func (s *SQLiteStore) UserIsValid(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE user_id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// requireUser rejects operations for unregistered owners before any
// partitioned query runs.
func (s *SQLiteStore) requireUser(ctx context.Context, userID string) error {
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
func (s *SQLiteStore) AddSession(ctx context.Context, userID, title string) (string, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return "", err
	}
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, title, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetSessions lists the user's sessions, newest first.
func (s *SQLiteStore) GetSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id, title, created_at FROM sessions
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
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

// sessionExists reports whether the session belongs to the user.
func (s *SQLiteStore) sessionExists(ctx context.Context, userID, sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE session_id = ? AND user_id = ?`, sessionID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ClearSession deletes all messages of a session; the session row survives.
func (s *SQLiteStore) ClearSession(ctx context.Context, userID, sessionID string) error {
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
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE user_id = ? AND session_id = ?`, userID, sessionID)
	return err
}

// DeleteSession deletes a session and all of its messages.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.ClearSession(ctx, userID, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ? AND user_id = ?`, sessionID, userID)
	return err
}

// AddMessage appends a message to a session.
func (s *SQLiteStore) AddMessage(ctx context.Context, userID, sessionID string, role domain.Role, content string) error {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, user_id, session_id, role, content, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"msg_"+uuid.New().String()[:8], userID, sessionID, role, content, time.Now().UTC())
	return err
}

// GetMessages returns a session's messages in insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, userID, sessionID string) ([]domain.StoredMessage, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, user_id, session_id, role, content, sent_at FROM messages
		 WHERE user_id = ? AND session_id = ? ORDER BY seq ASC`, userID, sessionID)
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
