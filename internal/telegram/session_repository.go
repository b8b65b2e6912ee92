package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-travel-planner/internal/database"
	"ai-travel-planner/internal/trip"
)

// DefaultSessionTTL is how long a chat remembers its last request.
const DefaultSessionTTL = 24 * time.Hour

// ChatSession is the last trip request a user sent, kept so /retry can
// plan it again.
type ChatSession struct {
	UserID        string
	LastRequest   trip.Request
	LastSessionID string
	UpdatedAt     time.Time
	ExpiresAt     time.Time
}

// SessionRepository persists chat sessions in the chat_sessions table.
type SessionRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionRepository creates a repository with DefaultSessionTTL.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, ttl: DefaultSessionTTL}
}

// Save stores req as the user's last request, replacing any previous one.
func (sr *SessionRepository) Save(ctx context.Context, userID string, req trip.Request, sessionID string, now time.Time) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	_, err = sr.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chat_sessions (user_id, last_request, last_session_id, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, string(data), sessionID,
		now.UTC().Format(database.TimeLayout),
		now.Add(sr.ttl).UTC().Format(database.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// GetActive returns the user's session, or nil when there is none or it
// expired before now.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*ChatSession, error) {
	var raw, updated, expires string
	s := &ChatSession{UserID: userID}

	err := sr.db.QueryRowContext(ctx, `
		SELECT last_request, last_session_id, updated_at, expires_at
		FROM chat_sessions
		WHERE user_id = ? AND expires_at > ?`,
		userID, now.UTC().Format(database.TimeLayout),
	).Scan(&raw, &s.LastSessionID, &updated, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &s.LastRequest); err != nil {
		return nil, fmt.Errorf("failed to decode stored request: %w", err)
	}
	s.UpdatedAt, _ = time.Parse(database.TimeLayout, updated)
	s.ExpiresAt, _ = time.Parse(database.TimeLayout, expires)
	return s, nil
}

// Delete forgets the user's session.
func (sr *SessionRepository) Delete(ctx context.Context, userID string) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE user_id = ?`, userID)
	return err
}

// CleanupExpired removes sessions that expired before now.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE expires_at <= ?`, now.UTC().Format(database.TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup chat sessions: %w", err)
	}
	return res.RowsAffected()
}
