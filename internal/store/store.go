// Package store is the Postgres persistence layer. It holds users, their
// uploaded interviews, sessions and device push tokens. Transcripts and
// analyses are stored as JSON blobs on the interview row; the retrievable
// chunks live in their own table owned by the index package.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"lukechampine.com/blake3"
)

// Interview statuses. An interview moves queued -> processing -> completed,
// or to failed with the error recorded.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// User represents an authenticated user.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        *string    `json:"name,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Interview represents an uploaded recording and everything derived from it.
type Interview struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Filename   string          `json:"filename"`
	AudioHash  string          `json:"audio_hash"`
	Status     string          `json:"status"`
	Transcript json.RawMessage `json:"transcript,omitempty"`
	Analysis   json.RawMessage `json:"analysis,omitempty"`
	Error      *string         `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// UserSession represents a JWT session for logout/invalidation.
type UserSession struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// HashAudioFile returns the hex BLAKE3 digest of the file at path. The hash
// keys upload dedup: the same recording uploaded twice maps to one interview.
func HashAudioFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// ============================================================================
// User operations
// ============================================================================

// FindOrCreateUser finds a user by email or creates a new one. Existing users
// get last_login_at refreshed.
func (s *Store) FindOrCreateUser(ctx context.Context, email string) (*User, bool, error) {
	var u User
	var isNew bool

	err := s.db.QueryRow(ctx, `
		SELECT id, email, name, last_login_at, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)

	if err == pgx.ErrNoRows {
		err = s.db.QueryRow(ctx, `
			INSERT INTO users (id, email, last_login_at)
			VALUES ($1, $2, NOW())
			RETURNING id, email, name, last_login_at, created_at, updated_at
		`, uuid.NewString(), email).Scan(&u.ID, &u.Email, &u.Name, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, false, err
		}
		isNew = true
	} else if err != nil {
		return nil, false, err
	} else {
		_, err = s.db.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, u.ID)
		if err != nil {
			return nil, false, err
		}
	}

	return &u, isNew, nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, email, name, last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserName updates a user's display name.
func (s *Store) UpdateUserName(ctx context.Context, userID, name string) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET name = $2 WHERE id = $1`, userID, name)
	return err
}

// ============================================================================
// Interview operations
// ============================================================================

// CreateInterview inserts a new queued interview and returns it.
func (s *Store) CreateInterview(ctx context.Context, userID, filename, audioHash string) (*Interview, error) {
	var iv Interview
	err := s.db.QueryRow(ctx, `
		INSERT INTO interviews (id, user_id, filename, audio_hash, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, filename, audio_hash, status, transcript, analysis, error, created_at, updated_at
	`, uuid.NewString(), userID, filename, audioHash, StatusQueued).Scan(
		&iv.ID, &iv.UserID, &iv.Filename, &iv.AudioHash, &iv.Status,
		&iv.Transcript, &iv.Analysis, &iv.Error, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// FindInterviewByAudioHash returns the user's existing interview for the
// given audio hash, or nil when none exists.
func (s *Store) FindInterviewByAudioHash(ctx context.Context, userID, audioHash string) (*Interview, error) {
	var iv Interview
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, filename, audio_hash, status, transcript, analysis, error, created_at, updated_at
		FROM interviews
		WHERE user_id = $1 AND audio_hash = $2
	`, userID, audioHash).Scan(
		&iv.ID, &iv.UserID, &iv.Filename, &iv.AudioHash, &iv.Status,
		&iv.Transcript, &iv.Analysis, &iv.Error, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// GetInterview retrieves an interview by ID.
func (s *Store) GetInterview(ctx context.Context, id string) (*Interview, error) {
	var iv Interview
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, filename, audio_hash, status, transcript, analysis, error, created_at, updated_at
		FROM interviews
		WHERE id = $1
	`, id).Scan(
		&iv.ID, &iv.UserID, &iv.Filename, &iv.AudioHash, &iv.Status,
		&iv.Transcript, &iv.Analysis, &iv.Error, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// ListInterviewsByUser lists a user's interviews, newest first. Transcript
// and analysis blobs are omitted to keep list responses small.
func (s *Store) ListInterviewsByUser(ctx context.Context, userID string, limit int) ([]Interview, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, filename, audio_hash, status, error, created_at, updated_at
		FROM interviews
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Interview{}
	for rows.Next() {
		var iv Interview
		if err := rows.Scan(&iv.ID, &iv.UserID, &iv.Filename, &iv.AudioHash, &iv.Status,
			&iv.Error, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// ClaimQueuedInterview atomically claims the oldest queued interview and
// marks it processing. Returns nil when the queue is empty. SKIP LOCKED
// keeps concurrent workers from claiming the same row.
func (s *Store) ClaimQueuedInterview(ctx context.Context) (*Interview, error) {
	var iv Interview
	err := s.db.QueryRow(ctx, `
		UPDATE interviews
		SET status = $1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM interviews
			WHERE status = $2
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, filename, audio_hash, status, transcript, analysis, error, created_at, updated_at
	`, StatusProcessing, StatusQueued).Scan(
		&iv.ID, &iv.UserID, &iv.Filename, &iv.AudioHash, &iv.Status,
		&iv.Transcript, &iv.Analysis, &iv.Error, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// SaveTranscript stores the structured transcript JSON for an interview.
func (s *Store) SaveTranscript(ctx context.Context, id string, transcript json.RawMessage) error {
	_, err := s.db.Exec(ctx, `
		UPDATE interviews SET transcript = $2, updated_at = NOW() WHERE id = $1
	`, id, transcript)
	return err
}

// SaveAnalysis stores the analysis JSON for an interview.
func (s *Store) SaveAnalysis(ctx context.Context, id string, analysis json.RawMessage) error {
	_, err := s.db.Exec(ctx, `
		UPDATE interviews SET analysis = $2, updated_at = NOW() WHERE id = $1
	`, id, analysis)
	return err
}

// MarkInterviewCompleted moves an interview to completed and clears any
// previous error.
func (s *Store) MarkInterviewCompleted(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE interviews SET status = $2, error = NULL, updated_at = NOW() WHERE id = $1
	`, id, StatusCompleted)
	return err
}

// MarkInterviewFailed moves an interview to failed with the error message.
func (s *Store) MarkInterviewFailed(ctx context.Context, id, errMsg string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE interviews SET status = $2, error = $3, updated_at = NOW() WHERE id = $1
	`, id, StatusFailed, errMsg)
	return err
}

// RequeueInterview puts a failed interview back on the queue for another
// processing attempt.
func (s *Store) RequeueInterview(ctx context.Context, id string) error {
	result, err := s.db.Exec(ctx, `
		UPDATE interviews SET status = $2, error = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, StatusQueued, StatusFailed)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteInterview removes an interview and its derived data.
func (s *Store) DeleteInterview(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `DELETE FROM interview_chunks WHERE interview_id = $1`, id)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM interview_events WHERE interview_id = $1`, id)
	if err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// ============================================================================
// Session operations
// ============================================================================

// CreateSession creates a new user session.
func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

// RevokeSession revokes a session by token hash.
func (s *Store) RevokeSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE user_sessions SET revoked_at = NOW() WHERE token_hash = $1
	`, tokenHash)
	return err
}

// IsSessionValid checks if a session is valid (not revoked and not expired).
func (s *Store) IsSessionValid(ctx context.Context, tokenHash string) (bool, error) {
	var valid bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM user_sessions
			WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
		)
	`, tokenHash).Scan(&valid)
	return valid, err
}
