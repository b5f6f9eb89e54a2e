package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbonduro/pricelist/internal/domain"
)

type sessionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
}

type SessionStore struct {
	db *sqlx.DB
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, userID string, createdAt, expiresAt time.Time) (*domain.Session, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO sessions (id, user_id, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), id, userID, expiresAt, false, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := sqlx.GetContext(ctx, s.db, &row, s.db.Rebind(`
		SELECT id, user_id, expires_at, revoked, created_at FROM sessions WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &domain.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt.UTC(),
		Revoked:   row.Revoked,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

// Revoke marks the session revoked. Revoking an unknown or already revoked
// session is not an error.
func (s *SessionStore) Revoke(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE sessions SET revoked = ? WHERE id = ?
	`), true, id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
