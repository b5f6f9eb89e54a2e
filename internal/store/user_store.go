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

const userColumns = `id, email, name, password_hash, created_at, updated_at`

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts u with a freshly generated id. It returns ErrDuplicate when
// the email is already registered.
func (s *UserStore) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	u.ID = uuid.NewString()
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("failed to create user: %w", ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetByID(ctx, u.ID)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *UserStore) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, s.db, &row, s.db.Rebind(`
		SELECT `+userColumns+` FROM users WHERE `+column+` = ?
	`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}
