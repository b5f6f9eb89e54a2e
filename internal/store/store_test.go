package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pricelist/internal/db"
	"github.com/vbonduro/pricelist/internal/domain"
)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func createUser(t *testing.T, d *sqlx.DB, email string) *domain.User {
	t.Helper()
	u, err := NewUserStore(d).Create(context.Background(), &domain.User{
		Email:        email,
		Name:         "Test",
		PasswordHash: "hash",
		CreatedAt:    baseTime,
	})
	require.NoError(t, err)
	return u
}
