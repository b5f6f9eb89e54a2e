package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pricelist/internal/domain"
)

func TestUserStoreCreateAndGet(t *testing.T) {
	d := openTestDB(t)
	users := NewUserStore(d)
	ctx := context.Background()

	created := createUser(t, d, "shop@example.com")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "shop@example.com", created.Email)
	assert.Equal(t, "hash", created.PasswordHash)

	byEmail, err := users.GetByEmail(ctx, "shop@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "shop@example.com", byID.Email)

	missing, err := users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStoreCreateDuplicateEmail(t *testing.T) {
	d := openTestDB(t)
	createUser(t, d, "shop@example.com")

	_, err := NewUserStore(d).Create(context.Background(), &domain.User{
		Email:        "shop@example.com",
		PasswordHash: "other",
		CreatedAt:    time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSessionStoreLifecycle(t *testing.T) {
	d := openTestDB(t)
	user := createUser(t, d, "shop@example.com")
	sessions := NewSessionStore(d)
	ctx := context.Background()

	expires := baseTime.Add(24 * time.Hour)
	sess, err := sessions.Create(ctx, user.ID, baseTime, expires)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, user.ID, sess.UserID)
	assert.True(t, expires.Equal(sess.ExpiresAt))
	assert.False(t, sess.Revoked)

	require.NoError(t, sessions.Revoke(ctx, sess.ID))

	got, err := sessions.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Revoked)

	assert.NoError(t, sessions.Revoke(ctx, "unknown"))

	missing, err := sessions.GetByID(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
