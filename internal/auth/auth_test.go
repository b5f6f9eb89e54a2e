package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vbonduro/pricelist/internal/db"
	"github.com/vbonduro/pricelist/internal/store"
	"github.com/vbonduro/pricelist/internal/validation"
)

var testSecret = []byte("test-secret")

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	svc := NewService(store.NewUserStore(d), store.NewSessionStore(d), testSecret, time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.cost = bcrypt.MinCost

	clock := time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func TestSignUpAndSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, " Owner@Example.com ", "password123", "Owner")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "owner@example.com", res.User.Email)
	assert.NotEqual(t, "password123", res.User.PasswordHash)

	id, err := svc.GetSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.User.ID)
	assert.Equal(t, res.Session.ID, id.Session.ID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "owner@example.com", "password123", "")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "OWNER@example.com", "password456", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpWeakPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), "owner@example.com", "short", "")
	_, ok := validation.AsError(err)
	assert.True(t, ok)
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "owner@example.com", "password123", "")
	require.NoError(t, err)

	res, err := svc.SignIn(ctx, "OWNER@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.SignIn(ctx, "owner@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "owner@example.com", "password123", "")
	require.NoError(t, err)

	user, err := svc.VerifyPassword(ctx, "owner@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.VerifyPassword(ctx, "owner@example.com", "nope-nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignOutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, "owner@example.com", "password123", "")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, res.Session.ID))

	_, err = svc.GetSession(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetSessionExpired(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, "owner@example.com", "password123", "")
	require.NoError(t, err)

	*clock = clock.Add(time.Hour + time.Second)
	_, err = svc.GetSession(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetSessionRejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.SignUp(ctx, "owner@example.com", "password123", "")
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   res.User.ID,
		ID:        res.Session.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	unknownSession, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   res.User.ID,
		ID:        "no-such-session",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  issuer,
		Subject: res.User.ID,
		ID:      res.Session.ID,
	}).SignedString(testSecret)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":           "",
		"garbage":         "not.a.jwt",
		"wrong secret":    forged,
		"unknown session": unknownSession,
		"no expiry":       noExpiry,
	} {
		_, err := svc.GetSession(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthorized, name)
	}
}
