package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSignUp(t *testing.T) {
	body, err := DecodeSignUp(strings.NewReader(`{"email": "  Owner@Example.COM ", "password": "correct horse", "name": " Sami "}`))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", body.Email)
	assert.Equal(t, "Sami", body.Name)
	assert.Equal(t, "correct horse", body.Password)
}

func TestDecodeSignUpRejects(t *testing.T) {
	_, err := DecodeSignUp(strings.NewReader(`{"email": "not-an-email", "password": "short"}`))
	verr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid sign-up data", verr.Message)
	assert.Equal(t, []string{"email must be a valid email address"}, verr.Fields["email"])
	assert.Equal(t, []string{"password must be at least 8 characters"}, verr.Fields["password"])

	_, err = DecodeSignUp(strings.NewReader(`{"email": "a@b.co", "password": "` + strings.Repeat("x", 73) + `"}`))
	verr, ok = AsError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "password")

	_, err = DecodeSignUp(strings.NewReader(`{}`))
	verr, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"email is required"}, verr.Fields["email"])
	assert.Equal(t, []string{"password is required"}, verr.Fields["password"])
}

func TestDecodeSignIn(t *testing.T) {
	body, err := DecodeSignIn(strings.NewReader(`{"email": "OWNER@example.com", "password": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", body.Email)

	_, err = DecodeSignIn(strings.NewReader(`not json`))
	verr, ok := AsError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "body")
}

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, CheckPassword("12345678"))
	assert.Error(t, CheckPassword("1234567"))
	assert.Error(t, CheckPassword(strings.Repeat("x", 73)))
}
