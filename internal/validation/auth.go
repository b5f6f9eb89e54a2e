package validation

import (
	"encoding/json"
	"io"
	"strings"
)

// Password bounds in bytes. bcrypt rejects input longer than 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

type SignUp struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=255"`
}

type SignIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DecodeSignUp reads a registration body. Email is trimmed and lower-cased.
func DecodeSignUp(r io.Reader) (*SignUp, error) {
	var body SignUp
	verr := &Error{Message: "Invalid sign-up data"}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		addDecodeError(verr, err)
		return nil, verr
	}

	body.Email = NormalizeEmail(body.Email)
	body.Name = strings.TrimSpace(body.Name)

	collect(verr, &body)
	if body.Password != "" {
		checkPassword(verr, body.Password)
	}
	if !verr.empty() {
		return nil, verr
	}
	return &body, nil
}

func DecodeSignIn(r io.Reader) (*SignIn, error) {
	var body SignIn
	verr := &Error{Message: "Invalid sign-in data"}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		addDecodeError(verr, err)
		return nil, verr
	}

	body.Email = NormalizeEmail(body.Email)

	collect(verr, &body)
	if !verr.empty() {
		return nil, verr
	}
	return &body, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckPassword validates password length outside of a request body.
func CheckPassword(password string) error {
	verr := &Error{Message: "Invalid password"}
	checkPassword(verr, password)
	if !verr.empty() {
		return verr
	}
	return nil
}

func checkPassword(verr *Error, password string) {
	switch {
	case len(password) < MinPasswordLength:
		verr.add("password", "password must be at least 8 characters")
	case len(password) > MaxPasswordLength:
		verr.add("password", "password must be at most 72 bytes")
	}
}
