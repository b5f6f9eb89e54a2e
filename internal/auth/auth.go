// Package auth manages accounts and the sessions that gate the private API.
// Sessions are database rows; the bearer token is an HS256 JWT whose jti
// names the row, so revoking the row invalidates the token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vbonduro/pricelist/internal/domain"
	"github.com/vbonduro/pricelist/internal/store"
	"github.com/vbonduro/pricelist/internal/validation"
)

const issuer = "pricelist"

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// userRepository is the subset of store.UserStore that Service requires.
type userRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// sessionRepository is the subset of store.SessionStore that Service requires.
type sessionRepository interface {
	Create(ctx context.Context, userID string, createdAt, expiresAt time.Time) (*domain.Session, error)
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Revoke(ctx context.Context, id string) error
}

// Result is what a successful sign-up or sign-in hands back to the client.
type Result struct {
	Token   string
	User    *domain.User
	Session *domain.Session
}

// Identity is the authenticated caller of a request.
type Identity struct {
	User    *domain.User
	Session *domain.Session
}

type Service struct {
	users    userRepository
	sessions sessionRepository
	secret   []byte
	ttl      time.Duration
	cost     int
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(users userRepository, sessions sessionRepository, secret []byte, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateUser registers an account without opening a session.
func (s *Service) CreateUser(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.CheckPassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

// SignUp registers an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*Result, error) {
	user, err := s.CreateUser(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Info("sign-in for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("sign-in with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

// VerifyPassword reports whether password matches the account's hash.
func (s *Service) VerifyPassword(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) issue(ctx context.Context, user *domain.User) (*Result, error) {
	now := s.now().UTC()
	sess, err := s.sessions.Create(ctx, user.ID, now, now.Add(s.ttl))
	if err != nil {
		return nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   user.ID,
		ID:        sess.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("session opened", "user_id", user.ID, "session_id", sess.ID)
	return &Result{Token: signed, User: user, Session: sess}, nil
}

// GetSession resolves a bearer token to its caller. Any failure, including
// an expired or revoked session, is ErrUnauthorized.
func (s *Service) GetSession(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug("rejected token", "error", err)
		return nil, ErrUnauthorized
	}

	sess, err := s.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Revoked || sess.UserID != claims.Subject || !s.now().Before(sess.ExpiresAt) {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return &Identity{User: user, Session: sess}, nil
}

func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("session revoked", "session_id", sessionID)
	return nil
}
