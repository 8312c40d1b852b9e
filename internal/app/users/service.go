package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gigjournal/internal/apperr"
	"gigjournal/internal/logging"
	"gigjournal/internal/models"
)

const minPasswordLength = 8

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)
	// ErrSessionExpired indicates the session row outlived its expiry.
	ErrSessionExpired = fmt.Errorf("session expired: %w", apperr.ErrUnauthorized)

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUserProfile(ctx context.Context, profile models.UserProfile, passwordHash []byte) (models.UserProfile, error)
	UserCredentialsByEmail(ctx context.Context, email string) (models.UserProfile, []byte, error)
	GetUserProfile(ctx context.Context, id string) (models.UserProfile, error)
	CreateSession(ctx context.Context, session models.Session) (models.Session, error)
	GetSession(ctx context.Context, id string) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      models.UserProfile `json:"user"`
}

// Options tunes the service.
type Options struct {
	SessionTTL time.Duration
	BcryptCost int
}

// Service exposes registration and session workflows.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (models.UserProfile, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Authenticate(ctx context.Context, token string) (models.UserProfile, error)
	Logout(ctx context.Context, token string) error
}

type service struct {
	store  Store
	tokens *TokenManager
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// New wires a Service backed by the provided Store.
func New(store Store, tokens *TokenManager, opts Options) Service {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{store: store, tokens: tokens, ttl: ttl, cost: cost, now: time.Now}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return models.UserProfile{}, err
	}

	email, err := validEmail(in.Email)
	if err != nil {
		return models.UserProfile{}, err
	}
	if len(in.Password) < minPasswordLength {
		return models.UserProfile{}, apperr.Invalid("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		return models.UserProfile{}, apperr.Invalid("displayName", "display name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	profile, err := s.store.CreateUserProfile(ctx, models.UserProfile{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
	}, hash)
	if err != nil {
		return models.UserProfile{}, err
	}

	logging.WithContext(ctx).Info().Str("user_id", profile.ID).Msg("Registered user")
	return profile, nil
}

func (s *service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if err := ctx.Err(); err != nil {
		return LoginResult{}, err
	}

	profile, hash, err := s.store.UserCredentialsByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Keep timing uniform for unknown emails.
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	session, err := s.store.CreateSession(ctx, models.Session{
		ID:            uuid.NewString(),
		UserProfileID: profile.ID,
		ExpiresAt:     s.now().Add(s.ttl).UTC(),
	})
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.Issue(profile.ID, session.ID, session.ExpiresAt)
	if err != nil {
		return LoginResult{}, err
	}

	logging.WithContext(ctx).Info().Str("user_id", profile.ID).Msg("User logged in")
	return LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: profile}, nil
}

// Authenticate resolves a bearer token to its user. The session must
// still exist, so logged-out tokens stop working before they expire.
func (s *service) Authenticate(ctx context.Context, token string) (models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return models.UserProfile{}, err
	}

	userID, sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return models.UserProfile{}, err
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.UserProfile{}, ErrInvalidToken
		}
		return models.UserProfile{}, err
	}
	if session.UserProfileID != userID {
		return models.UserProfile{}, ErrInvalidToken
	}
	if !session.ExpiresAt.After(s.now()) {
		return models.UserProfile{}, ErrSessionExpired
	}

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.UserProfile{}, ErrInvalidToken
		}
		return models.UserProfile{}, err
	}
	return profile, nil
}

// Logout revokes the session behind token. Revoking twice is fine.
func (s *service) Logout(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, sessionID)
}

func validEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", apperr.Invalid("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Invalid("email", "email is not a valid address")
	}
	return strings.ToLower(email), nil
}
