package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gigjournal/internal/models"
)

// CreateUserProfile registers a profile with its bcrypt password hash.
func (s *Store) CreateUserProfile(ctx context.Context, profile models.UserProfile, passwordHash []byte) (models.UserProfile, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_profiles (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, profile.ID, profile.Email, profile.DisplayName, passwordHash).Scan(&profile.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.UserProfile{}, ErrEmailTaken
		}
		return models.UserProfile{}, fmt.Errorf("insert user profile: %w", err)
	}
	return profile, nil
}

// UserCredentialsByEmail returns the profile and password hash for login.
func (s *Store) UserCredentialsByEmail(ctx context.Context, email string) (models.UserProfile, []byte, error) {
	var (
		p    models.UserProfile
		hash []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, created_at, password_hash
		FROM user_profiles
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&p.ID, &p.Email, &p.DisplayName, &p.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserProfile{}, nil, ErrUserNotFound
		}
		return models.UserProfile{}, nil, fmt.Errorf("lookup user: %w", err)
	}
	return p, hash, nil
}

// GetUserProfile loads a profile by id.
func (s *Store) GetUserProfile(ctx context.Context, id string) (models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, created_at
		FROM user_profiles
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &p.DisplayName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserProfile{}, ErrUserNotFound
		}
		return models.UserProfile{}, fmt.Errorf("select user profile: %w", err)
	}
	return p, nil
}

// CreateSession stores a new login session.
func (s *Store) CreateSession(ctx context.Context, session models.Session) (models.Session, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, user_profile_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, session.ID, session.UserProfileID, session.ExpiresAt).Scan(&session.CreatedAt)
	if err != nil {
		return models.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_profile_id, created_at, expires_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(&session.ID, &session.UserProfileID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, fmt.Errorf("lookup session: %w", err)
	}
	return session, nil
}

// DeleteSession revokes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
