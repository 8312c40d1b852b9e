package users

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gigjournal/internal/apperr"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("0123456789abcdef0123")
	token, err := m.Issue("user-1", "sess-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	userID, sessionID, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if userID != "user-1" || sessionID != "sess-1" {
		t.Fatalf("got %q/%q", userID, sessionID)
	}
}

func TestParseRejects(t *testing.T) {
	m := NewTokenManager("0123456789abcdef0123")
	other := NewTokenManager("another-secret-entirely")

	expired, err := m.Issue("user-1", "sess-1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	forged, err := other.Issue("user-1", "sess-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "user-1",
		ID:        "sess-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong secret": forged,
		"alg none":     none,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := m.Parse(token)
			if !errors.Is(err, ErrInvalidToken) || !errors.Is(err, apperr.ErrUnauthorized) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
