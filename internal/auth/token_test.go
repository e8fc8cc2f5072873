package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret-at-least-32-bytes-long!", 15*time.Minute)
	token, expires, err := m.Issue("user-1", "ada@example.com", "sess-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if d := time.Until(expires); d < 14*time.Minute || d > 15*time.Minute {
		t.Errorf("expiry %v is not about 15m away", d)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ada@example.com" || claims.SessionID != "sess-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue("user-1", "a@b.co", "sess-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Validate() error = %v, want ErrExpiredToken", err)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", time.Minute)
	other := NewTokenManager("other-secret", time.Minute)
	foreign, _, _ := other.Issue("user-1", "a@b.co", "sess-1")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		SessionID:        "sess-1",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: tokenIssuer},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSession, _, _ := m.Issue("user-1", "a@b.co", "")

	tests := map[string]string{
		"garbage":      "not.a.jwt",
		"wrong secret": foreign,
		"alg none":     unsigned,
		"missing sid":  noSession,
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
