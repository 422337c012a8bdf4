package utils

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-that-is-long-enough-123456", time.Hour)
	token, expiresAt, err := issuer.Issue(7, "gio", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", expiresAt)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "gio" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if SessionStateAt(claims, time.Now()) != SessionAuthenticated {
		t.Fatalf("expected authenticated session")
	}
}

func TestTokenIssuerExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-that-is-long-enough-123456", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(1, "gio", "staff")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuerRejectsForeignSecret(t *testing.T) {
	a := NewTokenIssuer("secret-a-secret-a-secret-a-secret-a", time.Hour)
	b := NewTokenIssuer("secret-b-secret-b-secret-b-secret-b", time.Hour)
	token, _, err := a.Issue(1, "gio", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestSessionStateAt(t *testing.T) {
	issuer := NewTokenIssuer("test-secret-that-is-long-enough-123456", time.Hour)
	token, expiresAt, err := issuer.Issue(1, "gio", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := SessionStateAt(claims, expiresAt.Add(-time.Second)); got != SessionAuthenticated {
		t.Fatalf("before expiry: got %s", got)
	}
	if got := SessionStateAt(claims, expiresAt.Add(time.Second)); got != SessionExpired {
		t.Fatalf("after expiry: got %s", got)
	}
	if got := SessionStateAt(nil, time.Now()); got != SessionExpired {
		t.Fatalf("nil claims: got %s", got)
	}
}
