package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("secret", "issuer", time.Minute, Claims{
		UserID:         "user-1",
		OrganizationID: "org-1",
		Role:           "OWNER",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseToken("secret", "issuer", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if claims.UserID != "user-1" || claims.OrganizationID != "org-1" || claims.Role != "OWNER" {
		t.Fatalf("unexpected claims")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewToken("secret", "issuer", time.Minute, Claims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other-secret", "issuer", token); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestTokenRejectsWrongIssuer(t *testing.T) {
	token, err := NewToken("secret", "issuer", time.Minute, Claims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "someone-else", token); err == nil {
		t.Fatalf("expected wrong issuer to be rejected")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	token, err := NewToken("secret", "issuer", -time.Minute, Claims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "issuer", token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
