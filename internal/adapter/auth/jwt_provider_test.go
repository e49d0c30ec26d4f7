package auth

import (
	"testing"
	"time"

	"github.com/joshsssn/marketplace/internal/port"
)

func TestHashAndVerifyPassword(t *testing.T) {
	p := NewJWTProvider("test-secret", time.Hour)

	hash, err := p.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "secret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !p.VerifyPassword("secret", hash) {
		t.Error("correct password should verify")
	}
	if p.VerifyPassword("wrong", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	p := NewJWTProvider("test-secret", time.Hour)

	token, err := p.IssueToken(port.Identity{UserID: 42, Username: "alice", Role: "admin"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	identity, err := p.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if identity.UserID != 42 || identity.Username != "alice" || identity.Role != "admin" {
		t.Errorf("claims did not round-trip: %+v", identity)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewJWTProvider("secret-a", time.Hour)
	verifier := NewJWTProvider("secret-b", time.Hour)

	token, err := issuer.IssueToken(port.Identity{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret should be rejected")
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	p := NewJWTProvider("test-secret", time.Hour)

	token, err := p.IssueToken(port.Identity{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := p.ValidateToken(tampered); err == nil {
		t.Error("tampered token should be rejected")
	}
	if _, err := p.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token should be rejected")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	p := NewJWTProvider("test-secret", -time.Minute)

	token, err := p.IssueToken(port.Identity{UserID: 1, Username: "alice"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := p.ValidateToken(token); err == nil {
		t.Error("expired token should be rejected")
	}
}
