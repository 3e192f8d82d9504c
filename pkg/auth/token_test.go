package auth_test

import (
	"testing"
	"time"

	"github.com/Abraxas-365/phonex/pkg/auth"
)

const testPhone = "+998901234567"

func TestTokenService_IssueAndValidate(t *testing.T) {
	s := auth.NewTokenService("test-secret", 15*time.Minute, "phonex")

	token, expiresAt, err := s.Issue(testPhone)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if until := time.Until(expiresAt); until < 14*time.Minute || until > 15*time.Minute {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := s.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Phone != testPhone {
		t.Fatalf("expected phone claim %q, got %q", testPhone, claims.Phone)
	}
	if claims.Subject != testPhone {
		t.Fatalf("expected subject %q, got %q", testPhone, claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("expected a token ID")
	}
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := auth.NewTokenService("secret-a", 15*time.Minute, "")
	verifier := auth.NewTokenService("secret-b", 15*time.Minute, "")

	token, _, err := issuer.Issue(testPhone)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Validate(token); err == nil {
		t.Fatal("expected validation failure for wrong secret")
	}
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	s := auth.NewTokenService("test-secret", -time.Minute, "")

	token, _, err := s.Issue(testPhone)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := s.Validate(token); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	s := auth.NewTokenService("test-secret", 0, "")

	if _, err := s.Validate("not.a.token"); err == nil {
		t.Fatal("expected validation failure for malformed token")
	}
}
