package auth

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	user := &domain.User{ID: "u-1", Role: domain.RoleExterno}

	session, err := tm.GenerateToken(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if session.TokenID == "" {
		t.Fatal("expected a token id")
	}

	claims, err := tm.ParseToken(session.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u-1" || claims.Role != domain.RoleExterno || claims.ID != session.TokenID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	session, err := NewTokenManager("one", 30).GenerateToken(&domain.User{ID: "u-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("two", 30).ParseToken(session.AccessToken); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestTokenExpires(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	issued := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issued }

	session, err := tm.GenerateToken(&domain.User{ID: "u-1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	tm.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := tm.ParseToken(session.AccessToken); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestPasswordMatches(t *testing.T) {
	hash, err := HashPassword("secreto1", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ok, err := PasswordMatches(hash, "secreto1"); err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	if ok, err := PasswordMatches(hash, "otro"); err != nil || ok {
		t.Fatalf("expected mismatch, got %v %v", ok, err)
	}
}

func TestNilRedisHelpersAreNoops(t *testing.T) {
	var revoker *RedisRevoker
	if revoked, err := revoker.IsRevoked(context.Background(), "x"); err != nil || revoked {
		t.Fatalf("nil revoker: %v %v", revoked, err)
	}
	limiter := NewRedisLoginLimiter(nil, 3, time.Minute)
	if ok, err := limiter.Hit(context.Background(), "a@b.c"); err != nil || !ok {
		t.Fatalf("nil limiter: %v %v", ok, err)
	}
}
