package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/reclamos-service/internal/auth"
	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/domain"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

func TestSignupCreatesPendingUserThatCannotLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	user, err := f.auth.Signup(ctx, SignupInput{
		Email:    "  Vecina@Example.com ",
		Password: "secreto1",
		Nombre:   "Vecina",
		Role:     domain.RoleUsuario,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.AccountStatus != domain.AccountPending {
		t.Fatalf("status = %s, want pending", user.AccountStatus)
	}
	if user.Email != "vecina@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}

	_, _, err = f.auth.Login(ctx, "vecina@example.com", "secreto1")
	assertCode(t, err, apperrors.CodeAccountNotActive)
	if got := apperrors.ToDomainError(err).Details["accountStatus"]; got != domain.AccountPending {
		t.Fatalf("accountStatus detail = %v", got)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	input := SignupInput{Email: "dup@example.com", Password: "secreto1", Nombre: "A", Role: domain.RoleUsuario}

	if _, err := f.auth.Signup(ctx, input); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, err := f.auth.Signup(ctx, input)
	assertCode(t, err, apperrors.CodeEmailAlreadyRegistered)
	if status := apperrors.ToDomainError(err).HTTPStatus; status != 400 {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t, nil)
	cases := map[string]SignupInput{
		"short password":    {Email: "a@b.com", Password: "123", Nombre: "A", Role: domain.RoleUsuario},
		"bad email":         {Email: "nope", Password: "secreto1", Nombre: "A", Role: domain.RoleUsuario},
		"externo sin area":  {Email: "a@b.com", Password: "secreto1", Nombre: "A", Role: domain.RoleExterno},
		"area para usuario": {Email: "a@b.com", Password: "secreto1", Nombre: "A", Role: domain.RoleUsuario, Area: domain.AreaTransito},
		"unknown role":      {Email: "a@b.com", Password: "secreto1", Nombre: "A", Role: "admin"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Signup(context.Background(), input)
			assertCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestLoginAfterApproval(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	moderator := f.activeUser(t, "mod@example.com", domain.RoleModerador, "")

	user, err := f.auth.Signup(ctx, SignupInput{Email: "w@example.com", Password: "secreto1", Nombre: "W", Role: domain.RoleExterno, Area: domain.AreaObrasPublicas})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	approved, err := f.users.Approve(ctx, moderator, user.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.EmailConfirmedAt == nil {
		t.Fatal("approval must confirm the identity")
	}

	session, got, err := f.auth.Login(ctx, "W@example.com", "secreto1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID || session.AccessToken == "" {
		t.Fatalf("unexpected login result: %+v %+v", got, session)
	}
	if f.limiter.resets != 1 {
		t.Fatalf("expected limiter reset on success, got %d", f.limiter.resets)
	}
}

func TestRejectedUserCannotLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	moderator := f.activeUser(t, "mod@example.com", domain.RoleModerador, "")

	user, err := f.auth.Signup(ctx, SignupInput{Email: "r@example.com", Password: "secreto1", Nombre: "R", Role: domain.RoleUsuario})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := f.users.Reject(ctx, moderator, user.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, _, err = f.auth.Login(ctx, "r@example.com", "secreto1")
	assertCode(t, err, apperrors.CodeAccountNotActive)
	if got := apperrors.ToDomainError(err).Details["accountStatus"]; got != domain.AccountRejected {
		t.Fatalf("accountStatus detail = %v", got)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, nil)
	f.activeUser(t, "mod@example.com", domain.RoleModerador, "")

	_, _, err := f.auth.Login(context.Background(), "mod@example.com", "wrong-pass")
	assertCode(t, err, apperrors.CodeInvalidCredentials)
	_, _, err = f.auth.Login(context.Background(), "ghost@example.com", "secreto1")
	assertCode(t, err, apperrors.CodeInvalidCredentials)
}

func TestLoginThrottled(t *testing.T) {
	f := newFixture(t, nil)
	f.activeUser(t, "mod@example.com", domain.RoleModerador, "")

	for i := 0; i < 3; i++ {
		_, _, err := f.auth.Login(context.Background(), "mod@example.com", "wrong-pass")
		assertCode(t, err, apperrors.CodeInvalidCredentials)
	}
	_, _, err := f.auth.Login(context.Background(), "mod@example.com", "secreto1")
	assertCode(t, err, apperrors.CodeTooManyRequests)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t, nil)
	user := f.activeUser(t, "mod@example.com", domain.RoleModerador, "")
	principal := &auth.Principal{User: user, TokenID: "jti-1", ExpiresAt: fixedNow.Add(30 * time.Minute)}

	f.auth.Logout(context.Background(), principal)
	if ttl, ok := f.revoker.revoked["jti-1"]; !ok || ttl.Minutes() != 30 {
		t.Fatalf("expected 30m revocation, got %v %v", ttl, ok)
	}

	f.auth.Logout(context.Background(), auth.GuestPrincipal())
	if len(f.revoker.revoked) != 1 {
		t.Fatalf("guest logout must not revoke anything")
	}
}

func TestSeedModeratorIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	seed := config.SeedUserConfig{Email: "Admin@Example.com", Password: "secreto1", Nombre: "Admin"}

	first, err := f.auth.SeedModerator(context.Background(), seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if first.Role != domain.RoleModerador || !first.CanAuthenticate() {
		t.Fatalf("seeded moderator not usable: %+v", first)
	}
	second, err := f.auth.SeedModerator(context.Background(), seed)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("reseed created a new user")
	}
	if none, err := f.auth.SeedModerator(context.Background(), config.SeedUserConfig{}); err != nil || none != nil {
		t.Fatalf("empty seed should be skipped, got %v %v", none, err)
	}
}
