package client_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/apptest"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/pkg/client"
)

var fixedNow = time.Date(2025, 4, 10, 14, 30, 0, 0, time.UTC)

func newClient(t *testing.T, srv *apptest.Server, tokens client.TokenStore) *client.Client {
	t.Helper()
	loc, err := time.LoadLocation(apptest.Timezone)
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	return client.New(client.Options{
		BaseURL:   apptest.BaseURL,
		ProjectID: "test",
		HTTP:      srv.Doer(),
		Tokens:    tokens,
		Location:  loc,
		Now:       func() time.Time { return fixedNow },
	})
}

func TestLoginPersistsSessionAndGetSessionResolvesIt(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	tokens := client.NewMemoryTokenStore("test")
	c := newClient(t, srv, tokens)
	ctx := context.Background()

	if session, user := c.GetSession(ctx); session != nil || user != nil {
		t.Fatalf("expected empty session before login, got %v %v", session, user)
	}

	session, user, err := c.Login(ctx, apptest.ModeratorEmail, apptest.ModeratorPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != domain.RoleModerador || session.AccessToken == "" {
		t.Fatalf("unexpected login result %+v %+v", session, user)
	}
	stored, err := tokens.Load()
	if err != nil || stored == nil || stored.AccessToken != session.AccessToken {
		t.Fatalf("stored session = %+v, %v", stored, err)
	}

	_, again := c.GetSession(ctx)
	if again == nil || again.Email != apptest.ModeratorEmail {
		t.Fatalf("session user = %+v", again)
	}

	c.Logout(ctx)
	if stored, _ := tokens.Load(); stored != nil {
		t.Fatalf("logout kept session %+v", stored)
	}
}

func TestGetSessionClearsInvalidToken(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	tokens := client.NewMemoryTokenStore("test")
	if err := tokens.Save(&domain.Session{AccessToken: "forged", ExpiresAt: fixedNow.Add(time.Hour)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	c := newClient(t, srv, tokens)

	session, user := c.GetSession(context.Background())
	if session != nil || user != nil {
		t.Fatalf("expected fail-open nil session, got %v %v", session, user)
	}
	if stored, _ := tokens.Load(); stored != nil {
		t.Fatal("invalid token was not cleared")
	}
}

func TestTypedErrors(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	c := newClient(t, srv, nil)
	ctx := context.Background()

	_, _, err := c.Login(ctx, apptest.ModeratorEmail, "wrong-password")
	if !errors.Is(err, client.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}

	_, err = c.Signup(ctx, dto.SignupRequest{Email: "ana@example.com", Password: "secreto1", Nombre: "Ana", Role: "usuario"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err = c.Signup(ctx, dto.SignupRequest{Email: "ana@example.com", Password: "secreto1", Nombre: "Ana", Role: "usuario"})
	if !errors.Is(err, client.ErrEmailAlreadyRegistered) {
		t.Fatalf("duplicate signup err = %v", err)
	}

	_, _, err = c.Login(ctx, "ana@example.com", "secreto1")
	var notActive *client.AccountNotActiveError
	if !errors.As(err, &notActive) || notActive.Status != domain.AccountPending {
		t.Fatalf("pending login err = %v", err)
	}
	if !errors.Is(err, client.ErrAccountNotActive) {
		t.Fatal("AccountNotActiveError should match ErrAccountNotActive")
	}

	if _, err := c.Users(ctx); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("anonymous users err = %v", err)
	}
	if _, err := c.ClaimByTrackingNumber(ctx, "VM-2025-404"); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("missing claim err = %v", err)
	}
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c := client.New(client.Options{BaseURL: "http://nowhere", HTTP: failingDoer{}})
	if _, err := c.Claims(context.Background()); !errors.Is(err, client.ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestClaimRoundTripKeepsActivityTimestamps(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	c := newClient(t, srv, nil)
	ctx := context.Background()
	if _, _, err := c.Login(ctx, apptest.ModeratorEmail, apptest.ModeratorPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	created, err := c.CreateClaim(ctx, dto.CreateClaimRequest{
		Categoria: "luminaria", Descripcion: "Poste apagado", Calle1: "Belgrano", Altura: "450", Barrio: "Norte", NivelUrgencia: "media",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	activity, err := c.AddActivity(ctx, created.ID, "Cambio de lámpara", "Cuadrilla 1")
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if got := activity.Fecha.In(c.Location()).Format(domain.ActivityTimeLayout); got != "2025-04-10 11:30" {
		t.Fatalf("activity fecha = %s", got)
	}

	fetched, err := c.ClaimByTrackingNumber(ctx, created.NumeroSeguimiento)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if diff := cmp.Diff(*activity, fetched.Actividades[0]); diff != "" {
		t.Fatalf("activity mismatch (-want +got):\n%s", diff)
	}

	raw, filename, err := c.ExportStats(ctx, "mensual", 2025, 4, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filename != "estadisticas-reclamos-mensual-2025-4.xlsx" || !bytes.HasPrefix(raw, []byte("PK")) {
		t.Fatalf("export = %s (%d bytes)", filename, len(raw))
	}
}

func TestFileTokenStore(t *testing.T) {
	dir := t.TempDir()
	store, err := client.NewFileTokenStore(dir, "awook")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if s, err := store.Load(); err != nil || s != nil {
		t.Fatalf("empty load = %v, %v", s, err)
	}

	want := &domain.Session{AccessToken: "tok", ExpiresAt: time.Unix(1_800_000_000, 0).UTC()}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sb-awook-auth-token")); err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	other := filepath.Join(dir, "sb-other-auth-token")
	if err := os.WriteFile(other, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(other); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("clear left %s behind", other)
	}
}
