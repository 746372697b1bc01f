package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/apptest"
	"github.com/spec-kit/reclamos-service/internal/portal"
)

func startServer(t *testing.T) {
	t.Helper()
	srv := apptest.New(t, time.Date(2025, 4, 10, 14, 30, 0, 0, time.UTC))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.App.Fiber.Listener(ln) }()
	t.Cleanup(func() { _ = srv.App.Fiber.Shutdown() })

	t.Setenv("RECLAMOS_API_URL", "http://"+ln.Addr().String())
	t.Setenv("RECLAMOS_PROJECT_ID", "ctl-test")
	t.Setenv("RECLAMOS_TOKEN_DIR", t.TempDir())
	t.Setenv("APP_TIMEZONE", apptest.Timezone)
	t.Setenv("RECLAMOS_PASSWORD", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLoginCreateListAndLogout(t *testing.T) {
	startServer(t)

	if _, err := run(t, "claims", "list"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn, got %v", err)
	}
	if _, err := run(t, "login", "--email", apptest.ModeratorEmail, "--password", apptest.ModeratorPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run(t, "claims", "create",
		"--categoria", "bache", "--descripcion", "Pozo profundo", "--calle1", "Mitre",
		"--altura", "1200", "--barrio", "Pueyrredón", "--urgencia", "urgente")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "VM-2025-001") {
		t.Fatalf("create output = %q", out)
	}

	out, err = run(t, "--json", "claims", "list", "--categoria", "bache")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var list dto.ClaimListEnvelope
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list %q: %v", out, err)
	}
	if len(list.Claims) != 1 || list.Claims[0].Barrio != "Pueyrredón" {
		t.Fatalf("listed claims = %+v", list.Claims)
	}

	dir := t.TempDir()
	if _, err := run(t, "stats", "export", "--anio", "2025", "--mes", "4", "-o", dir); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "estadisticas-reclamos-mensual-2025-4.xlsx")); err != nil {
		t.Fatalf("workbook not written: %v", err)
	}
	if _, err := run(t, "stats", "report", "--modo", "semanal"); err == nil {
		t.Fatal("expected invalid modo to fail")
	}

	if _, err := run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, err = run(t, "session")
	if err != nil || !strings.Contains(out, "Sin sesión activa") {
		t.Fatalf("session after logout = %q, %v", out, err)
	}
}

func TestGuestCanSearchButNotList(t *testing.T) {
	startServer(t)

	out, err := run(t, "--guest", "claims", "search", "--numero", "VM-2025-404")
	if err != nil || !strings.Contains(out, "No se encontraron reclamos") {
		t.Fatalf("guest search = %q, %v", out, err)
	}
	if _, err := run(t, "--guest", "claims", "list"); !errors.Is(err, portal.ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed for guest listing, got %v", err)
	}
}
