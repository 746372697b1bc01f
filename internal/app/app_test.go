package app

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/spec-kit/reclamos-service/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "reclamos", Version: "test", Timezone: "America/Argentina/San_Luis"},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:             "app-test",
			AccessTokenTTLMinutes: 30,
			BcryptCost:            4,
			SeedModerator: config.SeedUserConfig{
				Email:    "mod@example.com",
				Password: "moderador1",
				Nombre:   "Mod",
			},
		},
		Claims: config.ClaimsConfig{TransitionPolicy: "strict", TrackingPrefix: "VM"},
	}
}

func TestNewMemoryAppSeedsModeratorAndServes(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Store.Users.GetByEmail(context.Background(), "mod@example.com"); err != nil {
		t.Fatalf("seeded moderator missing: %v", err)
	}
	resp, err := a.Fiber.Test(httptest.NewRequest("GET", "/health/ready", nil), -1)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("ready status %d", resp.StatusCode)
	}
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	cfg := memoryConfig()
	cfg.Claims.TransitionPolicy = "chaotic"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestPostgresDriverRequiresDSN(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Driver = config.StorageDriverPostgres
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without DSN")
	}
}
