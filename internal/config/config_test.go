package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("CLAIM_TRANSITION_POLICY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Errorf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Claims.TransitionPolicy != "permissive" {
		t.Errorf("policy = %q", cfg.Claims.TransitionPolicy)
	}
	if cfg.Claims.TrackingPrefix != "VM" {
		t.Errorf("prefix = %q", cfg.Claims.TrackingPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRequiresDSNForPostgres(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Auth:    AuthConfig{JWTSecret: "secret"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without POSTGRES_DSN")
	}
	cfg.Postgres.DSN = "postgres://localhost/reclamos"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Driver: "kv"}, Auth: AuthConfig{JWTSecret: "secret"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSeedEmailIsNormalized(t *testing.T) {
	t.Setenv("SEED_MODERATOR_EMAIL", "  Juan.Perez@VillaMercedes.gob.ar ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Auth.SeedModerator.Email; got != "juan.perez@villamercedes.gob.ar" {
		t.Errorf("seed email = %q", got)
	}
}
