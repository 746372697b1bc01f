// Package apptest runs the whole service in-process over the memory store so
// client-side packages can test against the real routes.
package apptest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reclamos-service/internal/app"
	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/domain"
)

const (
	BaseURL           = "http://reclamos.test"
	ModeratorEmail    = "moderador@villamercedes.gob.ar"
	ModeratorPassword = "moderador1"
	Timezone          = "America/Argentina/San_Luis"
)

// Config returns a memory-backed configuration with a seeded moderator.
func Config() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:     "reclamos-test",
			Version:  "test",
			Timezone: Timezone,
		},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:             "apptest-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
			SeedModerator: config.SeedUserConfig{
				Email:    ModeratorEmail,
				Password: ModeratorPassword,
				Nombre:   "Mara",
				Apellido: "Moderadora",
			},
		},
		Claims: config.ClaimsConfig{TransitionPolicy: domain.PolicyPermissive, TrackingPrefix: domain.DefaultTrackingPrefix},
	}
}

// Server is a running application plus its clock.
type Server struct {
	App *app.App
	Now time.Time
}

// New assembles the application with a fixed clock at now.
func New(t testing.TB, now time.Time) *Server {
	t.Helper()
	clock := domain.Clock(func() time.Time { return now })
	a, err := app.New(context.Background(), Config(), nil, app.WithClock(clock))
	if err != nil {
		t.Fatalf("assemble app: %v", err)
	}
	t.Cleanup(a.Close)
	return &Server{App: a, Now: now}
}

// Doer sends requests straight into the fiber app.
func (s *Server) Doer() FiberDoer {
	return FiberDoer{App: s.App.Fiber}
}

// FiberDoer adapts fiber's in-memory test transport to an HTTP client.
type FiberDoer struct {
	App *fiber.App
}

func (d FiberDoer) Do(req *http.Request) (*http.Response, error) {
	return d.App.Test(req, -1)
}
