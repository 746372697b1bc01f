package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/reclamos-service/internal/auth"
	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/events"
	"github.com/spec-kit/reclamos-service/internal/repository"
	"github.com/spec-kit/reclamos-service/internal/repository/memstore"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

var fixedNow = time.Date(2025, 4, 10, 14, 30, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeRevoker struct {
	revoked map[string]time.Duration
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	f.revoked[tokenID] = ttl
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := f.revoked[tokenID]
	return ok, nil
}

type fakeLimiter struct {
	max    int
	hits   map[string]int
	resets int
}

func (f *fakeLimiter) Hit(_ context.Context, email string) (bool, error) {
	f.hits[email]++
	return f.hits[email] <= f.max, nil
}

func (f *fakeLimiter) Reset(_ context.Context, email string) error {
	delete(f.hits, email)
	f.resets++
	return nil
}

type fixture struct {
	store      *repository.Store
	dispatcher *recordingDispatcher
	revoker    *fakeRevoker
	limiter    *fakeLimiter
	auth       *AuthService
	users      *UserService
	claims     *ClaimService
	stats      *StatsService
}

func newFixture(t *testing.T, policy domain.TransitionPolicy) *fixture {
	t.Helper()
	store, err := memstore.New()
	if err != nil {
		t.Fatalf("memstore: %v", err)
	}
	clock := domain.Clock(func() time.Time { return fixedNow })
	dispatcher := &recordingDispatcher{}
	revoker := &fakeRevoker{revoked: map[string]time.Duration{}}
	limiter := &fakeLimiter{max: 3, hits: map[string]int{}}
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}

	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		revoker:    revoker,
		limiter:    limiter,
		auth: NewAuthService(cfg, AuthDependencies{
			UserRepo:   store.Users,
			Tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
			Revoker:    revoker,
			Limiter:    limiter,
			Dispatcher: dispatcher,
			Clock:      clock,
		}),
		users: NewUserService(UserDependencies{UserRepo: store.Users, Dispatcher: dispatcher, Clock: clock}),
		claims: NewClaimService(ClaimDependencies{
			ClaimRepo:    store.Claims,
			UserRepo:     store.Users,
			ActivityRepo: store.Activities,
			CommentRepo:  store.Comments,
			Dispatcher:   dispatcher,
			Policy:       policy,
			Clock:        clock,
		}),
		stats: NewStatsService(store.Claims, store.Users, clock),
	}
}

// activeUser creates an approved account directly in the store.
func (f *fixture) activeUser(t *testing.T, email string, role domain.UserRole, area domain.Area) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secreto1", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	confirmed := fixedNow
	user := &domain.User{
		Nombre:           "Nombre",
		Apellido:         "Apellido",
		Email:            email,
		PasswordHash:     hash,
		Role:             role,
		Area:             area,
		AccountStatus:    domain.AccountActive,
		EmailConfirmedAt: &confirmed,
	}
	if err := f.store.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *fixture) newClaim(t *testing.T, moderator *domain.User) *domain.Claim {
	t.Helper()
	claim, err := f.claims.Create(context.Background(), moderator, ClaimCreateInput{
		Categoria:     domain.CategoryBache,
		Descripcion:   "Pozo profundo",
		Calle1:        "Av. Mitre",
		Altura:        "1200",
		Barrio:        "Centro",
		NivelUrgencia: domain.UrgencyUrgente,
	})
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}
	return claim
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}
