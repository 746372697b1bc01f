// Package portal holds the client-side application state: who is signed in,
// which view is open and the cached claim and user lists. Every write goes
// through the backend and is followed by a reload of the cached lists.
package portal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/pkg/client"
)

var (
	// ErrNotAllowed is returned when the current user may not perform an action.
	ErrNotAllowed = errors.New("portal: action not allowed for current user")
	// ErrBusy is returned while another mutation is in flight.
	ErrBusy = errors.New("portal: another operation is in progress")
	// ErrNoSession is returned by actions that need someone signed in.
	ErrNoSession = errors.New("portal: no active session")
)

// Backend is the remote collaborator. *client.Client satisfies it.
type Backend interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.Session, *domain.User, error)
	GetSession(ctx context.Context) (*domain.Session, *domain.User)
	Logout(ctx context.Context)
	Users(ctx context.Context) ([]domain.User, error)
	SetAccountStatus(ctx context.Context, userID string, status domain.AccountStatus) (*domain.User, error)
	Claims(ctx context.Context) ([]domain.Claim, error)
	CreateClaim(ctx context.Context, req dto.CreateClaimRequest) (*domain.Claim, error)
	UpdateClaim(ctx context.Context, id string, req dto.UpdateClaimRequest) (*domain.Claim, error)
	AssignClaim(ctx context.Context, id, userID string, area domain.Area) (*domain.Claim, error)
	DeleteClaim(ctx context.Context, id string) error
	AddActivity(ctx context.Context, id, descripcion, personal string) (*domain.Activity, error)
	AddComment(ctx context.Context, id, comentario string) (*domain.Claim, error)
}

var _ Backend = (*client.Client)(nil)

// Options configures a Controller.
type Options struct {
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

// Controller is the portal state machine.
type Controller struct {
	backend  Backend
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time

	// writing admits one mutation at a time.
	writing sync.Mutex

	mu      sync.RWMutex
	session *domain.Session
	user    *domain.User
	view    View
	claims  []domain.Claim
	users   []domain.User
}

// New builds a controller with nobody signed in.
func New(backend Backend, opts Options) *Controller {
	c := &Controller{
		backend:  backend,
		logger:   opts.Logger,
		location: opts.Location,
		now:      opts.Now,
		view:     ViewInicio,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.location == nil {
		c.location = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Start restores a persisted session, if any, and loads the lists.
func (c *Controller) Start(ctx context.Context) (*domain.User, error) {
	session, user := c.backend.GetSession(ctx)
	if user == nil {
		return nil, nil
	}
	c.enter(session, user)
	return c.User(), c.reload(ctx)
}

// Login validates the form, signs in and loads the lists.
func (c *Controller) Login(ctx context.Context, form LoginForm) (*domain.User, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := checkForm(form); err != nil {
		return nil, err
	}
	session, user, err := c.backend.Login(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}
	c.enter(session, user)
	c.logger.Info("signed in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return c.User(), c.reload(ctx)
}

// EnterAsGuest opens the public search view without contacting the
// authentication backend.
func (c *Controller) EnterAsGuest(ctx context.Context) error {
	c.enter(nil, domain.NewGuest())
	return c.reload(ctx)
}

// Register submits a self-registration. The new account stays pending until
// a moderator approves it, so nobody is signed in afterwards.
func (c *Controller) Register(ctx context.Context, form RegisterForm) (*domain.User, error) {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	if err := checkForm(form); err != nil {
		return nil, err
	}
	if c.emailTaken(form.Email) {
		return nil, &ValidationError{Field: "email", Message: "is already registered"}
	}
	req := dto.SignupRequest{
		Email:    form.Email,
		Password: form.Password,
		Nombre:   strings.TrimSpace(form.Nombre),
		Apellido: strings.TrimSpace(form.Apellido),
		Telefono: strings.TrimSpace(form.Telefono),
		Role:     form.Role,
	}
	if domain.UserRole(form.Role) == domain.RoleExterno {
		req.Area = form.Area
	}
	user, err := c.backend.Signup(ctx, req)
	if errors.Is(err, client.ErrEmailAlreadyRegistered) {
		return nil, &ValidationError{Field: "email", Message: "is already registered"}
	}
	return user, err
}

// Logout always succeeds and resets the controller.
func (c *Controller) Logout(ctx context.Context) {
	c.backend.Logout(ctx)
	c.mu.Lock()
	c.session = nil
	c.user = nil
	c.view = ViewInicio
	c.claims = nil
	c.users = nil
	c.mu.Unlock()
}

// Navigate opens v if the current user may see it.
func (c *Controller) Navigate(v View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !v.AllowedFor(c.user) {
		return ErrNotAllowed
	}
	c.view = v
	return nil
}

// User returns the signed-in user, the guest, or nil.
func (c *Controller) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Session returns the current session, nil for guests and signed-out state.
func (c *Controller) Session() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// View returns the open view.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Claims returns a copy of the cached claims.
func (c *Controller) Claims() []domain.Claim {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Claim(nil), c.claims...)
}

// Users returns a copy of the cached users. Only moderators load them.
func (c *Controller) Users() []domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.User(nil), c.users...)
}

// Location is the zone dates are rendered in.
func (c *Controller) Location() *time.Location {
	return c.location
}

// Refresh reloads the cached lists.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.User() == nil {
		return ErrNoSession
	}
	return c.reload(ctx)
}

func (c *Controller) enter(session *domain.Session, user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
	c.user = user
	c.view = homeView(user)
	c.claims = nil
	c.users = nil
}

// reload fetches both lists and swaps them in only when every fetch succeeds.
func (c *Controller) reload(ctx context.Context) error {
	user := c.User()
	if user == nil {
		return ErrNoSession
	}
	claims, err := c.backend.Claims(ctx)
	if err != nil {
		return err
	}
	var users []domain.User
	if user.Role == domain.RoleModerador {
		if users, err = c.backend.Users(ctx); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.claims = claims
	c.users = users
	c.mu.Unlock()
	return nil
}

// mutate runs write under the single-flight guard and reloads after success.
// A failed write leaves the cache as it was.
func (c *Controller) mutate(ctx context.Context, op string, write func() error) error {
	if !c.writing.TryLock() {
		return ErrBusy
	}
	defer c.writing.Unlock()
	if err := write(); err != nil {
		c.logger.Warn("portal write failed", zap.String("op", op), zap.Error(err))
		return err
	}
	if err := c.reload(ctx); err != nil {
		c.logger.Warn("reload after write failed", zap.String("op", op), zap.Error(err))
	}
	return nil
}

func (c *Controller) emailTaken(email string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (c *Controller) findClaim(id string) (domain.Claim, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, claim := range c.claims {
		if claim.ID == id {
			return claim, true
		}
	}
	return domain.Claim{}, false
}

func (c *Controller) findUser(id string) (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, u := range c.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

func (c *Controller) requireRole(roles ...domain.UserRole) (*domain.User, error) {
	user := c.User()
	if user == nil {
		return nil, ErrNoSession
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, ErrNotAllowed
}
