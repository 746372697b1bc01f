package portal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/apptest"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/portal"
	"github.com/spec-kit/reclamos-service/internal/stats"
	"github.com/spec-kit/reclamos-service/pkg/client"
)

var fixedNow = time.Date(2025, 4, 10, 14, 30, 0, 0, time.UTC)

func newController(t *testing.T, srv *apptest.Server) *portal.Controller {
	t.Helper()
	loc, err := time.LoadLocation(apptest.Timezone)
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	now := func() time.Time { return fixedNow }
	c := client.New(client.Options{
		BaseURL:   apptest.BaseURL,
		ProjectID: "portal",
		HTTP:      srv.Doer(),
		Tokens:    client.NewMemoryTokenStore("portal"),
		Location:  loc,
		Now:       now,
	})
	return portal.New(c, portal.Options{Location: loc, Now: now})
}

func externoForm() portal.RegisterForm {
	return portal.RegisterForm{
		Nombre:          "María",
		Apellido:        "González",
		Email:           " Maria.Gonzalez@villamercedes.gob.ar ",
		Password:        "externo123",
		ConfirmPassword: "externo123",
		Telefono:        "2657-111111",
		Role:            string(domain.RoleExterno),
		Area:            string(domain.AreaTransito),
	}
}

func claimForm() portal.ClaimForm {
	return portal.ClaimForm{
		Categoria:     string(domain.CategoryLuminaria),
		Descripcion:   "Luminaria apagada en la esquina",
		Calle1:        "Pringles",
		Calle2:        "Belgrano",
		Altura:        "450",
		Barrio:        "Centro",
		NivelUrgencia: string(domain.UrgencyAlta),
	}
}

func mustLogin(t *testing.T, c *portal.Controller, email, password string) *domain.User {
	t.Helper()
	user, err := c.Login(context.Background(), portal.LoginForm{Email: email, Password: password})
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return user
}

func TestRegisterValidatesBeforeCallingBackend(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	c := newController(t, srv)
	ctx := context.Background()

	cases := map[string]func(*portal.RegisterForm){
		"confirmPassword": func(f *portal.RegisterForm) { f.ConfirmPassword = "otra-clave" },
		"password":        func(f *portal.RegisterForm) { f.Password, f.ConfirmPassword = "123", "123" },
		"area":            func(f *portal.RegisterForm) { f.Area = "" },
		"telefono":        func(f *portal.RegisterForm) { f.Telefono = "" },
		"email":           func(f *portal.RegisterForm) { f.Email = "sin-arroba" },
	}
	for field, mutate := range cases {
		form := externoForm()
		mutate(&form)
		_, err := c.Register(ctx, form)
		var verr *portal.ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("%s: expected validation error on %s, got %v", field, field, err)
		}
	}

	user, err := c.Register(ctx, externoForm())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.AccountStatus != domain.AccountPending || user.Email != "maria.gonzalez@villamercedes.gob.ar" {
		t.Fatalf("registered user = %+v", user)
	}
	if c.User() != nil {
		t.Fatalf("registration must not sign in, got %+v", c.User())
	}

	_, err = c.Register(ctx, externoForm())
	var verr *portal.ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected duplicate email validation error, got %v", err)
	}

	_, err = c.Login(ctx, portal.LoginForm{Email: "maria.gonzalez@villamercedes.gob.ar", Password: "externo123"})
	var notActive *client.AccountNotActiveError
	if !errors.As(err, &notActive) || notActive.Status != domain.AccountPending {
		t.Fatalf("expected pending account error, got %v", err)
	}
}

func TestClaimLifecycleAcrossRoles(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	ctx := context.Background()

	mod := newController(t, srv)
	ext := newController(t, srv)
	guest := newController(t, srv)

	if _, err := ext.Register(ctx, externoForm()); err != nil {
		t.Fatalf("register externo: %v", err)
	}

	mustLogin(t, mod, apptest.ModeratorEmail, apptest.ModeratorPassword)
	if mod.View() != portal.ViewInicio {
		t.Fatalf("moderator landed on %s", mod.View())
	}
	pending := mod.PendingUsers()
	if len(pending) != 1 {
		t.Fatalf("pending users = %+v", pending)
	}
	externoID := pending[0].ID
	if err := mod.ApproveUser(ctx, externoID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := mod.RejectUser(ctx, externoID); !errors.Is(err, portal.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}

	created, err := mod.CreateClaim(ctx, claimForm())
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}
	if created.NumeroSeguimiento != "VM-2025-001" || created.Estado != domain.StatusPendiente {
		t.Fatalf("created claim = %+v", created)
	}
	if mod.View() != portal.ViewListado || len(mod.Claims()) != 1 {
		t.Fatalf("after create view=%s claims=%d", mod.View(), len(mod.Claims()))
	}

	assigned, err := mod.AssignClaim(ctx, created.ID, externoID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.AreaAsignada == nil || *assigned.AreaAsignada != domain.AreaTransito || assigned.Estado != domain.StatusAsignado {
		t.Fatalf("assigned claim = %+v", assigned)
	}

	ext.Logout(ctx)
	mustLogin(t, ext, "maria.gonzalez@villamercedes.gob.ar", "externo123")
	if err := ext.Navigate(portal.ViewUsuarios); !errors.Is(err, portal.ErrNotAllowed) {
		t.Fatalf("externo opened usuarios: %v", err)
	}
	if _, err := ext.ChangeStatus(ctx, created.ID, domain.StatusResuelto); !errors.Is(err, portal.ErrNotAllowed) {
		t.Fatalf("externo changed a claim that is not en_proceso: %v", err)
	}

	if _, err := mod.ChangeStatus(ctx, created.ID, domain.StatusEnProceso); err != nil {
		t.Fatalf("moderator status change: %v", err)
	}
	if err := ext.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	summary, err := ext.Home()
	if err != nil || summary.Total != 1 || summary.EnProceso != 1 {
		t.Fatalf("externo home = %+v, %v", summary, err)
	}

	descripcion := "otra descripción"
	if _, err := ext.UpdateClaim(ctx, created.ID, dto.UpdateClaimRequest{Descripcion: &descripcion}); !errors.Is(err, portal.ErrNotAllowed) {
		t.Fatalf("externo edited descripcion: %v", err)
	}
	activity, err := ext.AddActivity(ctx, created.ID, portal.ActivityForm{Descripcion: "Cambio de lámpara", Personal: "Cuadrilla 2"})
	if err != nil {
		t.Fatalf("add activity: %v", err)
	}
	if got := activity.Fecha.Format(domain.ActivityTimeLayout); got != "2025-04-10 11:30" {
		t.Fatalf("activity fecha = %s", got)
	}
	if _, err := ext.ChangeStatus(ctx, created.ID, domain.StatusResuelto); err != nil {
		t.Fatalf("externo resolve: %v", err)
	}

	if err := guest.EnterAsGuest(ctx); err != nil {
		t.Fatalf("guest: %v", err)
	}
	if diff := cmp.Diff([]portal.View{portal.ViewBuscar}, portal.AllowedViews(guest.User())); diff != "" {
		t.Fatalf("guest views (-want +got):\n%s", diff)
	}
	found := guest.Search(portal.SearchQuery{By: portal.SearchByTracking, Value: "vm-2025-001"})
	if len(found) != 1 || found[0].ID != created.ID {
		t.Fatalf("search = %+v", found)
	}
	if miss := guest.Search(portal.SearchQuery{By: portal.SearchByTracking, Value: "VM-2025-999"}); len(miss) != 0 {
		t.Fatalf("expected empty search, got %+v", miss)
	}
	if other := guest.Search(portal.SearchQuery{By: portal.SearchByTracking, Value: "VM-2025-001", Categoria: domain.CategoryBache}); len(other) != 0 {
		t.Fatalf("category pre-filter ignored: %+v", other)
	}
	if all := guest.Search(portal.SearchQuery{Categoria: domain.CategoryLuminaria}); len(all) != 1 {
		t.Fatalf("category-only search = %+v", all)
	}
	if _, err := guest.AddComment(ctx, created.ID, "¡Gracias, ya funciona!"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	commented := guest.Search(portal.SearchQuery{By: portal.SearchByID, Value: created.ID})
	if len(commented) != 1 || len(commented[0].Comentarios) != 1 {
		t.Fatalf("comment not reloaded: %+v", commented)
	}
	if _, err := guest.CreateClaim(ctx, claimForm()); !errors.Is(err, portal.ErrNotAllowed) {
		t.Fatalf("guest created a claim: %v", err)
	}

	if err := mod.Refresh(ctx); err != nil {
		t.Fatalf("refresh moderator: %v", err)
	}
	dash, err := mod.Dashboard()
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.PendingUsers != 0 || dash.ActiveModerators != 1 || dash.ActiveExternos != 1 || len(dash.RecentActivity) != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}
	userStats, err := mod.UserStats(externoID)
	if err != nil || userStats.Total != 1 || userStats.ByStatus[domain.StatusResuelto] != 1 {
		t.Fatalf("user stats = %+v, %v", userStats, err)
	}
	report, err := mod.Report(stats.Monthly(2025, time.April), nil)
	if err != nil || report.Total != 1 {
		t.Fatalf("report = %+v, %v", report, err)
	}
	buf, filename, err := mod.Export(stats.Monthly(2025, time.April), nil)
	if err != nil || buf.Len() == 0 || filename != "estadisticas-reclamos-mensual-2025-4.xlsx" {
		t.Fatalf("export = %d bytes %q, %v", buf.Len(), filename, err)
	}

	if err := mod.DeleteClaim(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(mod.Claims()) != 0 {
		t.Fatalf("claims after delete = %+v", mod.Claims())
	}
}

func TestFailedWriteKeepsCache(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	ctx := context.Background()
	mod := newController(t, srv)
	mustLogin(t, mod, apptest.ModeratorEmail, apptest.ModeratorPassword)
	if _, err := mod.CreateClaim(ctx, claimForm()); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := mod.Claims()

	if err := mod.DeleteClaim(ctx, "9999"); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if diff := cmp.Diff(before, mod.Claims()); diff != "" {
		t.Fatalf("cache changed (-before +after):\n%s", diff)
	}

	form := claimForm()
	form.Barrio = ""
	_, err := mod.CreateClaim(ctx, form)
	var verr *portal.ValidationError
	if !errors.As(err, &verr) || verr.Field != "barrio" {
		t.Fatalf("expected barrio validation error, got %v", err)
	}
}

func TestStartRestoresSessionAndLogoutResets(t *testing.T) {
	srv := apptest.New(t, fixedNow)
	ctx := context.Background()
	loc, _ := time.LoadLocation(apptest.Timezone)
	tokens := client.NewMemoryTokenStore("portal")
	newClient := func() *client.Client {
		return client.New(client.Options{BaseURL: apptest.BaseURL, HTTP: srv.Doer(), Tokens: tokens, Location: loc})
	}

	first := portal.New(newClient(), portal.Options{})
	if user, err := first.Start(ctx); user != nil || err != nil {
		t.Fatalf("start without token = %+v, %v", user, err)
	}
	mustLogin(t, first, apptest.ModeratorEmail, apptest.ModeratorPassword)

	second := portal.New(newClient(), portal.Options{})
	user, err := second.Start(ctx)
	if err != nil || user == nil || user.Role != domain.RoleModerador {
		t.Fatalf("restored user = %+v, %v", user, err)
	}
	if second.Session() == nil {
		t.Fatal("restored session missing")
	}

	second.Logout(ctx)
	if second.User() != nil || second.View() != portal.ViewInicio || len(second.Claims()) != 0 {
		t.Fatalf("logout left state: user=%+v view=%s", second.User(), second.View())
	}
	if _, err := second.CreateClaim(ctx, claimForm()); !errors.Is(err, portal.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

// blockingBackend stalls CreateClaim until released.
type blockingBackend struct {
	portal.Backend
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Login(context.Context, string, string) (*domain.Session, *domain.User, error) {
	return &domain.Session{AccessToken: "t"}, &domain.User{ID: "1", Role: domain.RoleModerador}, nil
}

func (b *blockingBackend) Claims(context.Context) ([]domain.Claim, error) { return nil, nil }

func (b *blockingBackend) Users(context.Context) ([]domain.User, error) { return nil, nil }

func (b *blockingBackend) CreateClaim(context.Context, dto.CreateClaimRequest) (*domain.Claim, error) {
	close(b.started)
	<-b.release
	return &domain.Claim{ID: "1"}, nil
}

func TestConcurrentMutationIsRejected(t *testing.T) {
	backend := &blockingBackend{started: make(chan struct{}), release: make(chan struct{})}
	c := portal.New(backend, portal.Options{})
	ctx := context.Background()
	mustLogin(t, c, "moderador@villamercedes.gob.ar", "x")

	done := make(chan error, 1)
	go func() {
		_, err := c.CreateClaim(ctx, claimForm())
		done <- err
	}()
	<-backend.started

	if _, err := c.CreateClaim(ctx, claimForm()); !errors.Is(err, portal.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(backend.release)
	if err := <-done; err != nil {
		t.Fatalf("first create: %v", err)
	}
}
