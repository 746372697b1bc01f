package portal

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

func TestAllowedViewsPerRole(t *testing.T) {
	cases := []struct {
		name string
		user *domain.User
		want []View
	}{
		{"nobody", nil, []View{}},
		{"guest", domain.NewGuest(), []View{ViewBuscar}},
		{"usuario", &domain.User{ID: "u", Email: "u@x", Role: domain.RoleUsuario}, []View{ViewBuscar}},
		{"externo", &domain.User{ID: "e", Email: "e@x", Role: domain.RoleExterno}, []View{ViewInicio, ViewListado, ViewEstadisticas, ViewBuscar}},
		{"moderador", &domain.User{ID: "m", Email: "m@x", Role: domain.RoleModerador}, Views},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, AllowedViews(tc.user)); diff != "" {
				t.Fatalf("views (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHomeView(t *testing.T) {
	if got := homeView(domain.NewGuest()); got != ViewBuscar {
		t.Fatalf("guest home = %s", got)
	}
	if got := homeView(&domain.User{Role: domain.RoleExterno}); got != ViewInicio {
		t.Fatalf("externo home = %s", got)
	}
}
