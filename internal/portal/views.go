package portal

import "github.com/spec-kit/reclamos-service/internal/domain"

// View names a screen of the portal.
type View string

const (
	ViewInicio       View = "inicio"
	ViewCrearReclamo View = "crear-reclamo"
	ViewListado      View = "listado-reclamos"
	ViewEstadisticas View = "estadisticas"
	ViewBuscar       View = "buscar-reclamo"
	ViewUsuarios     View = "usuarios"
)

// Views lists every screen in menu order.
var Views = []View{ViewInicio, ViewCrearReclamo, ViewListado, ViewEstadisticas, ViewBuscar, ViewUsuarios}

var viewRoles = map[View][]domain.UserRole{
	ViewInicio:       {domain.RoleModerador, domain.RoleExterno},
	ViewCrearReclamo: {domain.RoleModerador},
	ViewListado:      {domain.RoleModerador, domain.RoleExterno},
	ViewEstadisticas: {domain.RoleModerador, domain.RoleExterno},
	ViewBuscar:       {domain.RoleModerador, domain.RoleExterno, domain.RoleUsuario},
	ViewUsuarios:     {domain.RoleModerador},
}

// Label returns the menu label.
func (v View) Label() string {
	switch v {
	case ViewInicio:
		return "Inicio"
	case ViewCrearReclamo:
		return "Crear Reclamo"
	case ViewListado:
		return "Listado de Reclamos"
	case ViewEstadisticas:
		return "Estadísticas"
	case ViewBuscar:
		return "Buscar Reclamo"
	case ViewUsuarios:
		return "Usuarios"
	}
	return string(v)
}

// AllowedFor reports whether user may open v. Guests only get the search view.
func (v View) AllowedFor(user *domain.User) bool {
	if user == nil {
		return false
	}
	if user.IsGuest() {
		return v == ViewBuscar
	}
	for _, role := range viewRoles[v] {
		if role == user.Role {
			return true
		}
	}
	return false
}

// AllowedViews returns the menu of user.
func AllowedViews(user *domain.User) []View {
	out := make([]View, 0, len(Views))
	for _, v := range Views {
		if v.AllowedFor(user) {
			out = append(out, v)
		}
	}
	return out
}

// homeView is where a user lands after entering.
func homeView(user *domain.User) View {
	if user.Role == domain.RoleUsuario {
		return ViewBuscar
	}
	return ViewInicio
}
