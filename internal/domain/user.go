package domain

import "time"

// UserRole enumerates who a user is within the municipality.
type UserRole string

const (
	RoleModerador UserRole = "moderador"
	RoleExterno   UserRole = "externo"
	RoleUsuario   UserRole = "usuario"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleModerador, RoleExterno, RoleUsuario:
		return true
	}
	return false
}

// AccountStatus represents approval states for a user account.
type AccountStatus string

const (
	AccountPending  AccountStatus = "pending"
	AccountActive   AccountStatus = "active"
	AccountRejected AccountStatus = "rejected"
)

// Valid reports whether the status is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountPending, AccountActive, AccountRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether an account may move from s to next.
// Only pending accounts are ever decided; active and rejected are terminal.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	switch s {
	case AccountPending:
		return next == AccountActive || next == AccountRejected
	case AccountActive, AccountRejected:
		return false
	}
	return false
}

// Area names a municipal department that claims are routed to.
type Area string

const (
	AreaObrasPublicas     Area = "Obras Públicas"
	AreaServiciosPublicos Area = "Servicios Públicos"
	AreaHigieneUrbana     Area = "Higiene Urbana"
	AreaTransito          Area = "Tránsito"
	AreaEspaciosVerdes    Area = "Espacios Verdes"
	AreaMantenimiento     Area = "Mantenimiento"
)

// Areas lists every department in display order.
var Areas = []Area{
	AreaObrasPublicas,
	AreaServiciosPublicos,
	AreaHigieneUrbana,
	AreaTransito,
	AreaEspaciosVerdes,
	AreaMantenimiento,
}

// Valid reports whether the area is a known department.
func (a Area) Valid() bool {
	for _, known := range Areas {
		if a == known {
			return true
		}
	}
	return false
}

// GuestUserID is the sentinel id of the anonymous public identity.
const GuestUserID = "guest"

// User is a municipal staff member or a registered resident.
type User struct {
	ID               string
	Nombre           string
	Apellido         string
	Telefono         string
	Email            string
	PasswordHash     string
	Role             UserRole
	Area             Area
	AccountStatus    AccountStatus
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins nombre and apellido.
func (u *User) FullName() string {
	if u.Apellido == "" {
		return u.Nombre
	}
	if u.Nombre == "" {
		return u.Apellido
	}
	return u.Nombre + " " + u.Apellido
}

// IsGuest reports whether u is the anonymous public identity.
func (u *User) IsGuest() bool {
	return u != nil && u.ID == GuestUserID && u.Email == ""
}

// CanAuthenticate reports whether the account may open a session.
func (u *User) CanAuthenticate() bool {
	return u.AccountStatus == AccountActive && u.EmailConfirmedAt != nil
}

// NewGuest returns the anonymous identity used for public search and comments.
func NewGuest() *User {
	return &User{
		ID:            GuestUserID,
		Nombre:        "Invitado",
		Role:          RoleUsuario,
		AccountStatus: AccountActive,
	}
}
