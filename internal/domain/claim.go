package domain

import "time"

// ClaimStatus enumerates lifecycle states for claims.
type ClaimStatus string

const (
	StatusPendiente ClaimStatus = "pendiente"
	StatusAsignado  ClaimStatus = "asignado"
	StatusEnProceso ClaimStatus = "en_proceso"
	StatusResuelto  ClaimStatus = "resuelto"
	StatusCerrado   ClaimStatus = "cerrado"
)

// ClaimStatuses lists every status in lifecycle order.
var ClaimStatuses = []ClaimStatus{
	StatusPendiente,
	StatusAsignado,
	StatusEnProceso,
	StatusResuelto,
	StatusCerrado,
}

// Valid reports whether the status is known.
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusPendiente, StatusAsignado, StatusEnProceso, StatusResuelto, StatusCerrado:
		return true
	}
	return false
}

// Label returns the display label.
func (s ClaimStatus) Label() string {
	switch s {
	case StatusPendiente:
		return "Pendiente"
	case StatusAsignado:
		return "Asignado"
	case StatusEnProceso:
		return "En Proceso"
	case StatusResuelto:
		return "Resuelto"
	case StatusCerrado:
		return "Cerrado"
	}
	return string(s)
}

// ClaimCategory classifies the reported issue.
type ClaimCategory string

const (
	CategoryLuminaria    ClaimCategory = "luminaria"
	CategoryBache        ClaimCategory = "bache"
	CategoryMaleza       ClaimCategory = "maleza"
	CategoryBasura       ClaimCategory = "basura"
	CategorySenalizacion ClaimCategory = "señalizacion"
	CategoryOtros        ClaimCategory = "otros"
)

// ClaimCategories lists every category in display order.
var ClaimCategories = []ClaimCategory{
	CategoryLuminaria,
	CategoryBache,
	CategoryMaleza,
	CategoryBasura,
	CategorySenalizacion,
	CategoryOtros,
}

// Valid reports whether the category is known.
func (c ClaimCategory) Valid() bool {
	switch c {
	case CategoryLuminaria, CategoryBache, CategoryMaleza, CategoryBasura, CategorySenalizacion, CategoryOtros:
		return true
	}
	return false
}

// Label returns the display label.
func (c ClaimCategory) Label() string {
	switch c {
	case CategoryLuminaria:
		return "Luminarias"
	case CategoryBache:
		return "Baches"
	case CategoryMaleza:
		return "Maleza"
	case CategoryBasura:
		return "Basura"
	case CategorySenalizacion:
		return "Señalización"
	case CategoryOtros:
		return "Otros"
	}
	return string(c)
}

// UrgencyLevel enumerates how pressing a claim is.
type UrgencyLevel string

const (
	UrgencyBaja    UrgencyLevel = "baja"
	UrgencyMedia   UrgencyLevel = "media"
	UrgencyAlta    UrgencyLevel = "alta"
	UrgencyUrgente UrgencyLevel = "urgente"
)

// Valid reports whether the urgency is known.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyBaja, UrgencyMedia, UrgencyAlta, UrgencyUrgente:
		return true
	}
	return false
}

// Claim is the aggregate for a resident-reported infrastructure issue.
type Claim struct {
	ID                 string
	NumeroSeguimiento  string
	Categoria          ClaimCategory
	Descripcion        string
	Calle1             string
	Calle2             string
	Calle3             string
	Altura             string
	Barrio             string
	NivelUrgencia      UrgencyLevel
	Estado             ClaimStatus
	AsignadoA          *string
	AreaAsignada       *Area
	AsignadoNombre     string
	FechaCreacion      time.Time
	FechaActualizacion time.Time
	Actividades        []Activity
	Archivos           []string
	Comentarios        []string
}

// IsAssignedTo reports whether userID owns the claim.
func (c *Claim) IsAssignedTo(userID string) bool {
	return c.AsignadoA != nil && *c.AsignadoA == userID
}

// Activity is an immutable work log entry on a claim.
type Activity struct {
	ID          string
	ClaimID     string
	Descripcion string
	Personal    string
	Fecha       time.Time
}

// Comment is an end-user remark on a resolved claim.
type Comment struct {
	ID        string
	ClaimID   string
	Texto     string
	AutorID   *string
	CreatedAt time.Time
}
