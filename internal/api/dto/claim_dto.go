package dto

import (
	"time"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

// CreateClaimRequest payload.
type CreateClaimRequest struct {
	Categoria     string   `json:"categoria" validate:"required,categoria"`
	Descripcion   string   `json:"descripcion" validate:"required"`
	Calle1        string   `json:"calle1" validate:"required"`
	Calle2        string   `json:"calle2"`
	Calle3        string   `json:"calle3"`
	Altura        string   `json:"altura" validate:"required"`
	Barrio        string   `json:"barrio" validate:"required"`
	NivelUrgencia string   `json:"nivelUrgencia" validate:"required,urgencia"`
	Archivos      []string `json:"archivos"`
}

// UpdateClaimRequest is a partial update. Unknown keys such as actividades,
// comentarios, numeroSeguimiento or fechaCreacion are dropped on decode.
type UpdateClaimRequest struct {
	Categoria     *string  `json:"categoria,omitempty" validate:"omitempty,categoria"`
	Descripcion   *string  `json:"descripcion,omitempty"`
	Calle1        *string  `json:"calle1,omitempty"`
	Calle2        *string  `json:"calle2,omitempty"`
	Calle3        *string  `json:"calle3,omitempty"`
	Altura        *string  `json:"altura,omitempty"`
	Barrio        *string  `json:"barrio,omitempty"`
	NivelUrgencia *string  `json:"nivelUrgencia,omitempty" validate:"omitempty,urgencia"`
	Estado        *string  `json:"estado,omitempty" validate:"omitempty,estado"`
	AsignadoA     *string  `json:"asignadoA,omitempty"`
	Archivos      []string `json:"archivos,omitempty"`
}

// AssignClaimRequest routes a claim to an externo. Area is accepted for
// compatibility and ignored; the assignee's own area wins.
type AssignClaimRequest struct {
	UserID string `json:"asignadoA" validate:"required"`
	Area   string `json:"area,omitempty"`
}

// CreateActivityRequest appends a work log entry. Fecha is accepted and
// ignored; the server stamps the entry.
type CreateActivityRequest struct {
	Descripcion string `json:"descripcion" validate:"required"`
	Personal    string `json:"personal" validate:"required"`
	Fecha       string `json:"fecha,omitempty"`
}

// CreateCommentRequest adds a remark to a resolved claim.
type CreateCommentRequest struct {
	Comentario string `json:"comentario" validate:"required"`
}

// ActivityResponse is one work log entry. Fecha is local time in the
// municipal zone.
type ActivityResponse struct {
	ID          string `json:"id"`
	Descripcion string `json:"descripcion"`
	Personal    string `json:"personal"`
	Fecha       string `json:"fecha"`
}

// NewActivityResponse maps a domain activity.
func NewActivityResponse(activity *domain.Activity, loc *time.Location) *ActivityResponse {
	if activity == nil {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityResponse{
		ID:          activity.ID,
		Descripcion: activity.Descripcion,
		Personal:    activity.Personal,
		Fecha:       activity.Fecha.In(loc).Format(domain.ActivityTimeLayout),
	}
}

// ToDomain converts the wire activity back, reading fecha in loc.
func (a ActivityResponse) ToDomain(claimID string, loc *time.Location) domain.Activity {
	if loc == nil {
		loc = time.UTC
	}
	fecha, _ := time.ParseInLocation(domain.ActivityTimeLayout, a.Fecha, loc)
	return domain.Activity{
		ID:          a.ID,
		ClaimID:     claimID,
		Descripcion: a.Descripcion,
		Personal:    a.Personal,
		Fecha:       fecha,
	}
}

// ClaimResponse is the full claim with nested activities and comments.
type ClaimResponse struct {
	ID                 string             `json:"id"`
	NumeroSeguimiento  string             `json:"numeroSeguimiento"`
	Categoria          string             `json:"categoria"`
	Descripcion        string             `json:"descripcion"`
	Calle1             string             `json:"calle1"`
	Calle2             string             `json:"calle2"`
	Calle3             string             `json:"calle3"`
	Altura             string             `json:"altura"`
	Barrio             string             `json:"barrio"`
	NivelUrgencia      string             `json:"nivelUrgencia"`
	Estado             string             `json:"estado"`
	AsignadoA          *string            `json:"asignadoA"`
	AreaAsignada       *string            `json:"areaAsignada"`
	AsignadoNombre     string             `json:"asignadoNombre,omitempty"`
	FechaCreacion      string             `json:"fechaCreacion"`
	FechaActualizacion string             `json:"fechaActualizacion"`
	Actividades        []ActivityResponse `json:"actividades"`
	Archivos           []string           `json:"archivos"`
	Comentarios        []string           `json:"comentarios"`
}

// NewClaimResponse maps a domain claim, rendering activity stamps in loc.
func NewClaimResponse(claim *domain.Claim, loc *time.Location) *ClaimResponse {
	if claim == nil {
		return nil
	}
	out := &ClaimResponse{
		ID:                 claim.ID,
		NumeroSeguimiento:  claim.NumeroSeguimiento,
		Categoria:          string(claim.Categoria),
		Descripcion:        claim.Descripcion,
		Calle1:             claim.Calle1,
		Calle2:             claim.Calle2,
		Calle3:             claim.Calle3,
		Altura:             claim.Altura,
		Barrio:             claim.Barrio,
		NivelUrgencia:      string(claim.NivelUrgencia),
		Estado:             string(claim.Estado),
		AsignadoA:          claim.AsignadoA,
		AsignadoNombre:     claim.AsignadoNombre,
		FechaCreacion:      domain.FormatDate(claim.FechaCreacion),
		FechaActualizacion: domain.FormatDate(claim.FechaActualizacion),
		Actividades:        make([]ActivityResponse, 0, len(claim.Actividades)),
		Archivos:           append([]string{}, claim.Archivos...),
		Comentarios:        append([]string{}, claim.Comentarios...),
	}
	if claim.AreaAsignada != nil {
		area := string(*claim.AreaAsignada)
		out.AreaAsignada = &area
	}
	for i := range claim.Actividades {
		out.Actividades = append(out.Actividades, *NewActivityResponse(&claim.Actividades[i], loc))
	}
	return out
}

// NewClaimList maps a slice of claims, never returning nil.
func NewClaimList(claims []domain.Claim, loc *time.Location) []ClaimResponse {
	out := make([]ClaimResponse, 0, len(claims))
	for i := range claims {
		out = append(out, *NewClaimResponse(&claims[i], loc))
	}
	return out
}

// ToDomain converts the wire claim back. Unparseable dates become zero.
func (c *ClaimResponse) ToDomain(loc *time.Location) *domain.Claim {
	if c == nil {
		return nil
	}
	created, _ := domain.ParseDate(c.FechaCreacion)
	updated, _ := domain.ParseDate(c.FechaActualizacion)
	claim := &domain.Claim{
		ID:                 c.ID,
		NumeroSeguimiento:  c.NumeroSeguimiento,
		Categoria:          domain.ClaimCategory(c.Categoria),
		Descripcion:        c.Descripcion,
		Calle1:             c.Calle1,
		Calle2:             c.Calle2,
		Calle3:             c.Calle3,
		Altura:             c.Altura,
		Barrio:             c.Barrio,
		NivelUrgencia:      domain.UrgencyLevel(c.NivelUrgencia),
		Estado:             domain.ClaimStatus(c.Estado),
		AsignadoA:          c.AsignadoA,
		AsignadoNombre:     c.AsignadoNombre,
		FechaCreacion:      created,
		FechaActualizacion: updated,
		Actividades:        make([]domain.Activity, 0, len(c.Actividades)),
		Archivos:           append([]string{}, c.Archivos...),
		Comentarios:        append([]string{}, c.Comentarios...),
	}
	if c.AreaAsignada != nil {
		area := domain.Area(*c.AreaAsignada)
		claim.AreaAsignada = &area
	}
	for _, activity := range c.Actividades {
		claim.Actividades = append(claim.Actividades, activity.ToDomain(c.ID, loc))
	}
	return claim
}

// ClaimEnvelope wraps a single claim.
type ClaimEnvelope struct {
	Claim *ClaimResponse `json:"claim"`
}

// ClaimListEnvelope wraps the claim list.
type ClaimListEnvelope struct {
	Claims []ClaimResponse `json:"claims"`
}

// ActivityEnvelope wraps a created activity.
type ActivityEnvelope struct {
	Activity *ActivityResponse `json:"activity"`
}
