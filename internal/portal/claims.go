package portal

import (
	"context"
	"strings"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
)

// CreateClaim registers a claim and opens the listing.
func (c *Controller) CreateClaim(ctx context.Context, form ClaimForm) (*domain.Claim, error) {
	if _, err := c.requireRole(domain.RoleModerador); err != nil {
		return nil, err
	}
	if err := checkForm(form); err != nil {
		return nil, err
	}
	var created *domain.Claim
	err := c.mutate(ctx, "create_claim", func() error {
		var err error
		created, err = c.backend.CreateClaim(ctx, dto.CreateClaimRequest(form))
		return err
	})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.view = ViewListado
	c.mu.Unlock()
	return created, nil
}

// UpdateClaim applies a partial update. An externo may only move the estado
// of a claim assigned to them while it is en_proceso.
func (c *Controller) UpdateClaim(ctx context.Context, id string, patch dto.UpdateClaimRequest) (*domain.Claim, error) {
	user, err := c.requireRole(domain.RoleModerador, domain.RoleExterno)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleExterno {
		claim, ok := c.findClaim(id)
		if !ok || !claim.IsAssignedTo(user.ID) || claim.Estado != domain.StatusEnProceso || !estadoOnly(patch) {
			return nil, ErrNotAllowed
		}
	}
	if err := checkForm(patch); err != nil {
		return nil, err
	}
	var updated *domain.Claim
	err = c.mutate(ctx, "update_claim", func() error {
		var err error
		updated, err = c.backend.UpdateClaim(ctx, id, patch)
		return err
	})
	return updated, err
}

// ChangeStatus is UpdateClaim with only the estado set.
func (c *Controller) ChangeStatus(ctx context.Context, id string, estado domain.ClaimStatus) (*domain.Claim, error) {
	value := string(estado)
	return c.UpdateClaim(ctx, id, dto.UpdateClaimRequest{Estado: &value})
}

// AssignClaim routes a claim to an externo. The area sent is the assignee's
// own area as cached in the user list.
func (c *Controller) AssignClaim(ctx context.Context, claimID, userID string) (*domain.Claim, error) {
	if _, err := c.requireRole(domain.RoleModerador); err != nil {
		return nil, err
	}
	assignee, ok := c.findUser(userID)
	if !ok || assignee.Role != domain.RoleExterno {
		return nil, &ValidationError{Field: "asignadoA", Message: "must be an externo user"}
	}
	var updated *domain.Claim
	err := c.mutate(ctx, "assign_claim", func() error {
		var err error
		updated, err = c.backend.AssignClaim(ctx, claimID, userID, assignee.Area)
		return err
	})
	return updated, err
}

// AddActivity appends a work log entry.
func (c *Controller) AddActivity(ctx context.Context, claimID string, form ActivityForm) (*domain.Activity, error) {
	user, err := c.requireRole(domain.RoleModerador, domain.RoleExterno)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleExterno {
		claim, ok := c.findClaim(claimID)
		if !ok || !claim.IsAssignedTo(user.ID) || claim.Estado != domain.StatusEnProceso {
			return nil, ErrNotAllowed
		}
	}
	form.Descripcion = strings.TrimSpace(form.Descripcion)
	form.Personal = strings.TrimSpace(form.Personal)
	if err := checkForm(form); err != nil {
		return nil, err
	}
	var activity *domain.Activity
	err = c.mutate(ctx, "add_activity", func() error {
		var err error
		activity, err = c.backend.AddActivity(ctx, claimID, form.Descripcion, form.Personal)
		return err
	})
	return activity, err
}

// AddComment comments on a resolved claim. Only usuarios, guests included,
// may comment.
func (c *Controller) AddComment(ctx context.Context, claimID, text string) (*domain.Claim, error) {
	if _, err := c.requireRole(domain.RoleUsuario); err != nil {
		return nil, err
	}
	claim, ok := c.findClaim(claimID)
	if !ok || claim.Estado != domain.StatusResuelto {
		return nil, ErrNotAllowed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "comentario", Message: "is required"}
	}
	var updated *domain.Claim
	err := c.mutate(ctx, "add_comment", func() error {
		var err error
		updated, err = c.backend.AddComment(ctx, claimID, text)
		return err
	})
	return updated, err
}

// DeleteClaim removes a claim with its activities and comments.
func (c *Controller) DeleteClaim(ctx context.Context, id string) error {
	if _, err := c.requireRole(domain.RoleModerador); err != nil {
		return err
	}
	return c.mutate(ctx, "delete_claim", func() error {
		return c.backend.DeleteClaim(ctx, id)
	})
}

func estadoOnly(p dto.UpdateClaimRequest) bool {
	return p.Estado != nil &&
		p.Categoria == nil && p.Descripcion == nil &&
		p.Calle1 == nil && p.Calle2 == nil && p.Calle3 == nil &&
		p.Altura == nil && p.Barrio == nil && p.NivelUrgencia == nil &&
		p.AsignadoA == nil && p.Archivos == nil
}

// SearchBy selects what the search value is matched against.
type SearchBy string

const (
	SearchByTracking SearchBy = "numero"
	SearchByID       SearchBy = "id"
)

// SearchQuery is the public search form. Categoria, when set, filters first.
type SearchQuery struct {
	By        SearchBy
	Value     string
	Categoria domain.ClaimCategory
}

// Search scans the cached claims. A value matches exactly, the tracking
// number ignoring case. With only a category, every claim of it is returned.
// No match yields an empty slice.
func (c *Controller) Search(q SearchQuery) []domain.Claim {
	value := strings.TrimSpace(q.Value)
	if value == "" && q.Categoria == "" {
		return []domain.Claim{}
	}
	out := []domain.Claim{}
	for _, claim := range c.Claims() {
		if q.Categoria != "" && claim.Categoria != q.Categoria {
			continue
		}
		if value != "" && !matches(claim, q.By, value) {
			continue
		}
		out = append(out, claim)
	}
	return out
}

func matches(claim domain.Claim, by SearchBy, value string) bool {
	if by == SearchByID {
		return claim.ID == value
	}
	return strings.EqualFold(claim.NumeroSeguimiento, value)
}

// ListFilter narrows the listing view. Empty fields match everything.
type ListFilter struct {
	Text      string
	Estado    domain.ClaimStatus
	Categoria domain.ClaimCategory
}

// List returns the claims of the listing view. Text matches a substring of
// the tracking number, descripcion or barrio.
func (c *Controller) List(f ListFilter) []domain.Claim {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	out := []domain.Claim{}
	for _, claim := range c.Claims() {
		if f.Estado != "" && claim.Estado != f.Estado {
			continue
		}
		if f.Categoria != "" && claim.Categoria != f.Categoria {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(claim.NumeroSeguimiento), text) &&
			!strings.Contains(strings.ToLower(claim.Descripcion), text) &&
			!strings.Contains(strings.ToLower(claim.Barrio), text) {
			continue
		}
		out = append(out, claim)
	}
	return out
}
