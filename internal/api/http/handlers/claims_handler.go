package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reclamos-service/internal/api/dto"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/service"
)

// ClaimsHandler serves the claim lifecycle routes.
type ClaimsHandler struct {
	claims   *service.ClaimService
	location *time.Location
}

// NewClaimsHandler constructs handler. loc renders activity timestamps.
func NewClaimsHandler(claimService *service.ClaimService, loc *time.Location) *ClaimsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ClaimsHandler{claims: claimService, location: loc}
}

// List handles GET /claims.
func (h *ClaimsHandler) List(c *fiber.Ctx) error {
	claims, err := h.claims.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.ClaimListEnvelope{Claims: dto.NewClaimList(claims, h.location)})
}

// GetByTrackingNumber handles GET /claims/tracking/:code.
func (h *ClaimsHandler) GetByTrackingNumber(c *fiber.Ctx) error {
	claim, err := h.claims.GetByTrackingNumber(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(h.envelope(claim))
}

// Create handles POST /claims.
func (h *ClaimsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateClaimRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	claim, err := h.claims.Create(c.UserContext(), actor(c), service.ClaimCreateInput{
		Categoria:     domain.ClaimCategory(req.Categoria),
		Descripcion:   req.Descripcion,
		Calle1:        req.Calle1,
		Calle2:        req.Calle2,
		Calle3:        req.Calle3,
		Altura:        req.Altura,
		Barrio:        req.Barrio,
		NivelUrgencia: domain.UrgencyLevel(req.NivelUrgencia),
		Archivos:      req.Archivos,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(h.envelope(claim))
}

// Update handles PATCH /claims/:id.
func (h *ClaimsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateClaimRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.ClaimUpdateInput{
		Descripcion: req.Descripcion,
		Calle1:      req.Calle1,
		Calle2:      req.Calle2,
		Calle3:      req.Calle3,
		Altura:      req.Altura,
		Barrio:      req.Barrio,
		AsignadoA:   req.AsignadoA,
		Archivos:    req.Archivos,
	}
	if req.Categoria != nil {
		categoria := domain.ClaimCategory(*req.Categoria)
		input.Categoria = &categoria
	}
	if req.NivelUrgencia != nil {
		urgencia := domain.UrgencyLevel(*req.NivelUrgencia)
		input.NivelUrgencia = &urgencia
	}
	if req.Estado != nil {
		estado := domain.ClaimStatus(*req.Estado)
		input.Estado = &estado
	}
	claim, err := h.claims.Update(c.UserContext(), actor(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(h.envelope(claim))
}

// Assign handles POST /claims/:id/assign.
func (h *ClaimsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignClaimRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	var area *domain.Area
	if req.Area != "" {
		requested := domain.Area(req.Area)
		area = &requested
	}
	claim, err := h.claims.Assign(c.UserContext(), actor(c), c.Params("id"), req.UserID, area)
	if err != nil {
		return err
	}
	return c.JSON(h.envelope(claim))
}

// Delete handles DELETE /claims/:id.
func (h *ClaimsHandler) Delete(c *fiber.Ctx) error {
	if err := h.claims.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Reclamo eliminado"})
}

// AddActivity handles POST /claims/:id/activity.
func (h *ClaimsHandler) AddActivity(c *fiber.Ctx) error {
	var req dto.CreateActivityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	activity, err := h.claims.AddActivity(c.UserContext(), actor(c), c.Params("id"), req.Descripcion, req.Personal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.ActivityEnvelope{Activity: dto.NewActivityResponse(activity, h.location)})
}

// AddComment handles POST /claims/:id/comment. Guests may comment.
func (h *ClaimsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	claim, err := h.claims.AddComment(c.UserContext(), actor(c), c.Params("id"), req.Comentario)
	if err != nil {
		return err
	}
	return c.JSON(h.envelope(claim))
}

func (h *ClaimsHandler) envelope(claim *domain.Claim) dto.ClaimEnvelope {
	return dto.ClaimEnvelope{Claim: dto.NewClaimResponse(claim, h.location)}
}
