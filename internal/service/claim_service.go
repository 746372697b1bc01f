package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/events"
	"github.com/spec-kit/reclamos-service/internal/repository"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

// ClaimService coordinates the claim lifecycle.
type ClaimService struct {
	claims     repository.ClaimRepository
	users      repository.UserRepository
	activities repository.ActivityRepository
	comments   repository.CommentRepository
	policy     domain.TransitionPolicy
	location   *time.Location
	prefix     string
	clock      domain.Clock
	logger     *zap.Logger
	publisher
}

// ClaimDependencies bundles collaborators for the claim service.
type ClaimDependencies struct {
	ClaimRepo      repository.ClaimRepository
	UserRepo       repository.UserRepository
	ActivityRepo   repository.ActivityRepository
	CommentRepo    repository.CommentRepository
	Dispatcher     events.Dispatcher
	Policy         domain.TransitionPolicy
	Location       *time.Location
	TrackingPrefix string
	Clock          domain.Clock
	Logger         *zap.Logger
}

// NewClaimService constructs the service.
func NewClaimService(deps ClaimDependencies) *ClaimService {
	policy := deps.Policy
	if policy == nil {
		policy = domain.PermissivePolicy()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	prefix := strings.ToUpper(strings.TrimSpace(deps.TrackingPrefix))
	if prefix == "" {
		prefix = domain.DefaultTrackingPrefix
	}
	logger := nopLogger(deps.Logger)
	return &ClaimService{
		claims:     deps.ClaimRepo,
		users:      deps.UserRepo,
		activities: deps.ActivityRepo,
		comments:   deps.CommentRepo,
		policy:     policy,
		location:   loc,
		prefix:     prefix,
		clock:      deps.Clock,
		logger:     logger,
		publisher:  publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// ClaimCreateInput describes claim creation payload.
type ClaimCreateInput struct {
	Categoria     domain.ClaimCategory
	Descripcion   string
	Calle1        string
	Calle2        string
	Calle3        string
	Altura        string
	Barrio        string
	NivelUrgencia domain.UrgencyLevel
	Archivos      []string
}

// ClaimUpdateInput is a partial update; nil fields are left untouched. An
// empty AsignadoA clears the assignment.
type ClaimUpdateInput struct {
	Categoria     *domain.ClaimCategory
	Descripcion   *string
	Calle1        *string
	Calle2        *string
	Calle3        *string
	Altura        *string
	Barrio        *string
	NivelUrgencia *domain.UrgencyLevel
	Estado        *domain.ClaimStatus
	AsignadoA     *string
	Archivos      []string
}

// onlyEstado reports whether the update touches nothing but estado.
func (in ClaimUpdateInput) onlyEstado() bool {
	return in.Categoria == nil && in.Descripcion == nil && in.Calle1 == nil && in.Calle2 == nil &&
		in.Calle3 == nil && in.Altura == nil && in.Barrio == nil && in.NivelUrgencia == nil &&
		in.AsignadoA == nil && in.Archivos == nil
}

func (s *ClaimService) today() time.Time {
	return domain.DateOf(s.clock.Now(), s.location)
}

// Create registers a new claim with the next tracking number of the year.
func (s *ClaimService) Create(ctx context.Context, actor *domain.User, input ClaimCreateInput) (*domain.Claim, error) {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return nil, err
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	today := s.today()
	seq, err := s.claims.NextTrackingSequence(ctx, today.Year())
	if err != nil {
		return nil, apperrors.MapError(fmt.Errorf("next tracking sequence: %w", err))
	}

	claim := &domain.Claim{
		NumeroSeguimiento:  domain.FormatTrackingNumber(s.prefix, today.Year(), seq),
		Categoria:          input.Categoria,
		Descripcion:        strings.TrimSpace(input.Descripcion),
		Calle1:             strings.TrimSpace(input.Calle1),
		Calle2:             strings.TrimSpace(input.Calle2),
		Calle3:             strings.TrimSpace(input.Calle3),
		Altura:             strings.TrimSpace(input.Altura),
		Barrio:             strings.TrimSpace(input.Barrio),
		NivelUrgencia:      input.NivelUrgencia,
		Estado:             domain.StatusPendiente,
		FechaCreacion:      today,
		FechaActualizacion: today,
		Actividades:        []domain.Activity{},
		Archivos:           cleanFilenames(input.Archivos),
		Comentarios:        []string{},
	}
	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventClaimCreated,
		SubjectID: claim.ID,
		Actor:     events.ActorOf(actor),
		Payload: events.ClaimCreatedPayload{
			NumeroSeguimiento: claim.NumeroSeguimiento,
			Categoria:         claim.Categoria,
			NivelUrgencia:     claim.NivelUrgencia,
			Barrio:            claim.Barrio,
		},
	})
	return claim, nil
}

// List returns every claim, newest first, with children hydrated.
func (s *ClaimService) List(ctx context.Context) ([]domain.Claim, error) {
	claims, err := s.claims.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return claims, nil
}

// Get returns one claim by internal id.
func (s *ClaimService) Get(ctx context.Context, id string) (*domain.Claim, error) {
	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": id})
	}
	return claim, nil
}

// GetByTrackingNumber looks a claim up by its public code, case-insensitively.
func (s *ClaimService) GetByTrackingNumber(ctx context.Context, code string) (*domain.Claim, error) {
	normalized := domain.NormalizeTrackingNumber(code)
	if normalized == "" {
		return nil, apperrors.NewValidationError("tracking number is required", nil)
	}
	claim, err := s.claims.GetByTrackingNumber(ctx, normalized)
	if err != nil {
		return nil, lookupError(err, "claim", map[string]any{"numeroSeguimiento": normalized})
	}
	return claim, nil
}

// Update applies a partial update. Moderators may change any editable field;
// the assigned externo may only change estado while the claim is en_proceso.
func (s *ClaimService) Update(ctx context.Context, actor *domain.User, id string, input ClaimUpdateInput) (*domain.Claim, error) {
	if err := requireRole(actor, domain.RoleModerador, domain.RoleExterno); err != nil {
		return nil, err
	}
	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": id})
	}

	if actor.Role == domain.RoleExterno {
		if !claim.IsAssignedTo(actor.ID) {
			return nil, apperrors.NewForbidden("claim is not assigned to you")
		}
		if claim.Estado != domain.StatusEnProceso {
			return nil, apperrors.NewForbidden("claim can only be updated while en_proceso")
		}
		if !input.onlyEstado() {
			return nil, apperrors.NewForbidden("only estado may be changed")
		}
	}

	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	oldStatus := claim.Estado
	oldAssignee := claim.AsignadoA
	if input.Estado != nil {
		if !s.policy.Allowed(claim.Estado, *input.Estado) {
			return nil, apperrors.NewConflict(
				fmt.Sprintf("estado cannot move from %s to %s", claim.Estado, *input.Estado),
				map[string]any{"estado": claim.Estado, "policy": s.policy.Name()},
			)
		}
		claim.Estado = *input.Estado
	}
	applyFields(claim, input)

	if input.AsignadoA != nil {
		if err := s.setAssignee(ctx, claim, strings.TrimSpace(*input.AsignadoA)); err != nil {
			return nil, err
		}
	}

	claim.FechaActualizacion = s.today()
	if err := s.claims.Update(ctx, claim); err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": id})
	}

	switch {
	case claim.Estado != oldStatus:
		s.publishStatusChange(ctx, actor, claim, oldStatus)
	case !sameAssignee(oldAssignee, claim.AsignadoA) && claim.AsignadoA != nil:
		s.publishAssigned(ctx, actor, claim)
	default:
		s.publish(ctx, events.Event{Type: events.EventClaimUpdated, SubjectID: claim.ID, Actor: events.ActorOf(actor)})
	}
	return s.reload(ctx, claim)
}

// Assign routes a claim to an externo user. The area is always taken from
// the assignee's profile; requestedArea is accepted for compatibility and
// ignored.
func (s *ClaimService) Assign(ctx context.Context, actor *domain.User, id, userID string, requestedArea *domain.Area) (*domain.Claim, error) {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return nil, err
	}
	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": id})
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewValidationError("asignadoA is required", map[string]any{"asignadoA": "is required"})
	}
	if !s.policy.Allowed(claim.Estado, domain.StatusAsignado) {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("estado cannot move from %s to %s", claim.Estado, domain.StatusAsignado),
			map[string]any{"estado": claim.Estado, "policy": s.policy.Name()},
		)
	}
	if err := s.setAssignee(ctx, claim, userID); err != nil {
		return nil, err
	}
	if requestedArea != nil && claim.AreaAsignada != nil && *requestedArea != *claim.AreaAsignada {
		s.logger.Debug("ignoring requested area", zap.String("requested", string(*requestedArea)), zap.String("derived", string(*claim.AreaAsignada)))
	}

	oldStatus := claim.Estado
	claim.Estado = domain.StatusAsignado
	claim.FechaActualizacion = s.today()
	if err := s.claims.Update(ctx, claim); err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": id})
	}

	s.publishAssigned(ctx, actor, claim)
	if oldStatus != claim.Estado {
		s.publishStatusChange(ctx, actor, claim, oldStatus)
	}
	return s.reload(ctx, claim)
}

// AddActivity appends a work log entry stamped with the current local time.
func (s *ClaimService) AddActivity(ctx context.Context, actor *domain.User, claimID, descripcion, personal string) (*domain.Activity, error) {
	if err := requireRole(actor, domain.RoleModerador, domain.RoleExterno); err != nil {
		return nil, err
	}
	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": claimID})
	}
	if actor.Role == domain.RoleExterno {
		if !claim.IsAssignedTo(actor.ID) {
			return nil, apperrors.NewForbidden("claim is not assigned to you")
		}
		if claim.Estado != domain.StatusEnProceso {
			return nil, apperrors.NewForbidden("activities can only be added while en_proceso")
		}
	}

	descripcion = strings.TrimSpace(descripcion)
	personal = strings.TrimSpace(personal)
	details := map[string]any{}
	if descripcion == "" {
		details["descripcion"] = "is required"
	}
	if personal == "" {
		details["personal"] = "is required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid activity", details)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.clock.Now()
	activity := &domain.Activity{
		ID:          id.String(),
		ClaimID:     claim.ID,
		Descripcion: descripcion,
		Personal:    personal,
		Fecha:       now.In(s.location).Truncate(time.Minute),
	}
	if err := s.activities.Append(ctx, activity, domain.DateOf(now, s.location)); err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": claimID})
	}

	s.publish(ctx, events.Event{
		Type:      events.EventActivityAdded,
		SubjectID: claim.ID,
		Actor:     events.ActorOf(actor),
		Payload: events.ActivityAddedPayload{
			ActivityID:  activity.ID,
			Personal:    activity.Personal,
			Descripcion: stringPreview(activity.Descripcion, 120),
		},
	})
	return activity, nil
}

// AddComment lets residents (guests included) comment on resolved claims.
func (s *ClaimService) AddComment(ctx context.Context, actor *domain.User, claimID, texto string) (*domain.Claim, error) {
	if actor == nil {
		actor = domain.NewGuest()
	}
	if actor.Role != domain.RoleUsuario {
		return nil, apperrors.NewForbidden("only residents can comment")
	}
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return nil, apperrors.NewValidationError("comentario is required", map[string]any{"comentario": "is required"})
	}
	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": claimID})
	}
	if claim.Estado != domain.StatusResuelto {
		return nil, apperrors.NewConflict("comments are only accepted on resolved claims", map[string]any{"estado": claim.Estado})
	}

	comment := &domain.Comment{ClaimID: claim.ID, Texto: texto, CreatedAt: s.clock.Now().UTC()}
	if !actor.IsGuest() {
		author := actor.ID
		comment.AutorID = &author
	}
	if err := s.comments.Append(ctx, comment, s.today()); err != nil {
		return nil, lookupError(err, "claim", map[string]any{"claim_id": claimID})
	}

	s.publish(ctx, events.Event{
		Type:      events.EventCommentAdded,
		SubjectID: claim.ID,
		Actor:     events.ActorOf(actor),
		Payload:   events.CommentAddedPayload{Preview: stringPreview(texto, 120), Guest: actor.IsGuest()},
	})
	return s.reload(ctx, claim)
}

// Delete removes a claim together with its activities and comments.
func (s *ClaimService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireRole(actor, domain.RoleModerador); err != nil {
		return err
	}
	if err := s.claims.Delete(ctx, id); err != nil {
		return lookupError(err, "claim", map[string]any{"claim_id": id})
	}
	s.publish(ctx, events.Event{Type: events.EventClaimDeleted, SubjectID: id, Actor: events.ActorOf(actor)})
	return nil
}

// setAssignee points claim at userID, deriving the area from the profile.
// An empty userID clears the assignment.
func (s *ClaimService) setAssignee(ctx context.Context, claim *domain.Claim, userID string) error {
	if userID == "" {
		claim.AsignadoA = nil
		claim.AreaAsignada = nil
		claim.AsignadoNombre = ""
		return nil
	}
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return lookupError(err, "user", map[string]any{"user_id": userID})
	}
	if target.Role != domain.RoleExterno {
		return apperrors.NewValidationError("claims can only be assigned to externo users", map[string]any{"asignadoA": userID})
	}
	area := target.Area
	claim.AsignadoA = &target.ID
	claim.AreaAsignada = &area
	claim.AsignadoNombre = target.FullName()
	return nil
}

// reload returns the stored claim with children, falling back to the
// in-memory copy when the read fails after a successful write.
func (s *ClaimService) reload(ctx context.Context, claim *domain.Claim) (*domain.Claim, error) {
	fresh, err := s.claims.GetByID(ctx, claim.ID)
	if err != nil {
		s.logger.Warn("reload claim after write", zap.String("claim_id", claim.ID), zap.Error(err))
		return claim, nil
	}
	return fresh, nil
}

func (s *ClaimService) publishStatusChange(ctx context.Context, actor *domain.User, claim *domain.Claim, old domain.ClaimStatus) {
	s.publish(ctx, events.Event{
		Type:      events.EventClaimStatusChanged,
		SubjectID: claim.ID,
		Actor:     events.ActorOf(actor),
		Payload: events.ClaimStatusChangedPayload{
			NumeroSeguimiento: claim.NumeroSeguimiento,
			OldStatus:         old,
			NewStatus:         claim.Estado,
		},
	})
}

func (s *ClaimService) publishAssigned(ctx context.Context, actor *domain.User, claim *domain.Claim) {
	payload := events.ClaimAssignedPayload{NumeroSeguimiento: claim.NumeroSeguimiento}
	if claim.AsignadoA != nil {
		payload.AssigneeID = *claim.AsignadoA
	}
	if claim.AreaAsignada != nil {
		payload.Area = *claim.AreaAsignada
	}
	s.publish(ctx, events.Event{
		Type:      events.EventClaimAssigned,
		SubjectID: claim.ID,
		Actor:     events.ActorOf(actor),
		Payload:   payload,
	})
}

func validateCreate(input ClaimCreateInput) error {
	details := map[string]any{}
	if !input.Categoria.Valid() {
		details["categoria"] = "is not a valid category"
	}
	if !input.NivelUrgencia.Valid() {
		details["nivelUrgencia"] = "is not a valid urgency"
	}
	for field, value := range map[string]string{
		"descripcion": input.Descripcion,
		"calle1":      input.Calle1,
		"altura":      input.Altura,
		"barrio":      input.Barrio,
	} {
		if strings.TrimSpace(value) == "" {
			details[field] = "is required"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid claim", details)
	}
	return nil
}

func validateUpdate(input ClaimUpdateInput) error {
	details := map[string]any{}
	if input.Categoria != nil && !input.Categoria.Valid() {
		details["categoria"] = "is not a valid category"
	}
	if input.NivelUrgencia != nil && !input.NivelUrgencia.Valid() {
		details["nivelUrgencia"] = "is not a valid urgency"
	}
	if input.Estado != nil && !input.Estado.Valid() {
		details["estado"] = "is not a valid status"
	}
	for field, value := range map[string]*string{
		"descripcion": input.Descripcion,
		"calle1":      input.Calle1,
		"altura":      input.Altura,
		"barrio":      input.Barrio,
	} {
		if value != nil && strings.TrimSpace(*value) == "" {
			details[field] = "must not be empty"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid claim update", details)
	}
	return nil
}

func applyFields(claim *domain.Claim, input ClaimUpdateInput) {
	if input.Categoria != nil {
		claim.Categoria = *input.Categoria
	}
	if input.NivelUrgencia != nil {
		claim.NivelUrgencia = *input.NivelUrgencia
	}
	setTrimmed(&claim.Descripcion, input.Descripcion)
	setTrimmed(&claim.Calle1, input.Calle1)
	setTrimmed(&claim.Calle2, input.Calle2)
	setTrimmed(&claim.Calle3, input.Calle3)
	setTrimmed(&claim.Altura, input.Altura)
	setTrimmed(&claim.Barrio, input.Barrio)
	if input.Archivos != nil {
		claim.Archivos = cleanFilenames(input.Archivos)
	}
}

func setTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func cleanFilenames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
