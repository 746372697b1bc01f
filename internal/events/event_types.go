package events

import (
	"time"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventClaimCreated       EventType = "claim_created"
	EventClaimUpdated       EventType = "claim_updated"
	EventClaimStatusChanged EventType = "claim_status_changed"
	EventClaimAssigned      EventType = "claim_assigned"
	EventClaimDeleted       EventType = "claim_deleted"
	EventActivityAdded      EventType = "activity_added"
	EventCommentAdded       EventType = "comment_added"
	EventUserRegistered     EventType = "user_registered"
	EventUserStatusChanged  EventType = "user_status_changed"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID string          `json:"user_id"`
	Role   domain.UserRole `json:"role"`
}

// ActorOf builds an Actor from a user; nil means the system.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{UserID: "system"}
	}
	return Actor{UserID: user.ID, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ClaimCreatedPayload payload.
type ClaimCreatedPayload struct {
	NumeroSeguimiento string               `json:"numero_seguimiento"`
	Categoria         domain.ClaimCategory `json:"categoria"`
	NivelUrgencia     domain.UrgencyLevel  `json:"nivel_urgencia"`
	Barrio            string               `json:"barrio"`
}

// ClaimStatusChangedPayload payload.
type ClaimStatusChangedPayload struct {
	NumeroSeguimiento string             `json:"numero_seguimiento"`
	OldStatus         domain.ClaimStatus `json:"old_status"`
	NewStatus         domain.ClaimStatus `json:"new_status"`
}

// ClaimAssignedPayload payload.
type ClaimAssignedPayload struct {
	NumeroSeguimiento string      `json:"numero_seguimiento"`
	AssigneeID        string      `json:"assignee_id"`
	Area              domain.Area `json:"area"`
}

// ActivityAddedPayload payload.
type ActivityAddedPayload struct {
	ActivityID  string `json:"activity_id"`
	Personal    string `json:"personal"`
	Descripcion string `json:"descripcion"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	Preview string `json:"preview"`
	Guest   bool   `json:"guest"`
}

// UserStatusChangedPayload payload.
type UserStatusChangedPayload struct {
	Email     string               `json:"email"`
	OldStatus domain.AccountStatus `json:"old_status"`
	NewStatus domain.AccountStatus `json:"new_status"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string          `json:"email"`
	Role  domain.UserRole `json:"role"`
}
