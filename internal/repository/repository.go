package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines persistence access for user profiles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// ClaimRepository encapsulates claim persistence. Reads return claims with
// their activities, comments and assignee name hydrated.
type ClaimRepository interface {
	NextTrackingSequence(ctx context.Context, year int) (int, error)
	Create(ctx context.Context, claim *domain.Claim) error
	Update(ctx context.Context, claim *domain.Claim) error
	GetByID(ctx context.Context, id string) (*domain.Claim, error)
	GetByTrackingNumber(ctx context.Context, code string) (*domain.Claim, error)
	List(ctx context.Context) ([]domain.Claim, error)
	Delete(ctx context.Context, id string) error
}

// ActivityRepository appends work log entries. Append also stamps the parent
// claim's fechaActualizacion with touchedOn in the same unit of work.
type ActivityRepository interface {
	Append(ctx context.Context, activity *domain.Activity, touchedOn time.Time) error
	ListByClaim(ctx context.Context, claimID string) ([]domain.Activity, error)
}

// CommentRepository appends resident comments, stamping the parent claim.
type CommentRepository interface {
	Append(ctx context.Context, comment *domain.Comment, touchedOn time.Time) error
	ListByClaim(ctx context.Context, claimID string) ([]domain.Comment, error)
}

// Store bundles the repositories of one storage engine.
type Store struct {
	Users      UserRepository
	Claims     ClaimRepository
	Activities ActivityRepository
	Comments   CommentRepository
}

// NewPostgresStore returns pgx-backed repositories sharing pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:      NewUserRepository(pool),
		Claims:     NewClaimRepository(pool),
		Activities: NewActivityRepository(pool),
		Comments:   NewCommentRepository(pool),
	}
}
