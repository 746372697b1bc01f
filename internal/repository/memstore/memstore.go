// Package memstore is a go-memdb backed implementation of the repository
// interfaces, used for local runs and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/repository"
)

const (
	tableUsers      = "users"
	tableClaims     = "claims"
	tableActivities = "activities"
	tableComments   = "comments"
	tableCounters   = "counters"

	indexID       = "id"
	indexEmail    = "email"
	indexTracking = "tracking"
	indexClaim    = "claim"
)

// activityRow keeps insertion order alongside the activity.
type activityRow struct {
	ID       string
	ClaimID  string
	Position int
	Activity domain.Activity
}

type commentRow struct {
	ID       string
	ClaimID  string
	Position int
	Comment  domain.Comment
}

type counter struct {
	Name  string
	Value int
}

func schema() *memdb.DBSchema {
	id := &memdb.IndexSchema{Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}}
	byClaim := &memdb.IndexSchema{Name: indexClaim, Indexer: &memdb.StringFieldIndex{Field: "ClaimID"}}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: id,
					indexEmail: {
						Name:    indexEmail,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
			tableClaims: {
				Name: tableClaims,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: id,
					indexTracking: {
						Name:    indexTracking,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "NumeroSeguimiento"},
					},
				},
			},
			tableActivities: {
				Name:    tableActivities,
				Indexes: map[string]*memdb.IndexSchema{indexID: id, indexClaim: byClaim},
			},
			tableComments: {
				Name:    tableComments,
				Indexes: map[string]*memdb.IndexSchema{indexID: id, indexClaim: byClaim},
			},
			tableCounters: {
				Name: tableCounters,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
				},
			},
		},
	}
}

// New builds an empty in-memory store.
func New() (*repository.Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("memstore schema: %w", err)
	}
	return &repository.Store{
		Users:      &userRepository{db: db},
		Claims:     &claimRepository{db: db},
		Activities: &activityRepository{db: db},
		Comments:   &commentRepository{db: db},
	}, nil
}

// nextValue increments the named counter inside txn.
func nextValue(txn *memdb.Txn, name string) (int, error) {
	raw, err := txn.First(tableCounters, indexID, name)
	if err != nil {
		return 0, err
	}
	next := 1
	if raw != nil {
		next = raw.(*counter).Value + 1
	}
	if err := txn.Insert(tableCounters, &counter{Name: name, Value: next}); err != nil {
		return 0, err
	}
	return next, nil
}

type userRepository struct {
	db *memdb.MemDB
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableUsers, indexEmail, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return repository.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if err := txn.Insert(tableUsers, copyUser(user)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableUsers, indexID, user.ID)
	if err != nil {
		return err
	}
	if raw == nil {
		return repository.ErrNotFound
	}
	if holder, err := txn.First(tableUsers, indexEmail, user.Email); err != nil {
		return err
	} else if holder != nil && holder.(*domain.User).ID != user.ID {
		return repository.ErrDuplicateEmail
	}
	user.CreatedAt = raw.(*domain.User).CreatedAt
	user.UpdatedAt = time.Now().UTC()
	if err := txn.Insert(tableUsers, copyUser(user)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.first(indexID, id)
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.first(indexEmail, strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) List(_ context.Context) ([]domain.User, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableUsers, indexID)
	if err != nil {
		return nil, err
	}
	users := []domain.User{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		users = append(users, *copyUser(obj.(*domain.User)))
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) first(index, value string) (*domain.User, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableUsers, index, value)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	return copyUser(raw.(*domain.User)), nil
}

type claimRepository struct {
	db *memdb.MemDB
}

func (r *claimRepository) NextTrackingSequence(_ context.Context, year int) (int, error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	seq, err := nextValue(txn, "tracking-"+strconv.Itoa(year))
	if err != nil {
		return 0, err
	}
	txn.Commit()
	return seq, nil
}

func (r *claimRepository) Create(_ context.Context, claim *domain.Claim) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	if existing, err := txn.First(tableClaims, indexTracking, claim.NumeroSeguimiento); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("tracking number %s already in use", claim.NumeroSeguimiento)
	}
	id, err := nextValue(txn, "claims")
	if err != nil {
		return err
	}
	claim.ID = strconv.Itoa(id)
	if err := txn.Insert(tableClaims, copyClaimRow(claim)); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *claimRepository) Update(_ context.Context, claim *domain.Claim) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableClaims, indexID, claim.ID)
	if err != nil {
		return err
	}
	if raw == nil {
		return repository.ErrNotFound
	}
	stored := raw.(*domain.Claim)
	row := copyClaimRow(claim)
	row.NumeroSeguimiento = stored.NumeroSeguimiento
	row.FechaCreacion = stored.FechaCreacion
	if err := txn.Insert(tableClaims, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *claimRepository) GetByID(_ context.Context, id string) (*domain.Claim, error) {
	return r.first(indexID, strings.TrimSpace(id))
}

func (r *claimRepository) GetByTrackingNumber(_ context.Context, code string) (*domain.Claim, error) {
	return r.first(indexTracking, domain.NormalizeTrackingNumber(code))
}

func (r *claimRepository) List(_ context.Context) ([]domain.Claim, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableClaims, indexID)
	if err != nil {
		return nil, err
	}
	claims := []domain.Claim{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		claim, err := hydrate(txn, obj.(*domain.Claim))
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	sort.SliceStable(claims, func(i, j int) bool {
		if !claims[i].FechaCreacion.Equal(claims[j].FechaCreacion) {
			return claims[i].FechaCreacion.After(claims[j].FechaCreacion)
		}
		a, _ := strconv.Atoi(claims[i].ID)
		b, _ := strconv.Atoi(claims[j].ID)
		return a > b
	})
	return claims, nil
}

func (r *claimRepository) Delete(_ context.Context, id string) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableClaims, indexID, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return repository.ErrNotFound
	}
	if err := txn.Delete(tableClaims, raw); err != nil {
		return err
	}
	if _, err := txn.DeleteAll(tableActivities, indexClaim, id); err != nil {
		return err
	}
	if _, err := txn.DeleteAll(tableComments, indexClaim, id); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *claimRepository) first(index, value string) (*domain.Claim, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableClaims, index, value)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	return hydrate(txn, raw.(*domain.Claim))
}

// hydrate attaches activities, comment texts and the assignee name.
func hydrate(txn *memdb.Txn, row *domain.Claim) (*domain.Claim, error) {
	claim := copyClaimRow(row)

	activities, err := activitiesOf(txn, claim.ID)
	if err != nil {
		return nil, err
	}
	claim.Actividades = activities

	comments, err := commentsOf(txn, claim.ID)
	if err != nil {
		return nil, err
	}
	claim.Comentarios = make([]string, 0, len(comments))
	for _, c := range comments {
		claim.Comentarios = append(claim.Comentarios, c.Texto)
	}

	if claim.AsignadoA != nil {
		raw, err := txn.First(tableUsers, indexID, *claim.AsignadoA)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			claim.AsignadoNombre = raw.(*domain.User).FullName()
		} else {
			claim.AsignadoA = nil
		}
	}
	return claim, nil
}

func activitiesOf(txn *memdb.Txn, claimID string) ([]domain.Activity, error) {
	it, err := txn.Get(tableActivities, indexClaim, claimID)
	if err != nil {
		return nil, err
	}
	var rows []*activityRow
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rows = append(rows, obj.(*activityRow))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	activities := make([]domain.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, row.Activity)
	}
	return activities, nil
}

func commentsOf(txn *memdb.Txn, claimID string) ([]domain.Comment, error) {
	it, err := txn.Get(tableComments, indexClaim, claimID)
	if err != nil {
		return nil, err
	}
	var rows []*commentRow
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rows = append(rows, obj.(*commentRow))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	comments := make([]domain.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, copyComment(row.Comment))
	}
	return comments, nil
}

// touchClaim stamps fechaActualizacion on the stored claim inside txn.
func touchClaim(txn *memdb.Txn, claimID string, touchedOn time.Time) error {
	raw, err := txn.First(tableClaims, indexID, claimID)
	if err != nil {
		return err
	}
	if raw == nil {
		return repository.ErrNotFound
	}
	row := copyClaimRow(raw.(*domain.Claim))
	row.FechaActualizacion = touchedOn
	return txn.Insert(tableClaims, row)
}

type activityRepository struct {
	db *memdb.MemDB
}

func (r *activityRepository) Append(_ context.Context, activity *domain.Activity, touchedOn time.Time) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	if err := touchClaim(txn, activity.ClaimID, touchedOn); err != nil {
		return err
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	pos, err := nextValue(txn, "activities")
	if err != nil {
		return err
	}
	row := &activityRow{ID: activity.ID, ClaimID: activity.ClaimID, Position: pos, Activity: *activity}
	if err := txn.Insert(tableActivities, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *activityRepository) ListByClaim(_ context.Context, claimID string) ([]domain.Activity, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()
	return activitiesOf(txn, claimID)
}

type commentRepository struct {
	db *memdb.MemDB
}

func (r *commentRepository) Append(_ context.Context, comment *domain.Comment, touchedOn time.Time) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	if err := touchClaim(txn, comment.ClaimID, touchedOn); err != nil {
		return err
	}
	pos, err := nextValue(txn, "comments")
	if err != nil {
		return err
	}
	comment.ID = strconv.Itoa(pos)
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	row := &commentRow{ID: comment.ID, ClaimID: comment.ClaimID, Position: pos, Comment: copyComment(*comment)}
	if err := txn.Insert(tableComments, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *commentRepository) ListByClaim(_ context.Context, claimID string) ([]domain.Comment, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()
	return commentsOf(txn, claimID)
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	if u.EmailConfirmedAt != nil {
		t := *u.EmailConfirmedAt
		out.EmailConfirmedAt = &t
	}
	return &out
}

// copyClaimRow copies the scalar part of a claim; children are never stored
// on the claim row.
func copyClaimRow(c *domain.Claim) *domain.Claim {
	out := *c
	if c.AsignadoA != nil {
		v := *c.AsignadoA
		out.AsignadoA = &v
	}
	if c.AreaAsignada != nil {
		v := *c.AreaAsignada
		out.AreaAsignada = &v
	}
	out.Archivos = append([]string{}, c.Archivos...)
	out.Actividades = []domain.Activity{}
	out.Comentarios = []string{}
	out.AsignadoNombre = ""
	return &out
}

func copyComment(c domain.Comment) domain.Comment {
	if c.AutorID != nil {
		v := *c.AutorID
		c.AutorID = &v
	}
	return c
}
