package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Append(ctx context.Context, activity *domain.Activity, touchedOn time.Time) error {
	claimID, ok := parseClaimID(activity.ClaimID)
	if !ok {
		return ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := touchClaim(ctx, tx, claimID, touchedOn); err != nil {
			return err
		}
		const query = `
            INSERT INTO activities (id, claim_id, descripcion, personal, fecha)
            VALUES ($1,$2,$3,$4,$5)`
		_, err := tx.Exec(ctx, query,
			activity.ID,
			claimID,
			activity.Descripcion,
			activity.Personal,
			activity.Fecha,
		)
		return err
	})
}

func (r *activityRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.Activity, error) {
	id, ok := parseClaimID(claimID)
	if !ok {
		return nil, ErrNotFound
	}
	rows, err := r.pool.Query(ctx, `
        SELECT id, claim_id::text, descripcion, personal, fecha
        FROM activities WHERE claim_id=$1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	return scanActivities(rows)
}

func scanActivities(rows pgx.Rows) ([]domain.Activity, error) {
	defer rows.Close()
	var result []domain.Activity
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.ClaimID,
			&activity.Descripcion,
			&activity.Personal,
			&activity.Fecha,
		); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}

// touchClaim stamps fecha_actualizacion, locking the parent row for the
// duration of the append.
func touchClaim(ctx context.Context, tx pgx.Tx, claimID int64, touchedOn time.Time) error {
	cmd, err := tx.Exec(ctx, `UPDATE claims SET fecha_actualizacion=$1 WHERE id=$2`, touchedOn, claimID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
