package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Append(ctx context.Context, comment *domain.Comment, touchedOn time.Time) error {
	claimID, ok := parseClaimID(comment.ClaimID)
	if !ok {
		return ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := touchClaim(ctx, tx, claimID, touchedOn); err != nil {
			return err
		}
		const query = `
            INSERT INTO comments (claim_id, texto, autor_id)
            VALUES ($1,$2,$3)
            RETURNING id::text, created_at`
		return tx.QueryRow(ctx, query, claimID, comment.Texto, comment.AutorID).
			Scan(&comment.ID, &comment.CreatedAt)
	})
}

func (r *commentRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.Comment, error) {
	id, ok := parseClaimID(claimID)
	if !ok {
		return nil, ErrNotFound
	}
	rows, err := r.pool.Query(ctx, `
        SELECT id::text, claim_id::text, texto, autor_id, created_at
        FROM comments WHERE claim_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.ClaimID,
			&comment.Texto,
			&comment.AutorID,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
