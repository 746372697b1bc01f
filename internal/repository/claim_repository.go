package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

type claimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository instantiates repository.
func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepository{pool: pool}
}

const claimSelect = `
        SELECT c.id::text, c.numero_seguimiento, c.categoria, c.descripcion, c.calle1,
               COALESCE(c.calle2, ''), COALESCE(c.calle3, ''), c.altura, c.barrio, c.nivel_urgencia,
               c.estado, c.asignado_a, c.area_asignada,
               COALESCE(NULLIF(TRIM(u.nombre || ' ' || u.apellido), ''), ''),
               c.fecha_creacion, c.fecha_actualizacion, c.archivos
        FROM claims c
        LEFT JOIN users u ON u.id = c.asignado_a`

func (r *claimRepository) NextTrackingSequence(ctx context.Context, year int) (int, error) {
	const query = `
        INSERT INTO claim_counters (year, last_seq) VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET last_seq = claim_counters.last_seq + 1
        RETURNING last_seq`
	var seq int
	if err := r.pool.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *claimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	const query = `
        INSERT INTO claims (numero_seguimiento, categoria, descripcion, calle1, calle2, calle3, altura, barrio,
            nivel_urgencia, estado, asignado_a, area_asignada, fecha_creacion, fecha_actualizacion, archivos)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id::text`
	return r.pool.QueryRow(ctx, query,
		claim.NumeroSeguimiento,
		claim.Categoria,
		claim.Descripcion,
		claim.Calle1,
		nullableString(claim.Calle2),
		nullableString(claim.Calle3),
		claim.Altura,
		claim.Barrio,
		claim.NivelUrgencia,
		claim.Estado,
		claim.AsignadoA,
		areaPtrString(claim.AreaAsignada),
		claim.FechaCreacion,
		claim.FechaActualizacion,
		nonNilStrings(claim.Archivos),
	).Scan(&claim.ID)
}

func (r *claimRepository) Update(ctx context.Context, claim *domain.Claim) error {
	id, ok := parseClaimID(claim.ID)
	if !ok {
		return ErrNotFound
	}
	const query = `
        UPDATE claims SET categoria=$1, descripcion=$2, calle1=$3, calle2=$4, calle3=$5, altura=$6, barrio=$7,
            nivel_urgencia=$8, estado=$9, asignado_a=$10, area_asignada=$11, fecha_actualizacion=$12, archivos=$13
        WHERE id=$14`
	cmd, err := r.pool.Exec(ctx, query,
		claim.Categoria,
		claim.Descripcion,
		claim.Calle1,
		nullableString(claim.Calle2),
		nullableString(claim.Calle3),
		claim.Altura,
		claim.Barrio,
		claim.NivelUrgencia,
		claim.Estado,
		claim.AsignadoA,
		areaPtrString(claim.AreaAsignada),
		claim.FechaActualizacion,
		nonNilStrings(claim.Archivos),
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *claimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	numericID, ok := parseClaimID(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r.fetchSingle(ctx, claimSelect+` WHERE c.id=$1`, numericID)
}

func (r *claimRepository) GetByTrackingNumber(ctx context.Context, code string) (*domain.Claim, error) {
	return r.fetchSingle(ctx, claimSelect+` WHERE c.numero_seguimiento=$1`, domain.NormalizeTrackingNumber(code))
}

func (r *claimRepository) List(ctx context.Context) ([]domain.Claim, error) {
	rows, err := r.pool.Query(ctx, claimSelect+` ORDER BY c.fecha_creacion DESC, c.id DESC`)
	if err != nil {
		return nil, err
	}
	claims, err := scanClaims(rows)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *claimRepository) Delete(ctx context.Context, id string) error {
	numericID, ok := parseClaimID(id)
	if !ok {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM claims WHERE id=$1`, numericID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *claimRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Claim, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	claims, err := scanClaims(rows)
	if err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return nil, ErrNotFound
	}
	if err := r.hydrate(ctx, claims[:1]); err != nil {
		return nil, err
	}
	return &claims[0], nil
}

// hydrate loads activities and comments for every claim in two queries.
func (r *claimRepository) hydrate(ctx context.Context, claims []domain.Claim) error {
	if len(claims) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(claims))
	index := make(map[string]int, len(claims))
	for i := range claims {
		id, _ := parseClaimID(claims[i].ID)
		ids = append(ids, id)
		index[claims[i].ID] = i
		claims[i].Actividades = []domain.Activity{}
		claims[i].Comentarios = []string{}
	}

	activityRows, err := r.pool.Query(ctx, `
        SELECT id, claim_id::text, descripcion, personal, fecha
        FROM activities WHERE claim_id = ANY($1) ORDER BY position ASC`, ids)
	if err != nil {
		return err
	}
	activities, err := scanActivities(activityRows)
	if err != nil {
		return err
	}
	for _, activity := range activities {
		i := index[activity.ClaimID]
		claims[i].Actividades = append(claims[i].Actividades, activity)
	}

	commentRows, err := r.pool.Query(ctx, `
        SELECT claim_id::text, texto
        FROM comments WHERE claim_id = ANY($1) ORDER BY id ASC`, ids)
	if err != nil {
		return err
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var claimID, texto string
		if err := commentRows.Scan(&claimID, &texto); err != nil {
			return err
		}
		i := index[claimID]
		claims[i].Comentarios = append(claims[i].Comentarios, texto)
	}
	return commentRows.Err()
}

func scanClaims(rows pgx.Rows) ([]domain.Claim, error) {
	defer rows.Close()
	var result []domain.Claim
	for rows.Next() {
		var (
			claim domain.Claim
			area  *string
		)
		if err := rows.Scan(
			&claim.ID,
			&claim.NumeroSeguimiento,
			&claim.Categoria,
			&claim.Descripcion,
			&claim.Calle1,
			&claim.Calle2,
			&claim.Calle3,
			&claim.Altura,
			&claim.Barrio,
			&claim.NivelUrgencia,
			&claim.Estado,
			&claim.AsignadoA,
			&area,
			&claim.AsignadoNombre,
			&claim.FechaCreacion,
			&claim.FechaActualizacion,
			&claim.Archivos,
		); err != nil {
			return nil, err
		}
		if area != nil {
			a := domain.Area(*area)
			claim.AreaAsignada = &a
		}
		if claim.Archivos == nil {
			claim.Archivos = []string{}
		}
		result = append(result, claim)
	}
	return result, rows.Err()
}

func parseClaimID(id string) (int64, bool) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

func nullableString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func areaPtrString(area *domain.Area) *string {
	if area == nil {
		return nil
	}
	s := string(*area)
	return &s
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
