package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"nutritrack/internal/domain"
)

type WeightRepository interface {
	History(ctx context.Context, personID string, limit int) ([]domain.WeightEntry, error)
}

type PgWeightRepository struct {
	pool *pgxpool.Pool
}

func NewPgWeightRepository(pool *pgxpool.Pool) *PgWeightRepository {
	return &PgWeightRepository{pool: pool}
}

// History devuelve los ultimos `limit` registros, del mas reciente al mas antiguo.
func (r *PgWeightRepository) History(ctx context.Context, personID string, limit int) ([]domain.WeightEntry, error) {
	const query = `
		SELECT date, weight
		FROM weight_history
		WHERE person_id = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, personID, limit)
	if err != nil {
		return nil, fmt.Errorf("query weight history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.WeightEntry, 0, limit)
	for rows.Next() {
		var (
			e    domain.WeightEntry
			date time.Time
		)
		if err := rows.Scan(&date, &e.Weight); err != nil {
			return nil, fmt.Errorf("scan weight entry: %w", err)
		}
		e.Date = domain.NewDate(date)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
