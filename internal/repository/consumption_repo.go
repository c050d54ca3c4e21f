package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutritrack/internal/domain"
)

type ConsumptionRepository interface {
	GetMeal(ctx context.Context, barcode string) (domain.Meal, error)
	Create(ctx context.Context, c domain.Consumption) error
	TotalsForDate(ctx context.Context, personID string, date domain.Date) (domain.ConsumptionTotals, error)
}

type PgConsumptionRepository struct {
	pool *pgxpool.Pool
}

func NewPgConsumptionRepository(pool *pgxpool.Pool) *PgConsumptionRepository {
	return &PgConsumptionRepository{pool: pool}
}

func (r *PgConsumptionRepository) GetMeal(ctx context.Context, barcode string) (domain.Meal, error) {
	const query = `
		SELECT barcode, name, calories, protein_grams, fat_grams, carbs_grams
		FROM meals
		WHERE barcode = $1
	`
	var m domain.Meal
	err := r.pool.QueryRow(ctx, query, barcode).Scan(
		&m.Barcode,
		&m.Name,
		&m.Calories,
		&m.ProteinGrams,
		&m.FatGrams,
		&m.CarbsGrams,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Meal{}, err
	}
	return m, err
}

func (r *PgConsumptionRepository) Create(ctx context.Context, c domain.Consumption) error {
	const query = `
		INSERT INTO consumptions (id, person_id, barcode, quantity_grams, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.PersonID,
		c.Barcode,
		c.QuantityGrams,
		c.Date.Time,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert consumption: %w", err)
	}
	return nil
}

// TotalsForDate suma lo consumido en la fecha; los valores del catalogo son por 100 g.
func (r *PgConsumptionRepository) TotalsForDate(ctx context.Context, personID string, date domain.Date) (domain.ConsumptionTotals, error) {
	const query = `
		SELECT
			COALESCE(SUM(c.quantity_grams * m.calories / 100), 0),
			COALESCE(SUM(c.quantity_grams * m.protein_grams / 100), 0),
			COALESCE(SUM(c.quantity_grams * m.fat_grams / 100), 0),
			COALESCE(SUM(c.quantity_grams * m.carbs_grams / 100), 0)
		FROM consumptions c
		JOIN meals m ON c.barcode = m.barcode
		WHERE c.person_id = $1 AND c.date = $2
	`
	var t domain.ConsumptionTotals
	err := r.pool.QueryRow(ctx, query, personID, date.Time).Scan(
		&t.Calories,
		&t.Protein,
		&t.Fat,
		&t.Carbs,
	)
	if err != nil {
		return domain.ConsumptionTotals{}, fmt.Errorf("sum consumption: %w", err)
	}
	return t, nil
}

