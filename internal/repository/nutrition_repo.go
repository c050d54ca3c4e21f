package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nutritrack/internal/domain"
)

// NutritionRepository persiste objetivos nutricionales y cambios biometricos.
type NutritionRepository interface {
	Latest(ctx context.Context, personID string) (domain.NutritionTarget, error)
	ApplyBiometrics(ctx context.Context, person domain.Person, weightEntry *domain.WeightEntry, target domain.NutritionTarget) error
}

type PgNutritionRepository struct {
	pool *pgxpool.Pool
}

func NewPgNutritionRepository(pool *pgxpool.Pool) *PgNutritionRepository {
	return &PgNutritionRepository{pool: pool}
}

func (r *PgNutritionRepository) Latest(ctx context.Context, personID string) (domain.NutritionTarget, error) {
	const query = `
		SELECT person_id, date, daily_calories, protein_grams, fat_grams, carbs_grams
		FROM nutritional_requirements
		WHERE person_id = $1
		ORDER BY date DESC
		LIMIT 1
	`
	var (
		t    domain.NutritionTarget
		date time.Time
	)
	err := r.pool.QueryRow(ctx, query, personID).Scan(
		&t.PersonID,
		&date,
		&t.DailyCalories,
		&t.ProteinGrams,
		&t.FatGrams,
		&t.CarbsGrams,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NutritionTarget{}, err
	}
	t.Date = domain.NewDate(date)
	return t, err
}

// ApplyBiometrics actualiza los datos de la persona, registra el peso si
// weightEntry no es nil y guarda el objetivo recalculado, todo en una transaccion.
func (r *PgNutritionRepository) ApplyBiometrics(ctx context.Context, person domain.Person, weightEntry *domain.WeightEntry, target domain.NutritionTarget) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const updatePerson = `
		UPDATE persons
		SET weight_value = $2, height_value = $3, activity_level = $4, objective = $5
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, updatePerson,
		person.ID,
		person.Weight,
		person.Height,
		person.ActivityLevel,
		person.Objective,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if weightEntry != nil {
		const upsertWeight = `
			INSERT INTO weight_history (person_id, date, weight)
			VALUES ($1, $2, $3)
			ON CONFLICT (person_id, date) DO UPDATE SET weight = EXCLUDED.weight
		`
		if _, err := tx.Exec(ctx, upsertWeight, person.ID, weightEntry.Date.Time, weightEntry.Weight); err != nil {
			return fmt.Errorf("record weight: %w", err)
		}
	}

	if err := upsertTarget(ctx, tx, target); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// upsertTarget guarda un objetivo; recalcular el mismo dia sobrescribe la fila.
func upsertTarget(ctx context.Context, tx pgx.Tx, target domain.NutritionTarget) error {
	const query = `
		INSERT INTO nutritional_requirements (person_id, date, daily_calories, protein_grams, fat_grams, carbs_grams)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (person_id, date) DO UPDATE SET
			daily_calories = EXCLUDED.daily_calories,
			protein_grams = EXCLUDED.protein_grams,
			fat_grams = EXCLUDED.fat_grams,
			carbs_grams = EXCLUDED.carbs_grams
	`
	if _, err := tx.Exec(ctx, query,
		target.PersonID,
		target.Date.Time,
		target.DailyCalories,
		target.ProteinGrams,
		target.FatGrams,
		target.CarbsGrams,
	); err != nil {
		return fmt.Errorf("upsert nutrition target: %w", err)
	}
	return nil
}
