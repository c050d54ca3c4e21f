package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nutritrack/internal/domain"
	"nutritrack/internal/nutrition"
	"nutritrack/internal/repository"
)

const weightHistoryLimit = 7

// ProfileService expone los datos del usuario autenticado y recalcula sus objetivos.
type ProfileService struct {
	logger       *zap.Logger
	accounts     repository.AccountRepository
	targets      repository.NutritionRepository
	weights      repository.WeightRepository
	consumptions repository.ConsumptionRepository
	now          func() time.Time
}

func NewProfileService(
	logger *zap.Logger,
	accounts repository.AccountRepository,
	targets repository.NutritionRepository,
	weights repository.WeightRepository,
	consumptions repository.ConsumptionRepository,
) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		logger:       logger,
		accounts:     accounts,
		targets:      targets,
		weights:      weights,
		consumptions: consumptions,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RequirementsUpdate trae los valores a sobrescribir; nil conserva el guardado.
type RequirementsUpdate struct {
	Weight        *float64
	Height        *float64
	ActivityLevel *string
	Objective     *string
}

func (s *ProfileService) GetProfile(ctx context.Context, personID string) (domain.UserProfile, error) {
	profile, err := s.accounts.GetProfileByID(ctx, personID)
	if err != nil {
		return domain.UserProfile{}, notFound(err)
	}
	return profile, nil
}

func (s *ProfileService) GetNutritionRequirements(ctx context.Context, personID string) (domain.NutritionTarget, error) {
	target, err := s.targets.Latest(ctx, personID)
	if err != nil {
		return domain.NutritionTarget{}, notFound(err)
	}
	return target, nil
}

// UpdateNutritionRequirements recalcula el objetivo del dia con los valores
// nuevos y guarda los cambios de la persona. Si cambia el peso se registra.
func (s *ProfileService) UpdateNutritionRequirements(ctx context.Context, personID string, upd RequirementsUpdate) (domain.NutritionTarget, error) {
	var fc fieldCollector
	fc.require(upd.Weight == nil || *upd.Weight > 0, "weight")
	fc.require(upd.Height == nil || *upd.Height > 0, "height")
	fc.require(upd.ActivityLevel == nil || strings.TrimSpace(*upd.ActivityLevel) != "", "activity_level")
	fc.require(upd.Objective == nil || strings.TrimSpace(*upd.Objective) != "", "objective")
	if err := fc.err(); err != nil {
		return domain.NutritionTarget{}, err
	}

	profile, err := s.accounts.GetProfileByID(ctx, personID)
	if err != nil {
		return domain.NutritionTarget{}, notFound(err)
	}

	person := personFromProfile(profile)
	today := domain.NewDate(s.now())
	var entry *domain.WeightEntry
	if upd.Weight != nil && *upd.Weight != person.Weight {
		person.Weight = *upd.Weight
		entry = &domain.WeightEntry{Date: today, Weight: person.Weight}
	}
	if upd.Height != nil {
		person.Height = *upd.Height
	}
	if upd.ActivityLevel != nil {
		person.ActivityLevel = *upd.ActivityLevel
	}
	if upd.Objective != nil {
		person.Objective = *upd.Objective
	}

	return s.recompute(ctx, person, entry, today)
}

// RecordWeight registra el peso del dia indicado (hoy si date es vacio) y
// recalcula el objetivo con ese peso.
func (s *ProfileService) RecordWeight(ctx context.Context, personID string, weight float64, date string) (domain.NutritionTarget, error) {
	day := domain.NewDate(s.now())
	var fc fieldCollector
	fc.require(weight > 0, "weight")
	if strings.TrimSpace(date) != "" {
		parsed, err := domain.ParseDate(date)
		fc.require(err == nil, "date")
		day = parsed
	}
	if err := fc.err(); err != nil {
		return domain.NutritionTarget{}, err
	}

	profile, err := s.accounts.GetProfileByID(ctx, personID)
	if err != nil {
		return domain.NutritionTarget{}, notFound(err)
	}
	person := personFromProfile(profile)
	person.Weight = weight

	return s.recompute(ctx, person, &domain.WeightEntry{Date: day, Weight: weight}, domain.NewDate(s.now()))
}

func (s *ProfileService) recompute(ctx context.Context, person domain.Person, entry *domain.WeightEntry, day domain.Date) (domain.NutritionTarget, error) {
	level, _ := nutrition.ParseActivityLevel(person.ActivityLevel)
	objective, _ := nutrition.ParseObjective(person.Objective)
	person.ActivityLevel = string(level)
	person.Objective = string(objective)

	macros := nutrition.Compute(nutrition.Biometrics{
		WeightKg:      person.Weight,
		HeightCm:      person.Height,
		Gender:        person.Gender,
		Birthdate:     person.Birthdate.Time,
		ActivityLevel: level,
		Objective:     objective,
	}, day.Time)
	target := targetFromMacros(person.ID, day, macros)

	if err := s.targets.ApplyBiometrics(ctx, person, entry, target); err != nil {
		return domain.NutritionTarget{}, notFound(err)
	}
	s.logger.Info("nutrition requirements recomputed",
		zap.String("person_id", person.ID),
		zap.Float64("daily_calories", target.DailyCalories),
	)
	return target, nil
}

func (s *ProfileService) GetWeightHistory(ctx context.Context, personID string) ([]domain.WeightEntry, error) {
	return s.weights.History(ctx, personID, weightHistoryLimit)
}

func (s *ProfileService) GetTodayConsumption(ctx context.Context, personID string) (domain.ConsumptionTotals, error) {
	return s.consumptions.TotalsForDate(ctx, personID, domain.NewDate(s.now()))
}

// LogConsumption registra gramos consumidos de un alimento del catalogo.
func (s *ProfileService) LogConsumption(ctx context.Context, personID, barcode string, quantityGrams float64, date string) (domain.Consumption, error) {
	barcode = strings.TrimSpace(barcode)
	day := domain.NewDate(s.now())

	var fc fieldCollector
	fc.require(barcode != "", "barcode")
	fc.require(quantityGrams > 0, "quantity_grams")
	if strings.TrimSpace(date) != "" {
		parsed, err := domain.ParseDate(date)
		fc.require(err == nil, "date")
		day = parsed
	}
	if err := fc.err(); err != nil {
		return domain.Consumption{}, err
	}

	if _, err := s.consumptions.GetMeal(ctx, barcode); err != nil {
		return domain.Consumption{}, notFound(err)
	}

	c := domain.Consumption{
		ID:            uuid.NewString(),
		PersonID:      personID,
		Barcode:       barcode,
		QuantityGrams: quantityGrams,
		Date:          day,
		CreatedAt:     s.now(),
	}
	if err := s.consumptions.Create(ctx, c); err != nil {
		return domain.Consumption{}, err
	}
	return c, nil
}

// ChangePassword exige la password actual antes de guardar la nueva.
func (s *ProfileService) ChangePassword(ctx context.Context, personID, oldPassword, newPassword string) error {
	var fc fieldCollector
	fc.require(oldPassword != "", "oldPassword")
	fc.require(newPassword != "", "newPassword")
	if err := fc.err(); err != nil {
		return err
	}

	account, err := s.accounts.GetByPersonID(ctx, personID)
	if err != nil {
		return notFound(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePasswordHash(ctx, personID, string(hash)); err != nil {
		return notFound(err)
	}
	s.logger.Info("password changed", zap.String("person_id", personID))
	return nil
}

func personFromProfile(p domain.UserProfile) domain.Person {
	return domain.Person{
		ID:            p.ID,
		Name:          p.Name,
		LastName:      p.LastName,
		Birthdate:     p.Birthdate,
		Gender:        p.Gender,
		Weight:        p.Weight,
		Height:        p.Height,
		ActivityLevel: p.ActivityLevel,
		Objective:     p.Objective,
	}
}

// notFound traduce pgx.ErrNoRows a ErrNotFound y deja pasar el resto.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
