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

// AccountRepository define el contrato de persistencia para personas y cuentas.
type AccountRepository interface {
	CreateWithPerson(ctx context.Context, person domain.Person, target domain.NutritionTarget, account domain.Account) error
	GetProfileByEmail(ctx context.Context, email string) (domain.UserProfile, error)
	GetProfileByID(ctx context.Context, personID string) (domain.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByPersonID(ctx context.Context, personID string) (domain.Account, error)
	MarkVerified(ctx context.Context, accountID string, verifiedAt time.Time) error
	UpdatePasswordHash(ctx context.Context, personID, passwordHash string) error
}

// PgAccountRepository implementa AccountRepository usando pgxpool.
type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

// CreateWithPerson inserta persona, objetivo nutricional inicial y cuenta en una
// sola transaccion. Un email repetido devuelve ErrDuplicateEmail.
func (r *PgAccountRepository) CreateWithPerson(ctx context.Context, person domain.Person, target domain.NutritionTarget, account domain.Account) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertPerson = `
		INSERT INTO persons (id, name, last_name, birthdate, gender, weight_value, height_value, activity_level, objective, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := tx.Exec(ctx, insertPerson,
		person.ID,
		person.Name,
		person.LastName,
		person.Birthdate.Time,
		person.Gender,
		person.Weight,
		person.Height,
		person.ActivityLevel,
		person.Objective,
		person.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert person: %w", err)
	}

	if err := upsertTarget(ctx, tx, target); err != nil {
		return err
	}

	const insertAccount = `
		INSERT INTO accounts (id, person_id, email, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, insertAccount,
		account.ID,
		account.PersonID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const profileSelect = `
	SELECT p.id, a.id, p.name, p.last_name, a.email, p.birthdate, p.gender,
	       p.weight_value, p.height_value, p.activity_level, p.objective, a.email_verified_at
	FROM persons p
	JOIN accounts a ON a.person_id = p.id
`

func (r *PgAccountRepository) GetProfileByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	return r.getProfile(ctx, profileSelect+"WHERE a.email = $1", email)
}

func (r *PgAccountRepository) GetProfileByID(ctx context.Context, personID string) (domain.UserProfile, error) {
	return r.getProfile(ctx, profileSelect+"WHERE p.id = $1", personID)
}

func (r *PgAccountRepository) getProfile(ctx context.Context, query string, arg string) (domain.UserProfile, error) {
	var (
		p         domain.UserProfile
		birthdate time.Time
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.AccountID,
		&p.Name,
		&p.LastName,
		&p.Email,
		&birthdate,
		&p.Gender,
		&p.Weight,
		&p.Height,
		&p.ActivityLevel,
		&p.Objective,
		&p.VerifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, err
	}
	p.Birthdate = domain.NewDate(birthdate)
	return p, err
}

const accountSelect = `
	SELECT id, person_id, email, username, password_hash, email_verified_at, created_at
	FROM accounts
`

func (r *PgAccountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.getAccount(ctx, accountSelect+"WHERE email = $1", email)
}

func (r *PgAccountRepository) GetByPersonID(ctx context.Context, personID string) (domain.Account, error) {
	return r.getAccount(ctx, accountSelect+"WHERE person_id = $1", personID)
}

func (r *PgAccountRepository) getAccount(ctx context.Context, query string, arg string) (domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.PersonID,
		&a.Email,
		&a.Username,
		&a.PasswordHash,
		&a.EmailVerifiedAt,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, err
	}
	return a, err
}

func (r *PgAccountRepository) MarkVerified(ctx context.Context, accountID string, verifiedAt time.Time) error {
	const query = `
		UPDATE accounts
		SET email_verified_at = COALESCE(email_verified_at, $2)
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, accountID, verifiedAt)
	if err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgAccountRepository) UpdatePasswordHash(ctx context.Context, personID, passwordHash string) error {
	const query = `
		UPDATE accounts
		SET password_hash = $2
		WHERE person_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, personID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
