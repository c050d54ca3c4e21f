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
	"nutritrack/internal/metrics"
	"nutritrack/internal/notify"
	"nutritrack/internal/nutrition"
	"nutritrack/internal/repository"
)

// CodeNotifier entrega codigos de verificacion. El fallo es un valor.
type CodeNotifier interface {
	SendVerificationCode(ctx context.Context, to, code string, expiresAt time.Time) notify.Result
}

// AuthService coordina registro, verificacion por codigo y login.
type AuthService struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
	store    VerificationStore
	jwt      *JWTService
	notifier CodeNotifier
	limiter  OTPRateLimiter
	metrics  metrics.Recorder
	now      func() time.Time
}

func NewAuthService(
	logger *zap.Logger,
	accounts repository.AccountRepository,
	store VerificationStore,
	jwtSvc *JWTService,
	notifier CodeNotifier,
	limiter OTPRateLimiter,
	rec metrics.Recorder,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewOTPRateLimiter(10*time.Minute, 3)
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &AuthService{
		logger:   logger,
		accounts: accounts,
		store:    store,
		jwt:      jwtSvc,
		notifier: notifier,
		limiter:  limiter,
		metrics:  rec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name          string
	LastName      string
	Email         string
	Password      string
	Weight        float64
	Height        float64
	Gender        string
	Birthdate     string
	ActivityLevel string
	Objective     string
}

// RegisterResult es lo que necesita el cliente para completar la verificacion.
type RegisterResult struct {
	TempToken    string
	Email        string
	Notification notify.Result
}

// AuthResult acompania a un token final.
type AuthResult struct {
	Token string
	User  domain.UserProfile
}

// Register crea persona, objetivo inicial y cuenta, emite el codigo y
// devuelve un token temporal. Un fallo al enviar el codigo no aborta.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	emailAddr := normalizeEmail(in.Email)
	birthdate, birthErr := domain.ParseDate(in.Birthdate)

	var fc fieldCollector
	fc.require(strings.TrimSpace(in.Name) != "", "name")
	fc.require(strings.TrimSpace(in.LastName) != "", "last_name")
	fc.require(isValidEmail(emailAddr), "email")
	fc.require(in.Password != "", "password")
	fc.require(in.Weight > 0, "weight")
	fc.require(in.Height > 0, "height")
	fc.require(strings.TrimSpace(in.Gender) != "", "gender")
	fc.require(birthErr == nil, "birthdate")
	fc.require(strings.TrimSpace(in.ActivityLevel) != "", "activity_level")
	fc.require(strings.TrimSpace(in.Objective) != "", "objective")
	if err := fc.err(); err != nil {
		s.metrics.RecordRegistration("invalid")
		return RegisterResult{}, err
	}

	level, _ := nutrition.ParseActivityLevel(in.ActivityLevel)
	objective, _ := nutrition.ParseObjective(in.Objective)
	now := s.now()

	person := domain.Person{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		LastName:      strings.TrimSpace(in.LastName),
		Birthdate:     birthdate,
		Gender:        strings.TrimSpace(in.Gender),
		Weight:        in.Weight,
		Height:        in.Height,
		ActivityLevel: string(level),
		Objective:     string(objective),
		CreatedAt:     now,
	}
	macros := nutrition.Compute(nutrition.Biometrics{
		WeightKg:      person.Weight,
		HeightCm:      person.Height,
		Gender:        person.Gender,
		Birthdate:     birthdate.Time,
		ActivityLevel: level,
		Objective:     objective,
	}, now)
	target := targetFromMacros(person.ID, domain.NewDate(now), macros)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResult{}, err
	}
	account := domain.Account{
		ID:           uuid.NewString(),
		PersonID:     person.ID,
		Email:        emailAddr,
		Username:     emailAddr,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	if err := s.accounts.CreateWithPerson(ctx, person, target, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.RecordRegistration("duplicate")
			return RegisterResult{}, ErrDuplicateAccount
		}
		s.metrics.RecordRegistration("error")
		return RegisterResult{}, err
	}

	code, expiresAt, err := s.store.Issue(emailAddr, account.ID)
	if err != nil {
		return RegisterResult{}, err
	}
	result := s.notifier.SendVerificationCode(ctx, emailAddr, code, expiresAt)

	tempToken, err := s.jwt.IssueTemporary(person.ID, emailAddr)
	if err != nil {
		return RegisterResult{}, err
	}

	s.metrics.RecordRegistration("success")
	s.logger.Info("account registered",
		zap.String("person_id", person.ID),
		zap.String("email", emailAddr),
		zap.String("notification", string(result.Outcome)),
	)
	return RegisterResult{
		TempToken:    tempToken,
		Email:        emailAddr,
		Notification: result,
	}, nil
}

// Verify canjea el codigo por un token final de 24 h.
func (s *AuthService) Verify(ctx context.Context, email, code, tempToken string) (AuthResult, error) {
	emailAddr := normalizeEmail(email)
	code = strings.TrimSpace(code)

	var fc fieldCollector
	fc.require(emailAddr != "", "email")
	fc.require(code != "", "code")
	if err := fc.err(); err != nil {
		return AuthResult{}, err
	}
	if err := s.checkTempToken(tempToken, emailAddr); err != nil {
		return AuthResult{}, err
	}

	res, err := s.store.Validate(emailAddr, code)
	if err != nil {
		return AuthResult{}, err
	}
	if !res.Accepted {
		s.metrics.RecordVerification(string(res.Reason))
		return AuthResult{}, &VerificationError{
			Reason:            res.Reason,
			RemainingAttempts: res.RemainingAttempts,
		}
	}

	profile, err := s.accounts.GetProfileByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AuthResult{}, ErrNotFound
		}
		return AuthResult{}, err
	}

	accountID := res.AccountID
	if accountID == "" {
		accountID = profile.AccountID
	}
	verifiedAt := s.now()
	if err := s.accounts.MarkVerified(ctx, accountID, verifiedAt); err != nil {
		return AuthResult{}, err
	}
	if profile.VerifiedAt == nil {
		profile.VerifiedAt = &verifiedAt
	}

	token, err := s.jwt.IssueVerified(profile.ID, emailAddr)
	if err != nil {
		return AuthResult{}, err
	}
	s.metrics.RecordVerification("accepted")
	s.logger.Info("email verified", zap.String("person_id", profile.ID))
	return AuthResult{Token: token, User: profile}, nil
}

// Resend reinicia el codigo del email. El resultado del envio no cambia la
// respuesta; solo se registra.
func (s *AuthService) Resend(ctx context.Context, email, tempToken string) (string, error) {
	emailAddr := normalizeEmail(email)
	if emailAddr == "" {
		return "", &ValidationError{Fields: []string{"email"}}
	}
	if err := s.checkTempToken(tempToken, emailAddr); err != nil {
		return "", err
	}
	if !s.limiter.Allow(ctx, emailAddr) {
		s.metrics.RecordRateLimited("resend")
		return "", ErrRateLimited
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	code, expiresAt, err := s.store.Resend(emailAddr, account.ID)
	if err != nil {
		return "", err
	}
	result := s.notifier.SendVerificationCode(ctx, emailAddr, code, expiresAt)
	if result.Failed() {
		s.logger.Warn("resend delivery failed", zap.String("email", emailAddr), zap.Error(result.Err))
	}
	return emailAddr, nil
}

// Login valida la password y emite un token final de 1 h. Email desconocido y
// password incorrecta devuelven el mismo error.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	emailAddr := normalizeEmail(email)

	var fc fieldCollector
	fc.require(emailAddr != "", "email")
	fc.require(password != "", "password")
	if err := fc.err(); err != nil {
		return AuthResult{}, err
	}

	account, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordLogin("invalid_credentials")
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.metrics.RecordLogin("invalid_credentials")
		return AuthResult{}, ErrInvalidCredentials
	}

	profile, err := s.accounts.GetProfileByID(ctx, account.PersonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AuthResult{}, ErrNotFound
		}
		return AuthResult{}, err
	}

	token, err := s.jwt.IssueLogin(profile.ID, emailAddr)
	if err != nil {
		return AuthResult{}, err
	}
	s.metrics.RecordLogin("success")
	return AuthResult{Token: token, User: profile}, nil
}

// checkTempToken exige un token temporal vigente emitido para el mismo email.
func (s *AuthService) checkTempToken(tempToken, emailAddr string) error {
	claims, err := s.jwt.ParseTemporary(tempToken)
	if err != nil {
		return ErrInvalidToken
	}
	if normalizeEmail(claims.Email) != emailAddr {
		return ErrInvalidToken
	}
	return nil
}

func targetFromMacros(personID string, date domain.Date, m nutrition.Macros) domain.NutritionTarget {
	return domain.NutritionTarget{
		PersonID:      personID,
		Date:          date,
		DailyCalories: m.DailyCalories,
		ProteinGrams:  m.ProteinGrams,
		FatGrams:      m.FatGrams,
		CarbsGrams:    m.CarbsGrams,
	}
}
