package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"nutritrack/internal/metrics"
)

const (
	defaultCodeTTL     = 15 * time.Minute
	defaultMaxAttempts = 5
	codeMin            = 100000
	codeSpan           = 900000
)

// ValidationResult es el resultado de comparar un codigo.
// AccountID solo se completa cuando Accepted es true.
type ValidationResult struct {
	Accepted          bool
	Reason            VerificationReason
	RemainingAttempts int
	AccountID         string
}

// VerificationStore guarda los codigos pendientes de verificacion.
type VerificationStore interface {
	Issue(email, accountID string) (string, time.Time, error)
	Validate(email, code string) (ValidationResult, error)
	Resend(email, accountID string) (string, time.Time, error)
	Sweep() int
	Start(ctx context.Context)
}

type pendingCode struct {
	code      string
	expiresAt time.Time
	attempts  int
	accountID string
	exhausted bool
}

// MemoryVerificationStore mantiene los codigos en memoria del proceso.
// Todas las operaciones toman el mismo mutex, asi que validar y barrer
// nunca se solapan.
type MemoryVerificationStore struct {
	mu          sync.Mutex
	entries     map[string]*pendingCode
	ttl         time.Duration
	maxAttempts int
	interval    time.Duration
	now         func() time.Time
	logger      *zap.Logger
	metrics     metrics.Recorder
}

func NewMemoryVerificationStore(logger *zap.Logger, rec metrics.Recorder, ttl time.Duration, maxAttempts int, sweepInterval time.Duration) *MemoryVerificationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	return &MemoryVerificationStore{
		entries:     make(map[string]*pendingCode),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		interval:    sweepInterval,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
		metrics:     rec,
	}
}

// Issue genera un codigo nuevo y reemplaza cualquier pendiente para el email.
func (s *MemoryVerificationStore) Issue(email, accountID string) (string, time.Time, error) {
	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, err
	}
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt := s.now().Add(s.ttl)
	s.entries[key] = &pendingCode{
		code:      code,
		expiresAt: expiresAt,
		accountID: accountID,
	}
	return code, expiresAt, nil
}

// Resend emite un codigo nuevo con intentos en cero. Si no habia entrada
// se crea; si accountID viene vacio se conserva el de la entrada previa.
func (s *MemoryVerificationStore) Resend(email, accountID string) (string, time.Time, error) {
	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, err
	}
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if accountID == "" {
		if prev, ok := s.entries[key]; ok {
			accountID = prev.accountID
		}
	}
	expiresAt := s.now().Add(s.ttl)
	s.entries[key] = &pendingCode{
		code:      code,
		expiresAt: expiresAt,
		accountID: accountID,
	}
	return code, expiresAt, nil
}

// Validate compara el codigo. Un acierto elimina la entrada. Tras el ultimo
// fallo permitido la entrada queda agotada hasta un Resend o hasta expirar.
func (s *MemoryVerificationStore) Validate(email, code string) (ValidationResult, error) {
	key := normalizeEmail(email)
	code = strings.TrimSpace(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return ValidationResult{Reason: ReasonNotFound}, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return ValidationResult{Reason: ReasonExpired}, nil
	}
	if entry.exhausted {
		return ValidationResult{Reason: ReasonTooManyAttempts}, nil
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		entry.attempts++
		if entry.attempts >= s.maxAttempts {
			entry.exhausted = true
		}
		return ValidationResult{
			Reason:            ReasonIncorrect,
			RemainingAttempts: s.maxAttempts - entry.attempts,
		}, nil
	}

	delete(s.entries, key)
	return ValidationResult{Accepted: true, AccountID: entry.accountID}, nil
}

// Sweep elimina entradas vencidas, agotadas incluidas, y devuelve cuantas.
func (s *MemoryVerificationStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Start barre periodicamente hasta que ctx se cancele. Se llama en una goroutine.
func (s *MemoryVerificationStore) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Info("expired verification codes removed", zap.Int("count", removed))
				s.metrics.RecordCodesSwept(removed)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *MemoryVerificationStore) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
