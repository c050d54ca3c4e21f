package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateAccount   = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrRateLimited        = errors.New("rate limited")
	ErrDeliveryFailed     = errors.New("message delivery failed")
)

// ValidationError enumera los campos faltantes o invalidos de una request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fields: %s", strings.Join(e.Fields, ", "))
}

// VerificationReason es el motivo por el que un codigo fue rechazado.
type VerificationReason string

const (
	ReasonNotFound        VerificationReason = "not_found"
	ReasonExpired         VerificationReason = "expired"
	ReasonTooManyAttempts VerificationReason = "too_many_attempts"
	ReasonIncorrect       VerificationReason = "incorrect"
)

// VerificationError se devuelve cuando el codigo no fue aceptado.
// RemainingAttempts solo tiene sentido con ReasonIncorrect.
type VerificationError struct {
	Reason            VerificationReason
	RemainingAttempts int
}

func (e *VerificationError) Error() string {
	switch e.Reason {
	case ReasonNotFound:
		return "no verification code found for this email"
	case ReasonExpired:
		return "verification code has expired"
	case ReasonTooManyAttempts:
		return "too many failed attempts"
	default:
		return fmt.Sprintf("incorrect verification code, %d attempts remaining", e.RemainingAttempts)
	}
}

type fieldCollector struct {
	fields []string
}

func (f *fieldCollector) require(ok bool, name string) {
	if !ok {
		f.fields = append(f.fields, name)
	}
}

func (f *fieldCollector) err() error {
	if len(f.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: f.fields}
}
