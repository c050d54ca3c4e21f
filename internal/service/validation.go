package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// normalizePhone quita espacios, guiones y parentesis y agrega el '+' inicial
// para validar en formato E.164.
func normalizePhone(raw string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	phone := r.Replace(strings.TrimSpace(raw))
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return phone
}

func isValidPhone(phone string) bool {
	return validate.Var(phone, "required,e164") == nil
}
