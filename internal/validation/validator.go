// Package validation checks request payloads before they leave the client.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Mavton23/rentix/internal/domain"
)

// DefaultCountryCode is prefixed to national phone numbers.
const DefaultCountryCode = "55"

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	nonDigits       = regexp.MustCompile(`\D`)
)

// Validator wraps the go-playground validator with the rentix rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return usernamePattern.MatchString(s) && len(s) >= 3 && len(s) <= 30
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, ok := NormalizePhone(fl.Field().String())
		return ok
	})

	// Report JSON field names so messages match the server's.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates s. Rule violations are returned as *domain.ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return fmt.Errorf("validating %T: %w", s, err)
}

// Var validates a single value against tag.
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// NewValidationError converts validator errors into field messages, ordered by field.
func NewValidationError(errs validator.ValidationErrors) *domain.ValidationError {
	fields := make([]domain.FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, domain.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &domain.ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "email":
		return "e-mail inválido"
	case "min":
		return fmt.Sprintf("mínimo de %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("máximo de %s caracteres", fe.Param())
	case "eqfield":
		return "as senhas não coincidem"
	case "username":
		return "use de 3 a 30 letras, números, pontos, hífens ou sublinhados"
	case "phone":
		return "telefone inválido"
	default:
		return "valor inválido"
	}
}

// NormalizePhone returns the number in E.164 form. National numbers (10 or 11 digits)
// get DefaultCountryCode; numbers starting with "+" keep their own code.
func NormalizePhone(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	international := strings.HasPrefix(s, "+") || strings.HasPrefix(s, "00")
	digits := nonDigits.ReplaceAllString(s, "")
	if strings.HasPrefix(s, "00") {
		digits = strings.TrimPrefix(digits, "00")
	}

	switch {
	case international:
		if len(digits) < 8 || len(digits) > 15 {
			return "", false
		}
		return "+" + digits, true
	case len(digits) == 10 || len(digits) == 11:
		return "+" + DefaultCountryCode + digits, true
	case strings.HasPrefix(digits, DefaultCountryCode) && (len(digits) == 12 || len(digits) == 13):
		return "+" + digits, true
	default:
		return "", false
	}
}

// FormatPhone renders Brazilian numbers as "+55 (11) 91234-5678". Other numbers are
// returned normalized, or unchanged when they cannot be parsed.
func FormatPhone(raw string) string {
	n, ok := NormalizePhone(raw)
	if !ok {
		return raw
	}
	if !strings.HasPrefix(n, "+"+DefaultCountryCode) {
		return n
	}
	national := strings.TrimPrefix(n, "+"+DefaultCountryCode)
	if len(national) != 10 && len(national) != 11 {
		return n
	}
	area, local := national[:2], national[2:]
	split := len(local) - 4
	return fmt.Sprintf("+%s (%s) %s-%s", DefaultCountryCode, area, local[:split], local[split:])
}
