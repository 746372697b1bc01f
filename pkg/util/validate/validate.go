// Package validate wraps go-playground/validator with the closed enums of
// the claims domain registered as tags.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

// FieldError is one failed rule, keyed by the json name of the field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Errors is returned by Struct when at least one rule fails.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Details renders the errors as a field to message map.
func (e Errors) Details() map[string]any {
	out := make(map[string]any, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "role", func(s string) bool { return domain.UserRole(s).Valid() })
		mustRegister(v, "area", func(s string) bool { return domain.Area(s).Valid() })
		mustRegister(v, "account_status", func(s string) bool { return domain.AccountStatus(s).Valid() })
		mustRegister(v, "categoria", func(s string) bool { return domain.ClaimCategory(s).Valid() })
		mustRegister(v, "urgencia", func(s string) bool { return domain.UrgencyLevel(s).Valid() })
		mustRegister(v, "estado", func(s string) bool { return domain.ClaimStatus(s).Valid() })
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, ok func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return ok(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// Struct validates s and returns Errors, or nil when every rule holds.
func Struct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	case "oneof":
		return "must be one of " + fe.Param()
	case "role", "area", "account_status", "categoria", "urgencia", "estado":
		return fmt.Sprintf("%q is not a valid %s", fe.Value(), fe.Tag())
	}
	return "is invalid"
}
