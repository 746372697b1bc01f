package portal

import (
	"errors"
	"fmt"

	"github.com/spec-kit/reclamos-service/pkg/util/validate"
)

// ValidationError reports the first invalid form field. It is raised before
// any request leaves the controller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// LoginForm is the login screen.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm is the self-registration screen.
type RegisterForm struct {
	Nombre          string `json:"nombre" validate:"required"`
	Apellido        string `json:"apellido" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Telefono        string `json:"telefono" validate:"required"`
	Role            string `json:"role" validate:"required,role"`
	Area            string `json:"area" validate:"required_if=Role externo,omitempty,area"`
}

// ClaimForm is the claim creation screen.
type ClaimForm struct {
	Categoria     string   `json:"categoria" validate:"required,categoria"`
	Descripcion   string   `json:"descripcion" validate:"required"`
	Calle1        string   `json:"calle1" validate:"required"`
	Calle2        string   `json:"calle2"`
	Calle3        string   `json:"calle3"`
	Altura        string   `json:"altura" validate:"required"`
	Barrio        string   `json:"barrio" validate:"required"`
	NivelUrgencia string   `json:"nivelUrgencia" validate:"required,urgencia"`
	Archivos      []string `json:"archivos"`
}

// ActivityForm is the activity dialog.
type ActivityForm struct {
	Descripcion string `json:"descripcion" validate:"required"`
	Personal    string `json:"personal" validate:"required"`
}

func checkForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validate.Errors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field, Message: verrs[0].Message}
	}
	return err
}
