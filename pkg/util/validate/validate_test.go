package validate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type signupForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,role"`
	Area     string `json:"area" validate:"required_if=Role externo,omitempty,area"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signupForm{Email: "nope", Password: "123", Role: "externo"})
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %T %v", err, err)
	}
	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fe.Field)
	}
	if diff := cmp.Diff([]string{"email", "password", "area"}, fields); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}
}

func TestStructAcceptsValidForms(t *testing.T) {
	cases := []signupForm{
		{Email: "a@b.com", Password: "secreto", Role: "usuario"},
		{Email: "a@b.com", Password: "secreto", Role: "externo", Area: "Tránsito"},
	}
	for _, form := range cases {
		if err := Struct(form); err != nil {
			t.Fatalf("%+v: unexpected error %v", form, err)
		}
	}
}

func TestUnknownEnumValue(t *testing.T) {
	err := Struct(signupForm{Email: "a@b.com", Password: "secreto", Role: "admin"})
	var verrs Errors
	if !errors.As(err, &verrs) || verrs[0].Rule != "role" {
		t.Fatalf("expected role error, got %v", err)
	}
}
