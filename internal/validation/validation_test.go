package validation

import (
	"errors"
	"testing"

	"github.com/converswp/trustbadges/internal/apperror"
)

type loginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin editor"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(&loginDTO{Email: "a@example.com", Password: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_FieldsUseJSONNames(t *testing.T) {
	err := Struct(&loginDTO{Email: "nope", Password: "far-too-long", Role: "owner"})

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != 400 {
		t.Errorf("expected 400, got %d", appErr.Code)
	}

	want := map[string]string{
		"email":    "must be a valid email address",
		"password": "must be at most 8 characters",
		"role":     "must be one of admin, editor",
	}
	for field, msg := range want {
		if appErr.Fields[field] != msg {
			t.Errorf("field %s: got %q, want %q", field, appErr.Fields[field], msg)
		}
	}
}

func TestStruct_Required(t *testing.T) {
	err := Struct(&loginDTO{})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T", err)
	}
	if appErr.Fields["email"] != "is required" || appErr.Fields["password"] != "is required" {
		t.Errorf("unexpected fields: %v", appErr.Fields)
	}
}
