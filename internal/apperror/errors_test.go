package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewProtectedGroup(t *testing.T) {
	err := NewProtectedGroup("footer")
	if err.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", err.Code)
	}
	if err.Type != "protected_group" {
		t.Errorf("expected type protected_group, got %q", err.Type)
	}
}

func TestNewValidationFields_OmitsEmptyFields(t *testing.T) {
	err := NewValidationFields("invalid group", nil)
	if err.Fields != nil {
		t.Errorf("expected nil fields, got %v", err.Fields)
	}
	if err.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.Code)
	}

	err = NewValidationFields("invalid group", map[string]string{"name": "required"})
	if err.Fields["name"] != "required" {
		t.Errorf("expected field detail for name, got %v", err.Fields)
	}
}

func TestNewPersistence_NamesItemAndKeepsCause(t *testing.T) {
	cause := errors.New("deadlock found")
	err := NewPersistence(`group "promo"`, cause)

	if err.Message != `failed to save group "promo"` {
		t.Errorf("unexpected message %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestSafeMessage_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFound("badge group not found"))
	if got := SafeMessage(wrapped); got != "badge group not found" {
		t.Errorf("expected wrapped message, got %q", got)
	}
	if got := SafeCode(wrapped); got != http.StatusNotFound {
		t.Errorf("expected 404, got %d", got)
	}
}

func TestSafeMessage_PlainError(t *testing.T) {
	err := errors.New("Error 1146: Table 'badge_groups' doesn't exist")
	if got := SafeMessage(err); got != "an unexpected error occurred" {
		t.Errorf("expected generic message, got %q", got)
	}
	if got := SafeCode(err); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestIsType(t *testing.T) {
	if !IsType(NewProtectedGroup("checkout"), "protected_group") {
		t.Error("expected protected_group type to match")
	}
	if IsType(NewNotFound("x"), "protected_group") {
		t.Error("did not expect not_found to match protected_group")
	}
	if IsType(nil, "not_found") {
		t.Error("did not expect nil to match")
	}
}
