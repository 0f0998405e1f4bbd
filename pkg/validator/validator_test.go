package validator

import (
	"context"
	"strings"
	"testing"
)

type registerForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Phone    string `validate:"required,phone"`
	Role     string `validate:"required,role"`
}

func validForm() registerForm {
	return registerForm{
		Username: "alice",
		Password: "secret",
		Phone:    "1234567890",
		Role:     "participant",
	}
}

func TestValidateAcceptsValidForm(t *testing.T) {
	if err := Validate(context.Background(), validForm()); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsShortPhone(t *testing.T) {
	form := validForm()
	form.Phone = "12345"

	err := Validate(context.Background(), form)
	if err == nil {
		t.Fatal("expected validation error for 5-digit phone")
	}
	if !strings.Contains(err.Error(), "10-digit") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestValidateRejectsNonNumericPhone(t *testing.T) {
	form := validForm()
	form.Phone = "12345abcde"

	if err := Validate(context.Background(), form); err == nil {
		t.Fatal("expected validation error for non-numeric phone")
	}
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	form := validForm()
	form.Role = "organizer"

	err := Validate(context.Background(), form)
	if err == nil {
		t.Fatal("expected validation error for unknown role")
	}
	if !strings.Contains(err.Error(), "admin or participant") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	form := validForm()
	form.Username = ""

	err := Validate(context.Background(), form)
	if err == nil {
		t.Fatal("expected validation error for empty username")
	}
	if !strings.Contains(err.Error(), ErrFieldRequired) {
		t.Fatalf("unexpected error message: %v", err)
	}
}
