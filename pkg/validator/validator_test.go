package validator

import (
	"testing"
)

type registerPayload struct {
	FullName string `json:"full_name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidateStructPasses(t *testing.T) {
	payload := registerPayload{
		FullName: "Jerome de Santos",
		Email:    "jerome@example.com",
		Password: "supersecret",
	}
	if err := ValidateStruct(&payload); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	payload := registerPayload{Email: "nope"}

	err := ValidateStruct(&payload)
	if err == nil {
		t.Fatal("expected validation failure")
	}

	failures, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	fields := map[string]bool{}
	for _, failure := range failures {
		fields[failure.Field] = true
	}
	for _, want := range []string{"full_name", "email", "password"} {
		if !fields[want] {
			t.Fatalf("expected failure for field %q, got %v", want, failures)
		}
	}
}
