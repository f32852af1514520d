package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateName(t *testing.T) {
	for _, tc := range []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Simple", "agent_triggers", false},
		{"Dashes", "mcp-module", false},
		{"Digits", "v2", false},
		{"Empty", "", true},
		{"LeadingUnderscore", "_hidden", true},
		{"Space", "agent triggers", true},
		{"Dot", "a.b", true},
		{"Slash", "a/b", true},
		{"MaxLength", strings.Repeat("a", MaxNameLength), false},
		{"TooLong", strings.Repeat("a", MaxNameLength+1), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if ve.Errors[0].Field != "name" {
					t.Errorf("field = %q, want name", ve.Errors[0].Field)
				}
			}
		})
	}
}

func TestValidateFlag(t *testing.T) {
	if err := ValidateFlag(nil); err == nil {
		t.Error("ValidateFlag(nil) should fail")
	}
	if err := ValidateFlag(&Flag{Name: "x"}); err == nil {
		t.Error("expected error for zero updated_at")
	}
	if err := ValidateFlag(&Flag{Name: "x", UpdatedAt: time.Now()}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{
		{Field: "name", Message: "is required"},
		{Field: "updated_at", Message: "is required"},
	}}
	want := "validation failed: name: is required; updated_at: is required"
	if got := ve.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFlag_Clone(t *testing.T) {
	var nilFlag *Flag
	if nilFlag.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
	f := &Flag{Name: "a", Enabled: true, Description: "d", UpdatedAt: time.Now()}
	c := f.Clone()
	c.Enabled = false
	if !f.Enabled {
		t.Error("mutating the clone changed the original")
	}
}

func TestActionFor(t *testing.T) {
	if ActionFor(true) != ActionEnabled {
		t.Error("ActionFor(true) should be enabled")
	}
	if ActionFor(false).String() != "disabled" {
		t.Error("ActionFor(false) should be disabled")
	}
}
