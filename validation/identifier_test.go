package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestIdentifier_Valid(t *testing.T) {
	valid := []string{
		"alice",
		"bob.smith",
		"web-admins",
		"r",
		"svc_backup",
		"A1",
		"media.share-01",
		"x" + strings.Repeat("y", 31),
	}

	for _, name := range valid {
		got, err := Identifier("username", name)
		if err != nil {
			t.Errorf("Identifier(%q) returned error: %v", name, err)
		}
		if got != name {
			t.Errorf("Identifier(%q) = %q, want input unchanged", name, got)
		}
	}
}

func TestIdentifier_Empty(t *testing.T) {
	_, err := Identifier("username", "")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
	if ReasonOf(err) != ReasonEmptyInput {
		t.Errorf("Expected reason %s, got %s", ReasonEmptyInput, ReasonOf(err))
	}
}

func TestIdentifier_TooLong(t *testing.T) {
	_, err := Identifier("username", "a"+strings.Repeat("b", 32))
	if !errors.Is(err, ErrTooLong) {
		t.Errorf("Expected ErrTooLong for 33 characters, got %v", err)
	}
}

func TestIdentifier_LengthBoundary(t *testing.T) {
	// 32 characters is the last accepted length.
	if _, err := Identifier("username", strings.Repeat("a", 32)); err != nil {
		t.Errorf("Expected 32-char identifier to pass, got %v", err)
	}
	if _, err := Identifier("username", strings.Repeat("a", 33)); err == nil {
		t.Error("Expected 33-char identifier to fail")
	}
}

func TestIdentifier_InvalidFormat(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"leading digit", "1alice"},
		{"leading dot", ".hidden"},
		{"leading hyphen", "-rf"},
		{"leading underscore", "_svc"},
		{"embedded space", "alice smith"},
		{"semicolon injection", "alice;rm -rf /"},
		{"pipe", "alice|id"},
		{"ampersand", "alice&&id"},
		{"command substitution", "alice$(whoami)"},
		{"backtick substitution", "alice`whoami`"},
		{"redirect", "alice>out"},
		{"glob", "alice*"},
		{"newline", "alice\nbob"},
		{"nul byte", "alice\x00bob"},
		{"slash", "home/alice"},
		{"colon", "alice:x"},
		{"unicode letter", "ålice"},
		{"tab", "alice\tbob"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Identifier("username", tc.input)
			if err == nil {
				t.Fatalf("Expected error for %q", tc.input)
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Expected ErrInvalidFormat for %q, got %v", tc.input, err)
			}
		})
	}
}

func TestIdentifier_ErrorCarriesField(t *testing.T) {
	_, err := Identifier("groupname", "bad name")

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if verr.Field != "groupname" {
		t.Errorf("Expected field 'groupname', got %q", verr.Field)
	}
	if verr.Kind != KindIdentifier {
		t.Errorf("Expected KindIdentifier, got %v", verr.Kind)
	}
}

func TestIsIdentifier(t *testing.T) {
	if !IsIdentifier("alice") {
		t.Error("Expected 'alice' to be a valid identifier")
	}
	if IsIdentifier("alice;id") {
		t.Error("Expected 'alice;id' to be rejected")
	}
}
