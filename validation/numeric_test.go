package validation

import (
	"errors"
	"testing"
)

func TestNumeric_Valid(t *testing.T) {
	valid := []string{"0", "1", "1000", "65535", "007"}

	for _, raw := range valid {
		got, err := Numeric("uid", raw)
		if err != nil {
			t.Errorf("Numeric(%q) returned error: %v", raw, err)
		}
		if got != raw {
			t.Errorf("Numeric(%q) = %q, want input unchanged", raw, got)
		}
	}
}

func TestNumeric_Empty(t *testing.T) {
	_, err := Numeric("uid", "")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestNumeric_OutOfRange(t *testing.T) {
	testCases := []string{
		"65536",
		"99999",
		"18446744073709551616", // beyond uint64
	}

	for _, raw := range testCases {
		_, err := Numeric("uid", raw)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Expected ErrOutOfRange for %q, got %v", raw, err)
		}
		if ReasonOf(err) != ReasonOutOfRange {
			t.Errorf("Expected reason %s for %q, got %s", ReasonOutOfRange, raw, ReasonOf(err))
		}
	}
}

func TestNumeric_RangeBoundary(t *testing.T) {
	if _, err := Numeric("port", "65535"); err != nil {
		t.Errorf("Expected 65535 to pass, got %v", err)
	}
	if _, err := Numeric("port", "65536"); err == nil {
		t.Error("Expected 65536 to fail")
	}
	if _, err := Numeric("port", "0"); err != nil {
		t.Errorf("Expected 0 to pass, got %v", err)
	}
}

func TestNumeric_InvalidFormat(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"negative", "-1"},
		{"plus sign", "+5"},
		{"decimal", "1.5"},
		{"hex", "0x10"},
		{"letters", "12a"},
		{"space", "1 2"},
		{"injection", "1;id"},
		{"unicode digits", "١٢٣"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Numeric("gid", tc.input)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Expected ErrInvalidFormat for %q, got %v", tc.input, err)
			}
		})
	}
}

func TestNumericValue(t *testing.T) {
	n, err := NumericValue("port", "8080")
	if err != nil {
		t.Fatalf("NumericValue returned error: %v", err)
	}
	if n != 8080 {
		t.Errorf("Expected 8080, got %d", n)
	}

	// Leading zeros parse as decimal, never octal.
	n, err = NumericValue("port", "0750")
	if err != nil {
		t.Fatalf("NumericValue returned error: %v", err)
	}
	if n != 750 {
		t.Errorf("Expected 750, got %d", n)
	}

	if _, err := NumericValue("port", "70000"); err == nil {
		t.Error("Expected error for out-of-range value")
	}
}
