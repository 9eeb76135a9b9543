package validation

import "strconv"

// Numeric bounds cover the UID/GID and port range used by every wrapped
// tool.
const (
	NumericMin = 0
	NumericMax = 65535
)

// Numeric validates an unsigned decimal integer in [NumericMin,
// NumericMax]. Signs, spaces, and any non-digit byte are rejected; the
// accepted canonical value is the raw digit string.
func Numeric(field, raw string) (string, error) {
	if raw == "" {
		return "", reject(KindNumeric, field, ErrEmptyInput, "a number is required")
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return "", reject(KindNumeric, field, ErrInvalidFormat, "must contain only digits")
		}
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n > NumericMax {
		return "", reject(KindNumeric, field, ErrOutOfRange, "must be between %d and %d", NumericMin, NumericMax)
	}
	return raw, nil
}

// NumericValue validates raw and returns the parsed integer.
func NumericValue(field, raw string) (int, error) {
	accepted, err := Numeric(field, raw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(accepted)
	if err != nil {
		return 0, reject(KindNumeric, field, ErrOutOfRange, "must be between %d and %d", NumericMin, NumericMax)
	}
	return n, nil
}
