package validation

import "strings"

// Free-text bounds. The upper bound matches the longest password the
// wrapped credential tools accept over stdin.
const (
	MinFreeTextLen = 1
	MaxFreeTextLen = 1024
)

// FreeText validates a password- or comment-class value. Shell
// metacharacters, quotes, spaces, and multi-byte Unicode are all
// accepted: free-text values reach tools as single exec arguments or
// over stdin, never through a shell. Only NUL bytes and the length
// bounds reject.
func FreeText(field, raw string) (string, error) {
	if len(raw) < MinFreeTextLen {
		return "", reject(KindFreeText, field, ErrEmptyInput, "a value is required")
	}
	if len(raw) > MaxFreeTextLen {
		return "", reject(KindFreeText, field, ErrTooLong, "%d bytes exceeds the %d byte limit", len(raw), MaxFreeTextLen)
	}
	if strings.ContainsRune(raw, 0) {
		return "", reject(KindFreeText, field, ErrInvalidFormat, "contains a NUL byte")
	}
	return raw, nil
}
