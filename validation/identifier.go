package validation

import "regexp"

// maxIdentifierLen bounds user and group names, matching useradd(8).
const maxIdentifierLen = 32

// identifierRe admits names that start with a letter and continue with
// letters, digits, '.', '_' or '-'. The character set excludes every
// shell metacharacter, whitespace, and NUL by construction.
var identifierRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]{0,31}$`)

// Identifier validates a username/groupname-class token.
func Identifier(field, raw string) (string, error) {
	if raw == "" {
		return "", reject(KindIdentifier, field, ErrEmptyInput, "a name is required")
	}
	if len(raw) > maxIdentifierLen {
		return "", reject(KindIdentifier, field, ErrTooLong, "%d bytes exceeds the %d byte limit", len(raw), maxIdentifierLen)
	}
	if !identifierRe.MatchString(raw) {
		return "", reject(KindIdentifier, field, ErrInvalidFormat, "must start with a letter and contain only letters, digits, '.', '_', '-'")
	}
	return raw, nil
}

// IsIdentifier reports whether raw is a valid identifier.
func IsIdentifier(raw string) bool {
	_, err := Identifier("value", raw)
	return err == nil
}
