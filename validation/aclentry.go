package validation

import (
	"regexp"
	"strings"
)

// maxACLEntryLen bounds a full entry: default prefix, longest qualifier,
// a maximum-length name, and the permission triplet.
const maxACLEntryLen = 64

// permTripletRe admits exactly one read, write, and execute position in
// order, each either granted or '-'.
var permTripletRe = regexp.MustCompile(`^[r-][w-][x-]$`)

// Entry is a parsed access control list entry.
type Entry struct {
	// Default marks a default (inheritable) entry, written "d:" ahead of
	// the qualifier.
	Default bool

	// Qualifier is one of "user", "group", "other", "mask".
	Qualifier string

	// Name is the qualified user or group: empty for the owning
	// user/group and always empty for "other" and "mask" entries.
	Name string

	// Perms is the permission triplet, e.g. "r-x".
	Perms string
}

// String renders the entry in the form setfacl consumes.
func (e Entry) String() string {
	s := e.Qualifier + ":" + e.Name + ":" + e.Perms
	if e.Default {
		return "d:" + s
	}
	return s
}

// ACLEntry validates an access control list entry against the grammar
//
//	[d:]?(user|group|other|mask):<name>:<perm-triplet>
//
// where the triplet is [r-][w-][x-] and <name> is empty, an identifier,
// or a numeric ID. Malformed entries are hard rejections; nothing
// malformed proceeds to command construction.
func ACLEntry(field, raw string) (Entry, error) {
	if raw == "" {
		return Entry{}, reject(KindACLEntry, field, ErrEmptyInput, "an entry is required")
	}
	if len(raw) > maxACLEntryLen {
		return Entry{}, reject(KindACLEntry, field, ErrTooLong, "%d bytes exceeds the %d byte limit", len(raw), maxACLEntryLen)
	}

	parts := strings.Split(raw, ":")

	var entry Entry
	if parts[0] == "d" {
		entry.Default = true
		parts = parts[1:]
	}

	if len(parts) != 3 {
		return Entry{}, reject(KindACLEntry, field, ErrInvalidFormat, "want qualifier:name:perms")
	}

	switch parts[0] {
	case "user", "group", "other", "mask":
		entry.Qualifier = parts[0]
	default:
		return Entry{}, reject(KindACLEntry, field, ErrInvalidFormat, "qualifier must be user, group, other, or mask")
	}

	entry.Name = parts[1]
	if entry.Name != "" {
		if entry.Qualifier == "other" || entry.Qualifier == "mask" {
			return Entry{}, reject(KindACLEntry, field, ErrInvalidFormat, "%s entries take no name", entry.Qualifier)
		}
		if !isDigits(entry.Name) {
			if _, err := Identifier(field, entry.Name); err != nil {
				return Entry{}, reject(KindACLEntry, field, ErrInvalidFormat, "name must be an identifier or numeric ID")
			}
		} else if _, err := Numeric(field, entry.Name); err != nil {
			return Entry{}, reject(KindACLEntry, field, ErrOutOfRange, "numeric ID must be between %d and %d", NumericMin, NumericMax)
		}
	}

	entry.Perms = parts[2]
	if !permTripletRe.MatchString(entry.Perms) {
		return Entry{}, reject(KindACLEntry, field, ErrInvalidFormat, "permissions must match [r-][w-][x-]")
	}

	return entry, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
