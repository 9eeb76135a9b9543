package validation

import (
	"path/filepath"
	"strings"
)

// maxPathLen bounds path parameters, matching PATH_MAX on Linux.
const maxPathLen = 4096

// pathDeniedChars are shell metacharacters with no place in an
// administrable filesystem path. They are rejected even though the
// runner never invokes a shell.
const pathDeniedChars = ";|&$`'\"\\<>(){}[]!#~*?"

// Path validates an absolute filesystem path. The check runs on the raw
// input: no cleaning or symlink resolution is performed, so a disguised
// traversal cannot survive by canonicalizing into something acceptable.
func Path(field, raw string) (string, error) {
	if raw == "" {
		return "", reject(KindPath, field, ErrEmptyInput, "a path is required")
	}
	if len(raw) > maxPathLen {
		return "", reject(KindPath, field, ErrTooLong, "%d bytes exceeds the %d byte limit", len(raw), maxPathLen)
	}
	if !filepath.IsAbs(raw) {
		return "", reject(KindPath, field, ErrInvalidFormat, "must be an absolute path")
	}
	for _, seg := range strings.Split(raw, "/") {
		if seg == ".." {
			return "", reject(KindPath, field, ErrPathTraversal, "contains a '..' segment")
		}
	}
	if i := strings.IndexAny(raw, pathDeniedChars); i >= 0 {
		return "", reject(KindPath, field, ErrInvalidFormat, "contains shell metacharacter %q", raw[i])
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return "", reject(KindPath, field, ErrInvalidFormat, "contains a control character")
		}
		if r == ' ' || r == '\t' {
			return "", reject(KindPath, field, ErrInvalidFormat, "contains whitespace")
		}
	}
	return raw, nil
}

// IsPath reports whether raw is a valid absolute path parameter.
func IsPath(raw string) bool {
	_, err := Path("value", raw)
	return err == nil
}
