package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// ArgvGuardConfig configures the argument vector guard.
type ArgvGuardConfig struct {
	MaxArgs      int
	MaxArgLength int
}

// ArgvGuard performs a final sweep over a built argument vector before
// execution. Every value in the vector has already passed per-kind
// validation; this guard is the independent second barrier, catching a
// token that could span argument boundaries no matter how it got in.
type ArgvGuard struct {
	config *ArgvGuardConfig
}

// NewArgvGuard creates an argument vector guard. A nil config selects
// defaults.
func NewArgvGuard(config *ArgvGuardConfig) *ArgvGuard {
	if config == nil {
		config = &ArgvGuardConfig{
			MaxArgs:      64,
			MaxArgLength: 4096,
		}
	}
	return &ArgvGuard{config: config}
}

// Check validates the argument vector.
func (g *ArgvGuard) Check(args []string) error {
	if len(args) > g.config.MaxArgs {
		return fmt.Errorf("%w: too many arguments (%d > %d)", ErrInvalidFormat, len(args), g.config.MaxArgs)
	}
	for i, arg := range args {
		if len(arg) > g.config.MaxArgLength {
			return fmt.Errorf("%w: argument %d too long (%d > %d)", ErrTooLong, i, len(arg), g.config.MaxArgLength)
		}
		if strings.ContainsRune(arg, 0) {
			return fmt.Errorf("%w: argument %d contains NUL byte", ErrInvalidFormat, i)
		}
		if strings.ContainsAny(arg, "\n\r") {
			return fmt.Errorf("%w: argument %d contains a line break", ErrInvalidFormat, i)
		}
	}
	return nil
}

// EnvGuardConfig configures the environment guard.
type EnvGuardConfig struct {
	// DeniedVars are environment variable names that never pass through
	// to a child. Supports wildcards: "*_PASSWORD*", "LD_*", etc.
	DeniedVars []string

	// MaxVars is the maximum number of environment variables.
	MaxVars int

	// MaxValueLength is the maximum length of a variable value.
	MaxValueLength int
}

// EnvGuard rejects environment variables that could alter a child
// tool's behavior or carry credential material. The executor builds a
// minimal environment for every child; this guard covers the overrides
// a caller adds on top.
type EnvGuard struct {
	config       *EnvGuardConfig
	deniedRegexp []*regexp.Regexp
}

// NewEnvGuard creates an environment guard. A nil config selects
// defaults.
func NewEnvGuard(config *EnvGuardConfig) *EnvGuard {
	if config == nil {
		config = &EnvGuardConfig{
			DeniedVars: []string{
				"*_SECRET*",
				"*_PASSWORD*",
				"*_TOKEN*",
				"*_KEY*",
				"*_CREDENTIAL*",
				"LD_PRELOAD",
				"LD_LIBRARY_PATH",
				"LD_AUDIT",
				"IFS",
				"ENV",
				"BASH_ENV",
				"SHELLOPTS",
				"PS4",
			},
			MaxVars:        32,
			MaxValueLength: 4096,
		}
	}

	g := &EnvGuard{config: config}
	for _, pattern := range config.DeniedVars {
		if re := wildcardToRegexp(pattern); re != nil {
			g.deniedRegexp = append(g.deniedRegexp, re)
		}
	}
	return g
}

// Check validates environment overrides.
func (g *EnvGuard) Check(env map[string]string) error {
	if len(env) > g.config.MaxVars {
		return fmt.Errorf("%w: too many environment variables (%d > %d)", ErrInvalidFormat, len(env), g.config.MaxVars)
	}
	for key, value := range env {
		if !isValidEnvKey(key) {
			return fmt.Errorf("%w: invalid environment key %q", ErrInvalidFormat, key)
		}
		if len(value) > g.config.MaxValueLength {
			return fmt.Errorf("%w: environment value for %q too long", ErrTooLong, key)
		}
		if strings.ContainsRune(value, 0) {
			return fmt.Errorf("%w: environment value for %q contains NUL byte", ErrInvalidFormat, key)
		}
		for _, re := range g.deniedRegexp {
			if re.MatchString(key) {
				return fmt.Errorf("%w: environment variable %q is denied", ErrInvalidFormat, key)
			}
		}
	}
	return nil
}

// wildcardToRegexp converts a wildcard pattern to an anchored regexp.
func wildcardToRegexp(pattern string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, "\\*", ".*")
	escaped = "^" + escaped + "$"

	re, err := regexp.Compile(escaped)
	if err != nil {
		return nil
	}
	return re
}

// isValidEnvKey checks if a key is a valid environment variable name.
func isValidEnvKey(key string) bool {
	if len(key) == 0 {
		return false
	}

	first := key[0]
	if !((first >= 'a' && first <= 'z') ||
		(first >= 'A' && first <= 'Z') ||
		first == '_') {
		return false
	}

	for i := 1; i < len(key); i++ {
		c := key[i]
		if !((c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '_') {
			return false
		}
	}

	return true
}
