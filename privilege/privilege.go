// Package privilege decides how a command reaches the operating
// system: directly (the process is already root), through sudo, or
// not at all.
//
// The decision is derived fresh for every invocation. Privilege can
// change underneath a long-lived process (sudo ticket expiry, group
// edits), so nothing here is memoized.
package privilege

import (
	"context"
	"os"
	"os/user"
	"time"

	sysexec "github.com/victoralfred/hostadm/internal/exec"
)

// Decision is the privilege mode selected for one invocation.
type Decision int

const (
	// Denied means the process has no path to the required privilege.
	Denied Decision = iota

	// RunDirectly means the process is already root.
	RunDirectly

	// RunWithSudo means the command must be prefixed with sudo.
	RunWithSudo
)

// String returns a human-readable decision name.
func (d Decision) String() string {
	switch d {
	case RunDirectly:
		return "direct"
	case RunWithSudo:
		return "sudo"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Resolver determines the privilege mode for the current process.
type Resolver interface {
	// Resolve returns the privilege decision. It is called once per
	// command invocation and must not cache across calls.
	Resolve(ctx context.Context) (Decision, error)
}

// Config configures the system resolver. A nil config selects
// defaults.
type Config struct {
	// SudoPath is the absolute path of the sudo binary used for the
	// capability probe.
	SudoPath string

	// ProbeTimeout bounds the non-interactive sudo probe.
	ProbeTimeout time.Duration

	// SudoGroups are group names whose membership implies sudo
	// capability when the non-interactive probe is inconclusive.
	SudoGroups []string
}

// DefaultConfig returns the stock resolver configuration.
func DefaultConfig() *Config {
	return &Config{
		SudoPath:     "/usr/bin/sudo",
		ProbeTimeout: 5 * time.Second,
		SudoGroups:   []string{"sudo", "wheel", "admin"},
	}
}

// SystemResolver is the production Resolver. The probes are function
// fields so tests can substitute them without touching the system.
type SystemResolver struct {
	config *Config

	effectiveUID func() int
	sudoProbe    func(ctx context.Context) bool
	groupNames   func() ([]string, error)
}

// NewResolver creates a resolver that inspects the running system.
func NewResolver(config *Config) *SystemResolver {
	if config == nil {
		config = DefaultConfig()
	}
	r := &SystemResolver{
		config:       config,
		effectiveUID: os.Geteuid,
		groupNames:   currentGroupNames,
	}
	r.sudoProbe = r.probeSudo
	return r
}

// Resolve implements Resolver. Root runs directly. Otherwise a
// non-interactive sudo probe, then membership in the configured sudo
// groups, grants RunWithSudo. Anything else is Denied.
func (r *SystemResolver) Resolve(ctx context.Context) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Denied, err
	}

	if r.effectiveUID() == 0 {
		return RunDirectly, nil
	}

	if r.sudoProbe(ctx) {
		return RunWithSudo, nil
	}

	names, err := r.groupNames()
	if err != nil {
		return Denied, nil
	}
	for _, name := range names {
		for _, sudoGroup := range r.config.SudoGroups {
			if name == sudoGroup {
				return RunWithSudo, nil
			}
		}
	}

	return Denied, nil
}

// probeSudo runs `sudo -n true`. Exit 0 means a cached credential or
// NOPASSWD rule lets this process escalate without prompting.
func (r *SystemResolver) probeSudo(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
	defer cancel()

	runner := sysexec.NewRunner()
	result, err := runner.Run(ctx, &sysexec.RunConfig{
		Binary: r.config.SudoPath,
		Args:   []string{"-n", "true"},
	})
	return err == nil && result.ExitCode == 0
}

// currentGroupNames lists the group names of the current user.
func currentGroupNames() ([]string, error) {
	u, err := user.Current()
	if err != nil {
		return nil, err
	}
	ids, err := u.GroupIds()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		g, err := user.LookupGroupId(id)
		if err != nil {
			// An unresolvable gid carries no name to match on.
			continue
		}
		names = append(names, g.Name)
	}
	return names, nil
}
