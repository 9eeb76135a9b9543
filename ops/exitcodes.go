package ops

import (
	"errors"
	"strings"

	"github.com/victoralfred/hostadm/executor"
)

// Classify refines a plain non-zero-exit error into the shared
// taxonomy using the documented exit codes of each tool, then the
// stderr wording. Errors that already carry a refined meaning, and
// everything that is not an execution failure, pass through untouched.
func Classify(cmd *executor.Command, execErr error) error {
	if execErr == nil {
		return nil
	}

	var ee *executor.ExecutionError
	if !errors.As(execErr, &ee) || !errors.Is(execErr, executor.ErrExecutionFailed) {
		return execErr
	}

	// systemctl status exits 3 for an inactive unit. The captured
	// output still answers the question asked.
	if cmd.Metadata[metaOperation] == "service.status" && ee.ExitCode == 3 {
		return nil
	}

	target := cmd.Metadata[metaTarget]
	if target == "" {
		return execErr
	}

	if refined := classifyExit(cmd, target, ee); refined != nil {
		return refined
	}
	if refined := classifyStderr(cmd, target, ee); refined != nil {
		return refined
	}
	return execErr
}

// classifyExit applies the documented exit codes of the wrapped tools,
// getent, and systemctl.
func classifyExit(cmd *executor.Command, target string, ee *executor.ExecutionError) error {
	tool := cmd.Tool
	exit := ee.ExitCode

	switch tool {
	case "useradd":
		switch exit {
		case 9:
			return executor.NewTargetExistsError(tool, target, ee.Stderr, exit)
		case 6:
			// Exit 6 names a missing group, not a missing user.
			group := cmd.Metadata[metaGroup]
			if group == "" {
				group = target
			}
			return executor.NewTargetNotFoundError(tool, group, ee.Stderr, exit)
		}

	case "usermod":
		if exit == 6 {
			missing := target
			if g := cmd.Metadata[metaGroup]; g != "" && strings.Contains(strings.ToLower(ee.Stderr), "group") {
				missing = g
			}
			return executor.NewTargetNotFoundError(tool, missing, ee.Stderr, exit)
		}

	case "userdel", "groupmod", "groupdel":
		if exit == 6 {
			return executor.NewTargetNotFoundError(tool, target, ee.Stderr, exit)
		}

	case "groupadd":
		if exit == 9 {
			return executor.NewTargetExistsError(tool, target, ee.Stderr, exit)
		}

	case "getent":
		if exit == 2 {
			return executor.NewTargetNotFoundError(tool, target, ee.Stderr, exit)
		}

	case "systemctl":
		if exit == 4 {
			return executor.NewTargetNotFoundError(tool, target, ee.Stderr, exit)
		}
	}
	return nil
}

// existsMarkers and notFoundMarkers recognize the failure wording of
// tools whose exit codes do not distinguish causes, smbpasswd and
// gpasswd among them. All matching is case-insensitive.
var (
	existsMarkers = []string{
		"already exists",
		"is already a member",
	}

	notFoundMarkers = []string{
		"does not exist",
		"no such file or directory",
		"unknown user",
		"unknown group",
		"unknown id",
		"no such unit",
		"is not a member",
		"failed to find entry",
		"username not found",
	}
)

func classifyStderr(cmd *executor.Command, target string, ee *executor.ExecutionError) error {
	lower := strings.ToLower(ee.Stderr)

	for _, marker := range existsMarkers {
		if strings.Contains(lower, marker) {
			name := target
			if nn := cmd.Metadata[metaNewName]; nn != "" {
				name = nn
			}
			return executor.NewTargetExistsError(cmd.Tool, name, ee.Stderr, ee.ExitCode)
		}
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return executor.NewTargetNotFoundError(cmd.Tool, target, ee.Stderr, ee.ExitCode)
		}
	}
	return nil
}
