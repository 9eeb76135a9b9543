// Package hooks provides extension points for the invocation lifecycle.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/victoralfred/hostadm/executor"
)

// Hook defines extension points for the invocation lifecycle.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string

	// Priority determines execution order (lower = earlier).
	Priority() int
}

// PreExecuteHook is called before command execution.
type PreExecuteHook interface {
	Hook
	PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error)
}

// PostExecuteHook is called after command execution.
type PostExecuteHook interface {
	Hook
	PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, err error) error
}

// ValidationHook adds custom validation logic.
type ValidationHook interface {
	Hook
	Validate(ctx context.Context, cmd *executor.Command) error
}

// TransformHook can modify commands before execution.
type TransformHook interface {
	Hook
	Transform(ctx context.Context, cmd *executor.Command) (*executor.Command, error)
}

// ErrorHook is called when an error occurs.
type ErrorHook interface {
	Hook
	OnError(ctx context.Context, cmd *executor.Command, err error) error
}

// Registry manages hook registration and invocation.
type Registry struct {
	preExecute  []PreExecuteHook
	postExecute []PostExecuteHook
	validation  []ValidationHook
	transform   []TransformHook
	errorHooks  []ErrorHook
	mu          sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a hook to the registry. A single value may implement
// several hook kinds and is registered for each.
func (r *Registry) Register(hook Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := hook.(PreExecuteHook); ok {
		r.preExecute = sortByPriority(append(r.preExecute, h))
	}
	if h, ok := hook.(PostExecuteHook); ok {
		r.postExecute = sortByPriority(append(r.postExecute, h))
	}
	if h, ok := hook.(ValidationHook); ok {
		r.validation = sortByPriority(append(r.validation, h))
	}
	if h, ok := hook.(TransformHook); ok {
		r.transform = sortByPriority(append(r.transform, h))
	}
	if h, ok := hook.(ErrorHook); ok {
		r.errorHooks = sortByPriority(append(r.errorHooks, h))
	}

	return nil
}

// Unregister removes a hook by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.preExecute = removeByName(r.preExecute, name)
	r.postExecute = removeByName(r.postExecute, name)
	r.validation = removeByName(r.validation, name)
	r.transform = removeByName(r.transform, name)
	r.errorHooks = removeByName(r.errorHooks, name)
}

// RunPreExecute runs all pre-execute hooks.
func (r *Registry) RunPreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := cmd
	for _, hook := range r.preExecute {
		modified, err := hook.PreExecute(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
		current = modified
	}
	return current, nil
}

// RunPostExecute runs all post-execute hooks.
func (r *Registry) RunPostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, execErr error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.postExecute {
		if err := hook.PostExecute(ctx, cmd, result, execErr); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunValidation runs all validation hooks.
func (r *Registry) RunValidation(ctx context.Context, cmd *executor.Command) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.validation {
		if err := hook.Validate(ctx, cmd); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunTransform runs all transform hooks.
func (r *Registry) RunTransform(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := cmd
	for _, hook := range r.transform {
		modified, err := hook.Transform(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
		current = modified
	}
	return current, nil
}

// RunError runs all error hooks.
func (r *Registry) RunError(ctx context.Context, cmd *executor.Command, execErr error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.errorHooks {
		if err := hook.OnError(ctx, cmd, execErr); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// ExecutorHook exposes the registry through the executor's two
// extension points. Validation and transform hooks run in the
// pre-execute phase, error hooks in the post-execute phase.
func (r *Registry) ExecutorHook() executor.Hook {
	return &registryHook{registry: r}
}

type registryHook struct {
	registry *Registry
}

func (h *registryHook) PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	if err := h.registry.RunValidation(ctx, cmd); err != nil {
		return nil, err
	}
	cmd, err := h.registry.RunTransform(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return h.registry.RunPreExecute(ctx, cmd)
}

func (h *registryHook) PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, execErr error) error {
	if execErr != nil {
		if err := h.registry.RunError(ctx, cmd, execErr); err != nil {
			return err
		}
	}
	return h.registry.RunPostExecute(ctx, cmd, result, execErr)
}

func sortByPriority[T Hook](hooks []T) []T {
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority() < hooks[j].Priority()
	})
	return hooks
}

func removeByName[T Hook](hooks []T, name string) []T {
	result := make([]T, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

// LoggingHook logs each invocation through an injected printf-style
// function. Log lines carry the tool name, argument vector, and result
// fields; stdin payloads are never rendered.
type LoggingHook struct {
	logger func(format string, args ...interface{})
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logger func(format string, args ...interface{})) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) Name() string  { return "logging" }
func (h *LoggingHook) Priority() int { return 1000 }

func (h *LoggingHook) PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	h.logger("invoking %s: %s", cmd.Tool, cmd.String())
	return cmd, nil
}

func (h *LoggingHook) PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, err error) error {
	switch {
	case err != nil:
		h.logger("%s failed: %v", cmd.Tool, err)
	case result.DryRun:
		h.logger("%s dry run: %s", cmd.Tool, result.Rendered)
	default:
		h.logger("%s completed: status=%s exit=%d duration=%v",
			cmd.Tool, result.Status, result.ExitCode, result.Duration)
	}
	return nil
}
