// Package ops defines the administrative operations hostadm performs
// and plans each one into wrapped-tool commands.
//
// An Operation validates its inputs against the shared grammars, then
// plans the exact argument vectors that carry the action out. A Runner
// drives those vectors through an Executor in plan order and refines
// raw tool exit codes into the shared error taxonomy. Operations never
// execute anything themselves, so a plan can be rendered, audited, or
// dry-run without touching the system.
package ops

import (
	"context"
	"errors"
	"fmt"

	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/validation"
)

// Metadata keys planned commands carry so audit events and exit-code
// classification can trace a command back to its operation.
const (
	metaOperation = "operation"
	metaTarget    = "target"
	metaGroup     = "group"
	metaNewName   = "new_name"
)

// Operation is one administrative action. Implementations validate
// their own inputs and plan the wrapped-tool commands in execution
// order; they never run anything themselves.
type Operation interface {
	// Op returns the operation key, such as "user.add".
	Op() string

	// Validate checks every input against the shared grammars before
	// any planning happens.
	Validate() error

	// Plan resolves tool paths through the catalog and produces the
	// commands to run, in order.
	Plan(cat *catalog.Catalog) ([]*executor.Command, error)

	isOperation()
}

// operation seals the interface so every implementation lives in this
// package and carries the Validate-before-Plan contract.
type operation struct{}

func (operation) isOperation() {}

// Runner validates, plans, and executes operations.
type Runner struct {
	Catalog *catalog.Catalog
	Exec    executor.Executor
}

// NewRunner creates a runner over the given catalog and executor.
func NewRunner(cat *catalog.Catalog, exec executor.Executor) *Runner {
	return &Runner{Catalog: cat, Exec: exec}
}

// Apply runs one operation end to end. Planned commands execute in
// order and the run stops at the first failure; results collected up
// to that point are returned alongside the classified error.
func (r *Runner) Apply(ctx context.Context, op Operation) ([]*executor.Result, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	cmds, err := op.Plan(r.Catalog)
	if err != nil {
		return nil, err
	}

	results := make([]*executor.Result, 0, len(cmds))
	for _, cmd := range cmds {
		result, execErr := r.Exec.Execute(ctx, cmd)
		if result != nil {
			results = append(results, result)
		}
		if err := Classify(cmd, execErr); err != nil {
			return results, err
		}
	}
	return results, nil
}

// ApplyAll runs operations in sequence. With keepGoing set, each
// failure is recorded under its operation key and the rest of the
// batch still runs; otherwise the first failure stops the batch.
func (r *Runner) ApplyAll(ctx context.Context, ops []Operation, keepGoing bool) ([]*executor.Result, error) {
	var all []*executor.Result
	var errs []error

	for _, op := range ops {
		results, err := r.Apply(ctx, op)
		all = append(all, results...)
		if err == nil {
			continue
		}
		if !keepGoing {
			return all, fmt.Errorf("%s: %w", op.Op(), err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", op.Op(), err))
	}
	return all, errors.Join(errs...)
}

// nameOrID validates a reference the wrapped tools accept as either a
// name or a numeric ID.
func nameOrID(field, raw string) error {
	if raw != "" && allDigits(raw) {
		_, err := validation.Numeric(field, raw)
		return err
	}
	_, err := validation.Identifier(field, raw)
	return err
}

func allDigits(raw string) bool {
	for _, r := range raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// planOne adapts a single built command to the Plan return shape.
func planOne(cmd *executor.Command, err error) ([]*executor.Command, error) {
	if err != nil {
		return nil, err
	}
	return []*executor.Command{cmd}, nil
}
