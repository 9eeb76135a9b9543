package hostadm

import (
	"context"
	"path/filepath"

	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/ops"
	"github.com/victoralfred/hostadm/secret"
	"github.com/victoralfred/hostadm/validation"
)

// =============================================================================
// Core Types
// =============================================================================

// Executor is the primary interface for wrapped-tool invocation.
// All command execution MUST go through this interface so that
// validation, privilege resolution, rate limiting, and auditing are
// applied consistently.
type Executor = executor.Executor

// Command is one built tool invocation. Use Cmd() to create commands.
type Command = executor.Command

// Result contains the outcome of one invocation.
type Result = executor.Result

// ExitStatus classifies an invocation outcome.
type ExitStatus = executor.ExitStatus

// Builder creates configured Executor instances.
type Builder = executor.Builder

// CommandBuilder assembles commands with a fluent interface.
type CommandBuilder = executor.CommandBuilder

// Catalog resolves tool names to allowlisted binary paths.
type Catalog = catalog.Catalog

// CatalogLoader loads catalog overrides from a YAML file.
type CatalogLoader = catalog.Loader

// Operation is one typed administration request.
type Operation = ops.Operation

// Runner validates, plans, and executes operations.
type Runner = ops.Runner

// Secret holds credential bytes that only ever leave over a child's
// standard input.
type Secret = secret.Value

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrToolUnavailable indicates the tool's binary is missing or not
	// executable.
	ErrToolUnavailable = executor.ErrToolUnavailable

	// ErrPermissionDenied indicates no privilege path to run the tool.
	ErrPermissionDenied = executor.ErrPermissionDenied

	// ErrTargetNotFound indicates the user, group, unit, or path being
	// operated on does not exist.
	ErrTargetNotFound = executor.ErrTargetNotFound

	// ErrTargetAlreadyExists indicates a create collided with an
	// existing entity.
	ErrTargetAlreadyExists = executor.ErrTargetAlreadyExists

	// ErrExecutionFailed indicates the tool ran and exited non-zero.
	ErrExecutionFailed = executor.ErrExecutionFailed

	// ErrTimeout indicates execution exceeded the timeout.
	ErrTimeout = executor.ErrTimeout

	// ErrRateLimited indicates the per-tool rate limit was exceeded.
	ErrRateLimited = executor.ErrRateLimited

	// ErrInvalidCommand indicates an invalid command configuration.
	ErrInvalidCommand = executor.ErrInvalidCommand

	// ErrExecutorShutdown indicates the executor has been shut down.
	ErrExecutorShutdown = executor.ErrExecutorShutdown

	// ErrUnknownTool indicates a tool name with no catalog entry.
	ErrUnknownTool = catalog.ErrUnknownTool
)

// =============================================================================
// Status Constants
// =============================================================================

// Invocation status values.
const (
	StatusSuccess     = executor.StatusSuccess
	StatusError       = executor.StatusError
	StatusTimeout     = executor.StatusTimeout
	StatusCanceled    = executor.StatusCanceled
	StatusKilled      = executor.StatusKilled
	StatusDenied      = executor.StatusDenied
	StatusRateLimited = executor.StatusRateLimited
	StatusDryRun      = executor.StatusDryRun
)

// =============================================================================
// Factory Functions
// =============================================================================

// New creates an Executor with the default tool catalog and settings.
// This is the simplest way to get started with hostadm.
//
// For production use, consider NewBuilder to configure privilege
// resolution, rate limiting, auditing, and telemetry.
func New() (Executor, error) {
	return executor.NewBuilder().
		WithCatalog(catalog.NewCatalog()).
		Build()
}

// NewBuilder creates an executor builder.
//
// Example:
//
//	exec, err := hostadm.NewBuilder().
//	    WithCatalog(cat).
//	    WithDefaultTimeout(30 * time.Second).
//	    Build()
func NewBuilder() *Builder {
	return executor.NewBuilder()
}

// NewCatalog creates a tool catalog with the default tool table.
func NewCatalog() *Catalog {
	return catalog.NewCatalog()
}

// NewRunner creates an operation runner over a catalog and executor.
func NewRunner(cat *Catalog, exec Executor) *Runner {
	return ops.NewRunner(cat, exec)
}

// =============================================================================
// Command Construction
// =============================================================================

// Cmd creates a CommandBuilder for the named tool at the given binary
// path. Call Build() on the returned builder to get the final Command.
//
// Example:
//
//	cmd, err := hostadm.Cmd("getent", "/usr/bin/getent").
//	    Arg("passwd").
//	    Arg("alice").
//	    Build()
func Cmd(tool, binary string) *CommandBuilder {
	return executor.NewCommand(tool, binary)
}

// NewSecret wraps credential bytes in a Secret. It takes ownership of
// b; the caller must not retain or reuse the slice.
func NewSecret(b []byte) *Secret {
	return secret.New(b)
}

// SecretFromString copies a string into a Secret. Prefer NewSecret
// with a byte slice where possible, since the source string cannot be
// wiped.
func SecretFromString(s string) *Secret {
	return secret.FromString(s)
}

// =============================================================================
// Catalog Loading
// =============================================================================

// LoadCatalog creates a loader for a site catalog override file.
// The basePath is the directory containing the file; catalogFile is
// its name relative to basePath.
//
// Example tools.yaml:
//
//	version: "1"
//	tools:
//	  useradd: /usr/local/sbin/useradd
//	  smbpasswd: /opt/samba/bin/smbpasswd
//
// Example:
//
//	loader, err := hostadm.LoadCatalog("/etc/hostadm", "tools.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cat, err := loader.Load(ctx)
func LoadCatalog(basePath, catalogFile string, opts ...catalog.LoaderOption) (*CatalogLoader, error) {
	return catalog.NewLoader(basePath, catalogFile, opts...)
}

// LoadCatalogFromPath creates a loader from a full file path.
func LoadCatalogFromPath(path string) (*CatalogLoader, error) {
	return catalog.NewLoader(filepath.Dir(path), filepath.Base(path))
}

// =============================================================================
// Validation
// =============================================================================

// ValidateIdentifier checks a user, group, unit, or tool name against
// the identifier grammar.
func ValidateIdentifier(field, raw string) (string, error) {
	return validation.Identifier(field, raw)
}

// ValidatePath checks an absolute filesystem path parameter.
func ValidatePath(field, raw string) (string, error) {
	return validation.Path(field, raw)
}

// ValidateNumeric checks a numeric parameter such as a uid or port.
func ValidateNumeric(field, raw string) (string, error) {
	return validation.Numeric(field, raw)
}

// ValidateACLEntry parses and checks one ACL entry such as
// "user:alice:rwx".
func ValidateACLEntry(field, raw string) (validation.Entry, error) {
	return validation.ACLEntry(field, raw)
}

// =============================================================================
// Convenience Functions
// =============================================================================

// Apply is a convenience function for one-off operation execution.
// For repeated use, build an Executor and Runner once instead.
//
// Example:
//
//	results, err := hostadm.Apply(ctx, &ops.ServiceRestart{Unit: "smbd"})
func Apply(ctx context.Context, op Operation) ([]*Result, error) {
	exec, err := New()
	if err != nil {
		return nil, err
	}
	defer func() {
		// Shutdown errors do not affect the operation outcome.
		_ = exec.Shutdown(context.Background())
	}()

	return ops.NewRunner(catalog.NewCatalog(), exec).Apply(ctx, op)
}

// =============================================================================
// Version Information
// =============================================================================

// Version returns the library version.
func Version() string {
	return "1.0.0"
}
