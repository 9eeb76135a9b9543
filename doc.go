// Package hostadm administers Linux hosts by driving the system's own
// tools (useradd, gpasswd, smbpasswd, setfacl, ufw, systemctl, ...)
// through one validated, privilege-aware, audited execution pipeline.
//
// # Key Features
//
//   - Single execution abstraction with per-tool timeouts and cancellation
//   - Closed tool catalog: only cataloged binaries at allowlisted paths run
//   - Strict input validation before anything reaches an argument vector
//   - Passwords cross into tools over stdin only, never argv or environment
//   - Automatic sudo escalation when the process is not root
//   - Exit-code refinement into a typed error taxonomy per wrapped tool
//   - Append-only JSON audit log and OpenTelemetry instrumentation
//
// # Basic Usage
//
//	exec, err := hostadm.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Shutdown(context.Background())
//
//	runner := hostadm.NewRunner(hostadm.NewCatalog(), exec)
//	results, err := runner.Apply(ctx, &ops.UserAdd{
//	    Name:       "alice",
//	    Group:      "staff",
//	    CreateHome: true,
//	})
//
// # Security Model
//
// Commands are built argument vectors resolved through the tool
// catalog; there is no shell anywhere in the pipeline. Every parameter
// is validated against a closed grammar before it can become an
// argument, and credential bytes live in a dedicated secret type that
// redacts itself on every formatting path.
//
// # File I/O
//
// All file operations use github.com/victoralfred/gowritter/safepath
// for secure path handling. Direct use of os.ReadFile, os.WriteFile,
// os.Open, os.Create, or io/ioutil is prohibited within this library.
//
// # Package Structure
//
//   - hostadm: Main entry point and convenience functions
//   - executor: Core Executor interface and pipeline
//   - catalog: Tool name to binary path resolution with YAML overrides
//   - ops: Typed administration operations and the plan runner
//   - validation: Input grammars (identifiers, paths, numerics, ACLs)
//   - secret: Credential values and stdin payloads
//   - privilege: Root/sudo/denied resolution
//   - resilience: Per-tool rate limiting
//   - observability: Audit log, metrics, OpenTelemetry bridge
//   - hooks: Extension points around execution
//   - config: Configuration management
//   - cmd/hostadm: The command-line interface
package hostadm
