// Package executor provides the core command execution abstraction.
package executor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/victoralfred/hostadm/secret"
)

// Command represents one wrapped-tool invocation.
// Commands are immutable once built: an ordered argument vector plus
// the execution knobs the pipeline needs. No token is ever re-parsed
// by a shell.
type Command struct {
	// Tool is the catalog name of the wrapped tool ("useradd",
	// "smbpasswd", ...). Used for existence probing, rate limiting
	// and audit.
	Tool string

	// Binary is the absolute path to the executable.
	Binary string

	// Args are the command arguments (excluding the binary name).
	Args []string

	// Env holds environment overrides for the command. The minimal
	// safe environment is always the base; overrides pass the
	// environment guard first.
	Env map[string]string

	// Timeout is the maximum execution time. If zero, the executor's
	// default applies. Ignored for interactive commands.
	Timeout time.Duration

	// Stdin is the one-shot secret payload delivered on standard
	// input, or nil.
	Stdin *secret.Source

	// Interactive connects the child to the calling terminal so the
	// wrapped tool can prompt. Mutually exclusive with Stdin.
	Interactive bool

	// Metadata contains arbitrary key-value pairs for tracing and
	// audit ("op", "target", ...). Never fed to the child.
	Metadata map[string]string
}

// CommandBuilder provides a fluent API for constructing commands.
// The first error latches; later calls are no-ops and Build reports
// it.
type CommandBuilder struct {
	cmd *Command
	err error
}

// NewCommand creates a builder for one invocation of a wrapped tool.
// Binary must be the absolute path the catalog resolved for tool.
func NewCommand(tool, binary string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &Command{
			Tool:     tool,
			Binary:   binary,
			Env:      make(map[string]string),
			Metadata: make(map[string]string),
		},
	}
}

// Arg appends one validated value as exactly one argument token.
func (b *CommandBuilder) Arg(value string) *CommandBuilder {
	if b.err != nil {
		return b
	}
	if err := checkToken(value); err != nil {
		b.err = err
		return b
	}
	b.cmd.Args = append(b.cmd.Args, value)
	return b
}

// Flag appends a static flag token ("-m", "--system").
func (b *CommandBuilder) Flag(flag string) *CommandBuilder {
	return b.Arg(flag)
}

// FlagIf appends a static flag token only when cond holds.
func (b *CommandBuilder) FlagIf(cond bool, flag string) *CommandBuilder {
	if !cond {
		return b
	}
	return b.Arg(flag)
}

// Option appends a flag and its validated value as two discrete
// tokens.
func (b *CommandBuilder) Option(flag, value string) *CommandBuilder {
	return b.Arg(flag).Arg(value)
}

// WithEnv adds an environment override.
func (b *CommandBuilder) WithEnv(key, value string) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Env[key] = value
	return b
}

// WithTimeout sets the execution timeout.
func (b *CommandBuilder) WithTimeout(timeout time.Duration) *CommandBuilder {
	if b.err != nil {
		return b
	}
	if timeout <= 0 {
		b.err = fmt.Errorf("%w: timeout must be positive", ErrInvalidCommand)
		return b
	}
	b.cmd.Timeout = timeout
	return b
}

// WithStdin attaches a one-shot secret payload as the child's
// standard input.
func (b *CommandBuilder) WithStdin(src *secret.Source) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Stdin = src
	return b
}

// WithInteractive lets the wrapped tool prompt on the calling
// terminal.
func (b *CommandBuilder) WithInteractive() *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Interactive = true
	return b
}

// WithMetadata adds metadata for tracing and audit.
func (b *CommandBuilder) WithMetadata(key, value string) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Metadata[key] = value
	return b
}

// Build validates and returns the command.
func (b *CommandBuilder) Build() (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.cmd.Tool == "" {
		return nil, fmt.Errorf("%w: tool name is required", ErrInvalidCommand)
	}

	if b.cmd.Binary == "" {
		return nil, fmt.Errorf("%w: binary path is required", ErrInvalidCommand)
	}

	// Must be absolute path
	if !filepath.IsAbs(b.cmd.Binary) {
		return nil, fmt.Errorf("%w: binary must be an absolute path", ErrInvalidCommand)
	}

	if b.cmd.Interactive && b.cmd.Stdin != nil {
		return nil, fmt.Errorf("%w: interactive command cannot carry a stdin payload", ErrInvalidCommand)
	}

	return b.cmd, nil
}

// MustBuild validates and returns the command, panicking on error.
func (b *CommandBuilder) MustBuild() *Command {
	cmd, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cmd
}

// checkToken rejects bytes that could split an argument across token
// or line boundaries, whether or not the value passed a validator.
func checkToken(value string) error {
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case 0:
			return fmt.Errorf("%w: argument contains NUL byte", ErrInvalidCommand)
		case '\n', '\r':
			return fmt.Errorf("%w: argument contains a line break", ErrInvalidCommand)
		}
	}
	return nil
}

// Clone creates a copy of the command. The stdin payload is shared,
// not copied; a sealed source can only be consumed once.
func (c *Command) Clone() *Command {
	clone := &Command{
		Tool:        c.Tool,
		Binary:      c.Binary,
		Args:        make([]string, len(c.Args)),
		Env:         make(map[string]string, len(c.Env)),
		Timeout:     c.Timeout,
		Stdin:       c.Stdin,
		Interactive: c.Interactive,
		Metadata:    make(map[string]string, len(c.Metadata)),
	}

	copy(clone.Args, c.Args)

	for k, v := range c.Env {
		clone.Env[k] = v
	}

	for k, v := range c.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}

// String renders the argument vector for display and dry-run output.
// Secrets never enter the vector, so the rendering is always safe to
// show and log.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}
