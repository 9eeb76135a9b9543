package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/victoralfred/hostadm/secret"
)

// passwordInput collects a password from --password, --password-stdin,
// or an interactive terminal prompt. The collected value crosses into
// the child process only over stdin.
type passwordInput struct {
	value string
	stdin bool
}

func (p *passwordInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.value, "password", "", "password value (lands in shell history; prefer --password-stdin)")
	cmd.Flags().BoolVar(&p.stdin, "password-stdin", false, "read the password from standard input")
}

// read produces the secret, falling back to an interactive prompt.
// confirm re-prompts and requires both entries to match.
func (p *passwordInput) read(user string, confirm bool) (*secret.Value, error) {
	if p.given() {
		return p.fromFlags()
	}
	return promptPassword(user, confirm)
}

// readOptional produces the secret from flags only. It returns nil
// when no flag was given, for operations whose tool runs its own
// terminal prompt.
func (p *passwordInput) readOptional() (*secret.Value, error) {
	if !p.given() {
		return nil, nil
	}
	return p.fromFlags()
}

func (p *passwordInput) given() bool {
	return p.value != "" || p.stdin
}

func (p *passwordInput) fromFlags() (*secret.Value, error) {
	if p.value != "" {
		return secret.FromString(p.value), nil
	}
	return readPasswordStdin()
}

func readPasswordStdin() (*secret.Value, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading password from stdin: %w", err)
	}
	trimmed := strings.TrimRight(string(data), "\r\n")
	for i := range data {
		data[i] = 0
	}
	if trimmed == "" {
		return nil, fmt.Errorf("empty password on stdin")
	}
	return secret.FromString(trimmed), nil
}

func promptPassword(user string, confirm bool) (*secret.Value, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("standard input is not a terminal; use --password-stdin")
	}

	fmt.Fprintf(os.Stderr, "New password for %s: ", user)
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("empty password")
	}

	if confirm {
		fmt.Fprintf(os.Stderr, "Retype password for %s: ", user)
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			wipeBytes(first)
			return nil, fmt.Errorf("reading password: %w", err)
		}
		match := bytes.Equal(first, second)
		wipeBytes(second)
		if !match {
			wipeBytes(first)
			return nil, fmt.Errorf("passwords do not match")
		}
	}

	return secret.New(first), nil
}

func wipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
