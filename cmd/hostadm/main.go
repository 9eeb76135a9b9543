// Command hostadm administers local accounts, Samba, ACLs, the
// firewall, and services by driving the host's own tools through an
// audited, privilege-aware pipeline.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/internal/cliout"
)

var (
	// version is stamped at build time with -ldflags "-X main.version=...".
	version = "1.0.0"

	// Persistent flags, shared by every subcommand.
	cfgFile      string
	dryRun       bool
	verbose      bool
	outputFormat string
	noColor      bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hostadm",
		Short: "Administer users, groups, Samba, ACLs, firewall, and services",
		Long: `hostadm wraps the host's own administration tools (useradd, gpasswd,
smbpasswd, setfacl, ufw, systemctl, ...) behind one validated,
privilege-aware, audited command tree. Commands never pass through a
shell: every invocation is a built argument vector, and passwords
reach tools only over stdin.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				cliout.NoColor()
			}
			return cliout.SetFormat(outputFormat)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to hostadm.yaml (default: built-in configuration)")
	root.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "render commands without executing them")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace the execution pipeline")
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "default", "output format (default, json)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")

	root.AddCommand(userCmd())
	root.AddCommand(groupCmd())
	root.AddCommand(memberCmd())
	root.AddCommand(sambaCmd())
	root.AddCommand(aclCmd())
	root.AddCommand(firewallCmd())
	root.AddCommand(serviceCmd())
	root.AddCommand(applyCmd())
	root.AddCommand(auditCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
