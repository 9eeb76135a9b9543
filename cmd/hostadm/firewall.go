package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/ops"
)

func firewallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firewall",
		Short: "Manage the host firewall",
		Long: `Drives whichever firewall frontend the host runs. By default ufw,
firewall-cmd, and iptables are probed in that order; --frontend forces
one.`,
	}
	cmd.AddCommand(firewallStatusCmd())
	cmd.AddCommand(firewallPortCmd("allow", "Open a port"))
	cmd.AddCommand(firewallPortCmd("deny", "Close a port"))
	return cmd
}

// parseFrontend maps the --frontend flag to a frontend kind. Empty
// selects detection at plan time.
func parseFrontend(name string) (ops.Firewall, error) {
	switch name {
	case "":
		return ops.Firewall{}, nil
	case "ufw":
		return ops.Firewall{Kind: ops.FirewallUFW}, nil
	case "firewalld":
		return ops.Firewall{Kind: ops.FirewallFirewalld}, nil
	case "iptables":
		return ops.Firewall{Kind: ops.FirewallIptables}, nil
	default:
		return ops.Firewall{}, fmt.Errorf("unknown firewall frontend %q (valid options: ufw, firewalld, iptables)", name)
	}
}

func firewallStatusCmd() *cobra.Command {
	var frontend string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the firewall status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := parseFrontend(frontend)
			if err != nil {
				return err
			}
			return runOp(cmd, &ops.FirewallStatus{Firewall: fw}, "")
		},
	}
	cmd.Flags().StringVar(&frontend, "frontend", "", "force a frontend (ufw, firewalld, iptables)")
	return cmd
}

func firewallPortCmd(action, short string) *cobra.Command {
	var (
		frontend string
		proto    string
	)
	cmd := &cobra.Command{
		Use:   action + " <port>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fw, err := parseFrontend(frontend)
			if err != nil {
				return err
			}

			var op ops.Operation
			if action == "allow" {
				op = &ops.AllowPort{Firewall: fw, Port: args[0], Proto: proto}
			} else {
				op = &ops.DenyPort{Firewall: fw, Port: args[0], Proto: proto}
			}

			shown := proto
			if shown == "" {
				shown = "tcp"
			}
			verb := "allowed"
			if action == "deny" {
				verb = "denied"
			}
			return runOp(cmd, op, fmt.Sprintf("port %s/%s %s", args[0], shown, verb))
		},
	}
	cmd.Flags().StringVar(&proto, "proto", "", "protocol (tcp, udp; default tcp)")
	cmd.Flags().StringVar(&frontend, "frontend", "", "force a frontend (ufw, firewalld, iptables)")
	return cmd
}
