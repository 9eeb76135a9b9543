package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/ops"
)

func sambaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samba",
		Short: "Manage Samba accounts and configuration",
	}
	cmd.AddCommand(sambaAddCmd())
	cmd.AddCommand(sambaFlagCmd("enable", "Enable a Samba account", func(user string) ops.Operation {
		return &ops.SambaUserEnable{User: user}
	}, "samba account %s enabled"))
	cmd.AddCommand(sambaFlagCmd("disable", "Disable a Samba account", func(user string) ops.Operation {
		return &ops.SambaUserDisable{User: user}
	}, "samba account %s disabled"))
	cmd.AddCommand(sambaFlagCmd("delete", "Delete a Samba account", func(user string) ops.Operation {
		return &ops.SambaUserDelete{User: user}
	}, "samba account %s deleted"))
	cmd.AddCommand(sambaPasswdCmd())
	cmd.AddCommand(sambaListCmd())
	cmd.AddCommand(sambaCheckCmd())
	return cmd
}

func sambaAddCmd() *cobra.Command {
	var pw passwordInput
	cmd := &cobra.Command{
		Use:   "add <user>",
		Short: "Add a Samba account for an existing local user",
		Long: `Adds the user to the Samba password database. With --password or
--password-stdin the password is fed to smbpasswd over stdin;
otherwise smbpasswd prompts on the terminal itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := pw.readOptional()
			if err != nil {
				return err
			}
			op := &ops.SambaUserAdd{User: args[0], Password: value}
			return runOp(cmd, op, "samba account "+op.User+" added")
		},
	}
	pw.register(cmd)
	return cmd
}

// sambaFlagCmd builds the enable/disable/delete commands, which differ
// only in the operation they plan.
func sambaFlagCmd(use, short string, build func(user string) ops.Operation, doneFormat string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, build(args[0]), fmt.Sprintf(doneFormat, args[0]))
		},
	}
}

func sambaPasswdCmd() *cobra.Command {
	var pw passwordInput
	cmd := &cobra.Command{
		Use:   "passwd <user>",
		Short: "Set a Samba account password",
		Long: `Changes the Samba password. With --password or --password-stdin the
value is fed to smbpasswd over stdin; otherwise smbpasswd prompts on
the terminal itself, confirmation included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := pw.readOptional()
			if err != nil {
				return err
			}
			op := &ops.SambaSetPassword{User: args[0], Password: value}
			return runOp(cmd, op, "samba password for "+op.User+" updated")
		},
	}
	pw.register(cmd)
	return cmd
}

func sambaListCmd() *cobra.Command {
	op := &ops.SambaList{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Samba accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, op, "")
		},
	}
	cmd.Flags().BoolVarP(&op.Verbose, "long", "l", false, "show full account details")
	return cmd
}

func sambaCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the Samba configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, &ops.SambaCheckConfig{}, "samba configuration is valid")
		},
	}
}
