package main

import (
	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/ops"
)

func aclCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acl",
		Short: "Manage POSIX ACLs",
	}
	cmd.AddCommand(aclGetCmd())
	cmd.AddCommand(aclSetCmd())
	cmd.AddCommand(aclClearCmd())
	return cmd
}

func aclGetCmd() *cobra.Command {
	op := &ops.ACLGet{}
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Show the ACL of a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Path = args[0]
			return runOp(cmd, op, "")
		},
	}
}

func aclSetCmd() *cobra.Command {
	op := &ops.ACLSet{}
	cmd := &cobra.Command{
		Use:   "set <path>",
		Short: "Add or modify ACL entries",
		Long: `Applies ACL entries of the form qualifier:name:perms, for example
user:alice:rwx or group:devs:r-x. A d: prefix or --default makes an
entry a default entry on a directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Path = args[0]
			return runOp(cmd, op, "acl updated on "+op.Path)
		},
	}
	cmd.Flags().StringArrayVarP(&op.Entries, "modify", "m", nil, "ACL entry to apply (repeatable)")
	cmd.Flags().BoolVarP(&op.Recursive, "recursive", "R", false, "apply to all files and directories beneath the path")
	cmd.Flags().BoolVarP(&op.Default, "default", "d", false, "apply the entries as default entries")
	return cmd
}

func aclClearCmd() *cobra.Command {
	op := &ops.ACLClear{}
	cmd := &cobra.Command{
		Use:   "clear <path>",
		Short: "Remove all extended ACL entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Path = args[0]
			return runOp(cmd, op, "acl cleared on "+op.Path)
		},
	}
	cmd.Flags().BoolVarP(&op.Recursive, "recursive", "R", false, "clear all files and directories beneath the path")
	return cmd
}
