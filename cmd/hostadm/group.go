package main

import (
	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/ops"
)

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage local groups",
	}
	cmd.AddCommand(groupAddCmd())
	cmd.AddCommand(groupModCmd())
	cmd.AddCommand(groupDelCmd())
	cmd.AddCommand(groupInfoCmd())
	return cmd
}

func groupAddCmd() *cobra.Command {
	op := &ops.GroupAdd{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "group "+op.Name+" created")
		},
	}
	cmd.Flags().StringVar(&op.GID, "gid", "", "numeric group id")
	cmd.Flags().BoolVar(&op.System, "system", false, "create a system group")
	return cmd
}

func groupModCmd() *cobra.Command {
	op := &ops.GroupMod{}
	cmd := &cobra.Command{
		Use:   "mod <name>",
		Short: "Modify a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "group "+op.Name+" modified")
		},
	}
	cmd.Flags().StringVar(&op.NewName, "new-name", "", "rename the group")
	cmd.Flags().StringVar(&op.GID, "gid", "", "new numeric group id")
	return cmd
}

func groupDelCmd() *cobra.Command {
	op := &ops.GroupDel{}
	cmd := &cobra.Command{
		Use:   "del <name>",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "group "+op.Name+" deleted")
		},
	}
	cmd.Flags().BoolVarP(&op.Force, "force", "f", false, "delete even when it is a user's primary group")
	return cmd
}

func groupInfoCmd() *cobra.Command {
	op := &ops.GroupInfo{}
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show a group entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "")
		},
	}
}

func memberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage group membership",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <user> <group>",
		Short: "Add a user to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := &ops.MemberAdd{User: args[0], Group: args[1]}
			return runOp(cmd, op, "added "+op.User+" to "+op.Group)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <user> <group>",
		Short: "Remove a user from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := &ops.MemberRemove{User: args[0], Group: args[1]}
			return runOp(cmd, op, "removed "+op.User+" from "+op.Group)
		},
	})

	return cmd
}
