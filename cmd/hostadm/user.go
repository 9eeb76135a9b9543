package main

import (
	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/ops"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local user accounts",
	}
	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userModCmd())
	cmd.AddCommand(userDelCmd())
	cmd.AddCommand(userPasswdCmd())
	cmd.AddCommand(userInfoCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	op := &ops.UserAdd{}
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "user "+op.Name+" created")
		},
	}
	cmd.Flags().StringVar(&op.UID, "uid", "", "numeric user id")
	cmd.Flags().StringVarP(&op.Group, "group", "g", "", "primary group (name or gid)")
	cmd.Flags().StringSliceVarP(&op.Groups, "groups", "G", nil, "supplementary groups")
	cmd.Flags().StringVar(&op.Home, "home", "", "home directory path")
	cmd.Flags().StringVar(&op.Shell, "shell", "", "login shell path")
	cmd.Flags().StringVarP(&op.Comment, "comment", "c", "", "GECOS comment")
	cmd.Flags().BoolVarP(&op.CreateHome, "create-home", "m", false, "create the home directory")
	cmd.Flags().BoolVar(&op.System, "system", false, "create a system account")
	return cmd
}

func userModCmd() *cobra.Command {
	op := &ops.UserMod{}
	cmd := &cobra.Command{
		Use:   "mod <name>",
		Short: "Modify a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "user "+op.Name+" modified")
		},
	}
	cmd.Flags().StringVar(&op.NewName, "new-name", "", "rename the account")
	cmd.Flags().StringVar(&op.UID, "uid", "", "new numeric user id")
	cmd.Flags().StringVarP(&op.Group, "group", "g", "", "new primary group (name or gid)")
	cmd.Flags().StringSliceVarP(&op.Groups, "groups", "G", nil, "replacement supplementary groups")
	cmd.Flags().BoolVarP(&op.Append, "append", "a", false, "append to supplementary groups instead of replacing")
	cmd.Flags().StringVar(&op.Home, "home", "", "new home directory path")
	cmd.Flags().BoolVar(&op.MoveHome, "move-home", false, "move the contents of the old home directory")
	cmd.Flags().StringVar(&op.Shell, "shell", "", "new login shell path")
	cmd.Flags().StringVarP(&op.Comment, "comment", "c", "", "new GECOS comment")
	return cmd
}

func userDelCmd() *cobra.Command {
	op := &ops.UserDel{}
	cmd := &cobra.Command{
		Use:   "del <name>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "user "+op.Name+" deleted")
		},
	}
	cmd.Flags().BoolVar(&op.RemoveHome, "remove-home", false, "remove the home directory and mail spool")
	cmd.Flags().BoolVarP(&op.Force, "force", "f", false, "delete even while the user is logged in")
	return cmd
}

func userPasswdCmd() *cobra.Command {
	var pw passwordInput
	cmd := &cobra.Command{
		Use:   "passwd <name>",
		Short: "Set a user's password",
		Long: `Sets the password through chpasswd. The password is read from
--password-stdin, --password, or an interactive prompt with
confirmation; it reaches chpasswd only over its standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := pw.read(args[0], true)
			if err != nil {
				return err
			}
			op := &ops.SetPassword{Name: args[0], Password: value}
			return runOp(cmd, op, "password for "+op.Name+" updated")
		},
	}
	pw.register(cmd)
	return cmd
}

func userInfoCmd() *cobra.Command {
	op := &ops.UserInfo{}
	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Show a user's passwd entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op.Name = args[0]
			return runOp(cmd, op, "")
		},
	}
	cmd.Flags().BoolVar(&op.Domain, "domain", false, "query winbind instead of the local passwd database")
	return cmd
}
