package main

import (
	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/internal/cliout"
)

func versionCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			}{Name: "hostadm", Version: version}

			return cliout.Print(info, func() {
				if quiet {
					cliout.Plain("%s", version)
					return
				}
				cliout.Plain("hostadm %s", version)
			})
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the version number")
	return cmd
}
