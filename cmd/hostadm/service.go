package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/ops"
)

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage systemd services",
	}

	verbs := []struct {
		use   string
		short string
		build func(unit string) ops.Operation
		done  string
	}{
		{"start", "Start a unit", func(u string) ops.Operation { return &ops.ServiceStart{Unit: u} }, "%s started"},
		{"stop", "Stop a unit", func(u string) ops.Operation { return &ops.ServiceStop{Unit: u} }, "%s stopped"},
		{"restart", "Restart a unit", func(u string) ops.Operation { return &ops.ServiceRestart{Unit: u} }, "%s restarted"},
		{"enable", "Enable a unit at boot", func(u string) ops.Operation { return &ops.ServiceEnable{Unit: u} }, "%s enabled"},
		{"disable", "Disable a unit at boot", func(u string) ops.Operation { return &ops.ServiceDisable{Unit: u} }, "%s disabled"},
		{"status", "Show a unit's status", func(u string) ops.Operation { return &ops.ServiceStatus{Unit: u} }, ""},
	}

	for _, verb := range verbs {
		verb := verb
		cmd.AddCommand(&cobra.Command{
			Use:   verb.use + " <unit>",
			Short: verb.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				done := ""
				if verb.done != "" {
					done = fmt.Sprintf(verb.done, args[0])
				}
				return runOp(cmd, verb.build(args[0]), done)
			},
		})
	}

	return cmd
}
