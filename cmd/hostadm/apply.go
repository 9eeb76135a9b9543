package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/victoralfred/gowritter/safepath"

	"github.com/victoralfred/hostadm/internal/cliout"
	"github.com/victoralfred/hostadm/ops"
)

func applyCmd() *cobra.Command {
	var (
		planFile  string
		keepGoing bool
	)
	cmd := &cobra.Command{
		Use:   "apply -f <plan.yaml>",
		Short: "Apply a plan of operations from a YAML file",
		Long: `Applies a YAML list of operations in file order. Each entry names its
operation under the op key; the remaining keys are that operation's
parameters. Password operations are not plannable. The first failure
stops the run unless --keep-going is set. Supported operations:

  ` + strings.Join(ops.PlanOperations(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPlanFile(planFile)
			if err != nil {
				return err
			}

			parsed, err := ops.ParsePlan(data)
			if err != nil {
				return err
			}
			if len(parsed) == 0 {
				return fmt.Errorf("plan %s contains no operations", planFile)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.runner.ApplyAll(cmd.Context(), parsed, keepGoing)
			renderResults(results)
			if err != nil {
				return err
			}

			if !cliout.IsJSON() {
				if dryRun {
					cliout.Plain("planned %d operations", len(parsed))
				} else {
					cliout.Success("applied %d operations", len(parsed))
				}
			}
			if verbose {
				logSummary(a.metrics.Snapshot())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&planFile, "file", "f", "", "plan file to apply")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue past failed operations")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readPlanFile(path string) ([]byte, error) {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	sp, err := safepath.New(filepath.Clean(dir))
	if err != nil {
		return nil, fmt.Errorf("opening plan directory: %w", err)
	}
	data, err := sp.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return data, nil
}
