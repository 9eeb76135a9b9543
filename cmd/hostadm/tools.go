package main

import (
	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/internal/cliout"
)

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show the wrapped tool catalog and availability",
		Long: `Lists every tool hostadm can drive, the binary path the catalog
resolves it to (site overrides applied), and whether that binary is
present and executable on this host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			type toolView struct {
				Name      string `json:"name"`
				Path      string `json:"path"`
				Available bool   `json:"available"`
			}
			tools := cat.Tools()
			views := make([]toolView, 0, len(tools))
			missing := 0
			for _, tool := range tools {
				available := cat.Available(tool.Name)
				if !available {
					missing++
				}
				views = append(views, toolView{Name: tool.Name, Path: tool.Path, Available: available})
			}

			return cliout.Print(views, func() {
				rows := make([]cliout.TableRow, 0, len(views))
				for _, view := range views {
					state := "available"
					if !view.Available {
						state = "missing"
					}
					rows = append(rows, cliout.TableRow{"TOOL": view.Name, "PATH": view.Path, "STATE": state})
				}
				cliout.Table([]string{"TOOL", "PATH", "STATE"}, rows)
				if missing > 0 {
					cliout.Warning("%d of %d tools missing", missing, len(views))
				} else {
					cliout.Success("all %d tools available", len(views))
				}
			})
		},
	}
}
