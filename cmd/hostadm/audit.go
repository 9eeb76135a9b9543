package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/internal/cliout"
	"github.com/victoralfred/hostadm/observability"
)

func auditCmd() *cobra.Command {
	var (
		tool      string
		status    string
		eventType string
		since     time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit log",
		Long: `Queries the append-only audit log. Every invocation is recorded with
its tool, argument vector, privilege mode, outcome, and duration;
password payloads appear only as a redaction marker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger, err := observability.NewFileAuditLogger(cfg.Audit)
			if err != nil {
				return err
			}
			defer logger.Close()

			filter := &observability.AuditFilter{
				Tool:   tool,
				Status: status,
				Type:   observability.AuditEventType(eventType),
				Limit:  limit,
			}
			if since > 0 {
				filter.StartTime = time.Now().Add(-since)
			}

			events, err := logger.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}

			return cliout.Print(events, func() {
				if len(events) == 0 {
					cliout.Info("no matching audit events")
					return
				}
				rows := make([]cliout.TableRow, 0, len(events))
				for _, event := range events {
					rows = append(rows, cliout.TableRow{
						"TIME":   event.Timestamp.Format("2006-01-02 15:04:05"),
						"TOOL":   event.Tool,
						"USER":   event.User,
						"MODE":   event.Privilege,
						"STATUS": event.Status,
						"EXIT":   strconv.Itoa(event.ExitCode),
					})
				}
				cliout.Table([]string{"TIME", "TOOL", "USER", "MODE", "STATUS", "EXIT"}, rows)
				cliout.Plain("%d events", len(events))
			})
		},
	}
	cmd.Flags().StringVar(&tool, "tool", "", "filter by tool name")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (success, error, denied, ...)")
	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type (execution, denied, rate_limited, error)")
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "how far back to search")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	return cmd
}
