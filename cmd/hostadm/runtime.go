package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/config"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/hooks"
	"github.com/victoralfred/hostadm/internal/cliout"
	"github.com/victoralfred/hostadm/observability"
	"github.com/victoralfred/hostadm/ops"
	"github.com/victoralfred/hostadm/privilege"
	"github.com/victoralfred/hostadm/resilience"
)

// app bundles the wired pipeline for one CLI invocation.
type app struct {
	cfg     config.Config
	catalog *catalog.Catalog
	exec    executor.Executor
	runner  *ops.Runner
	metrics *observability.Metrics
	audit   observability.AuditLogger
}

// loadConfig resolves the effective configuration from --config or the
// built-in defaults.
func loadConfig() (config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadCatalog builds the tool catalog, merging the site override file
// when one exists. A missing file keeps the defaults; a present but
// invalid file is an error, never a silent fallback.
func loadCatalog(ctx context.Context, cfg config.Config) (*catalog.Catalog, error) {
	overridePath := filepath.Join(cfg.CatalogBasePath, cfg.CatalogPath)
	if _, err := os.Stat(overridePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return catalog.NewCatalog(), nil
		}
		return nil, fmt.Errorf("checking catalog overrides: %w", err)
	}

	loader, err := catalog.NewLoader(cfg.CatalogBasePath, cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx)
}

// newApp wires catalog, privilege, rate limiting, telemetry, audit, and
// the executor into a ready Runner.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		catalog: cat,
		metrics: observability.NewMetrics(),
		audit:   observability.NoopAuditLogger(),
	}

	builder := executor.NewBuilder().
		WithCatalog(cat).
		WithResolver(privilege.NewResolver(&cfg.Privilege)).
		WithRateLimiter(resilience.NewRateLimiter(cfg.RateLimiter)).
		WithDefaultTimeout(cfg.Executor.DefaultTimeout).
		WithSudoPath(cfg.Executor.SudoPath).
		WithDryRun(dryRun).
		WithHooks(&observability.MetricsHook{Metrics: a.metrics})

	if verbose {
		builder.WithHooks(hooks.NewLoggingHook(log.Printf))
	}

	if cfg.Executor.EnableTracing || cfg.Executor.EnableMetrics {
		tel, err := observability.NewTelemetry(cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("initializing telemetry: %w", err)
		}
		builder.WithTelemetry(observability.ExecutorTelemetry(tel))
	}

	if cfg.Executor.EnableAudit && cfg.Audit.Enabled {
		logger, err := observability.NewFileAuditLogger(cfg.Audit)
		if err != nil {
			// The admin's command still runs; say so and move on.
			fmt.Fprintf(os.Stderr, "warning: audit logging disabled: %v\n", err)
		} else {
			a.audit = logger
		}
	}
	builder.WithAudit(observability.NewAuditSink(a.audit, func(err error) {
		fmt.Fprintf(os.Stderr, "warning: audit write failed: %v\n", err)
	}))

	exec, err := builder.Build()
	if err != nil {
		return nil, err
	}
	a.exec = exec
	a.runner = ops.NewRunner(cat, exec)
	return a, nil
}

// Close drains the executor and closes the audit log.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.exec != nil {
		_ = a.exec.Shutdown(ctx)
	}
	if a.audit != nil {
		_ = a.audit.Close()
	}
}

// resultView is the JSON shape of one invocation outcome.
type resultView struct {
	CommandID  string `json:"command_id"`
	Tool       string `json:"tool"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Rendered   string `json:"rendered"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

func viewOf(res *executor.Result) resultView {
	return resultView{
		CommandID:  res.CommandID,
		Tool:       res.Tool,
		Status:     res.Status.String(),
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Rendered:   res.Rendered,
		Stdout:     res.StdoutString(),
		Stderr:     res.StderrString(),
		DryRun:     res.DryRun,
	}
}

// renderResults prints invocation outcomes in the selected format. In
// the default format dry runs print their rendered command line and
// queries print the tool's captured stdout.
func renderResults(results []*executor.Result) {
	if cliout.IsJSON() {
		views := make([]resultView, 0, len(results))
		for _, res := range results {
			views = append(views, viewOf(res))
		}
		_ = cliout.PrintJSON(views)
		return
	}

	for _, res := range results {
		if res.DryRun {
			cliout.Plain("%s", cliout.Muted("%s", res.Rendered))
			continue
		}
		if out := strings.TrimRight(res.StdoutString(), "\n"); out != "" {
			cliout.Plain("%s", out)
		}
		if verbose {
			if errOut := strings.TrimRight(res.StderrString(), "\n"); errOut != "" {
				fmt.Fprintln(os.Stderr, errOut)
			}
		}
	}
}

// runOp executes one operation end to end and reports the outcome.
// done is the success line for the default format; empty means the
// tool's own output is the report.
func runOp(cmd *cobra.Command, op ops.Operation, done string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.runner.Apply(cmd.Context(), op)
	renderResults(results)
	if err != nil {
		return err
	}

	if done != "" && !dryRun && !cliout.IsJSON() {
		cliout.Success("%s", done)
	}
	if verbose {
		logSummary(a.metrics.Snapshot())
	}
	return nil
}

func logSummary(snap observability.MetricsSnapshot) {
	log.Printf("summary: invocations=%d success=%d failed=%d denied=%d rate_limited=%d dry_run=%d avg=%s",
		snap.TotalInvocations, snap.SuccessfulExec, snap.FailedExec,
		snap.DeniedExec, snap.RateLimited, snap.DryRunExec, snap.AvgDuration)
}
