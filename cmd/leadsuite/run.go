package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/runner/scenario"
	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/shared/fixture"
	"github.com/gate4ai/leadsuite/shared/selectors"
	"github.com/gate4ai/leadsuite/tests/env"
)

const stubUsername, stubPassword = "suite@example.com", "stub"

func newRunCmd(root *rootOptions) *cobra.Command {
	var useStub bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create one lead per fixture row and verify it",
		Long: `Run loads the lead fixture and runs one case per row in its own browser context,
with the configured workers, retries and repeat-each. Without a base URL, or with --stub,
the cases run against the in-process stub CRM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSuite(ctx, cmd.OutOrStdout(), cfg, logger, useStub || cfg.BaseURL == "")
		},
	}
	cmd.Flags().BoolVar(&useStub, "stub", false, "Run against the in-process stub CRM")
	return cmd
}

func runSuite(ctx context.Context, out io.Writer, cfg *config.Suite, logger *zap.Logger, useStub bool) error {
	table, err := fixture.Loader{BaseDir: cfg.Fixture.BaseDir}.Load(cfg.Fixture.Path)
	if err != nil {
		return err
	}
	sel := selectors.Default()
	if cfg.Selectors.Path != "" {
		if sel, err = selectors.Load(cfg.Selectors.Path); err != nil {
			return err
		}
	}

	creds, err := config.LoadCredentials(cfg.Credentials.Path)
	if err != nil {
		if !useStub || !errors.Is(err, config.ErrNoCredentials) {
			return err
		}
		creds = config.Credentials{Username: stubUsername, Password: stubPassword}
	}

	envs := env.NewEnvs(logger)
	envs.RegisterSuite(cfg, useStub)
	setupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := envs.Execute(setupCtx); err != nil {
		return err
	}
	defer envs.StopAll()

	pw, ok := envs.Playwright()
	if !ok {
		return errors.New("playwright is not available")
	}
	live := scenario.Live{
		Suite:       cfg,
		Browser:     pw.Browser,
		Playwright:  pw.Playwright,
		Selectors:   sel,
		Credentials: creds,
		LoginURL:    envs.LoginURL(cfg),
		Logger:      logger,
	}
	runner := scenario.Runner{
		Workers:    cfg.Run.Workers,
		Retries:    cfg.Run.Retries,
		RepeatEach: cfg.Run.RepeatEach,
		Timeout:    cfg.Timeouts.Test,
		Logger:     logger,

		RetryBackoff:    cfg.Run.RetryBackoff,
		StartsPerMinute: cfg.Run.StartsPerMinute,
	}

	results := runner.Run(ctx, scenario.Plan(table), live.Attempt)
	repeats := max(cfg.Run.RepeatEach, 1)
	if err := printResults(out, results, repeats); err != nil {
		return err
	}
	if failed := scenario.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(results))
	}
	return nil
}

func printResults(out io.Writer, results []scenario.Result, repeats int) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESULT\tCASE\tATTEMPTS\tDURATION\tERROR")
	for _, r := range results {
		status, msg := "PASS", ""
		if !r.Passed() {
			status, msg = "FAIL", r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", status, r.Name(repeats), r.Attempts, r.Duration.Round(time.Millisecond), msg)
	}
	fmt.Fprintf(tw, "\n%d passed, %d failed\n", len(results)-scenario.Failed(results), scenario.Failed(results))
	return tw.Flush()
}
