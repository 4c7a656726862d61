package opsctl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/campus-notify-core/internal/di"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/tools/common"
	"github.com/sandeepkv93/campus-notify-core/internal/tools/ui"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

const (
	exitFailure = 3
	exitPending = 4
)

var errPendingMigrations = errors.New("schema has pending migrations")

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

// result is what every subcommand action returns; data is only emitted in --ci mode.
type result struct {
	details []string
	data    any
}

type action func(ctx context.Context, ops *di.OpsRuntime, logger *slog.Logger) (result, error)

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "opsctl",
		Short:         "Operational tooling for the campus notification core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newSweepCommand(opts),
		newCredentialsCommand(opts),
		newAdminCommand(opts),
	)
	return cmd
}

// execute loads the env file and ops runtime, then runs fn either under the
// progress UI or, with --ci, directly with JSON output.
func execute(cmd *cobra.Command, opts *options, title string, fn action) error {
	if err := common.LoadEnvFile(opts.envFile); err != nil {
		return report(cmd, opts, title, result{}, err)
	}
	ops, err := di.InitializeOpsRuntime()
	if err != nil {
		return report(cmd, opts, title, result{}, err)
	}
	defer func() { _ = ops.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if !opts.ci {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	var res result
	if opts.ci {
		ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
		defer cancel()
		res, err = fn(ctx, ops, logger)
	} else {
		res.details, err = ui.Run(title, opts.timeout, func(ctx context.Context) ([]string, error) {
			r, runErr := fn(ctx, ops, logger)
			res.data = r.data
			return r.details, runErr
		})
	}
	return report(cmd, opts, title, res, err)
}

func report(cmd *cobra.Command, opts *options, title string, res result, err error) error {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordToolCommandRun(cmd.Context(), "opsctl", title, outcome)
	if opts.ci {
		common.PrintCIResult(cmd.OutOrStdout(), title, res.details, res.data, err)
	}
	if err == nil {
		return nil
	}
	code := exitFailure
	if errors.Is(err, errPendingMigrations) {
		code = exitPending
	}
	return &ExitError{Code: code, Err: err}
}
