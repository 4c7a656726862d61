package opsctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/campus-notify-core/internal/database"
	"github.com/sandeepkv93/campus-notify-core/internal/di"
)

func newMigrateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Database schema tooling"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply schema migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd, opts, "migrate up", func(_ context.Context, ops *di.OpsRuntime, _ *slog.Logger) (result, error) {
					if err := ops.Migrate(); err != nil {
						return result{}, err
					}
					statuses, err := ops.MigrationStatus()
					if err != nil {
						return result{}, err
					}
					return result{details: statusLines(statuses), data: statuses}, nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report which tables exist; exits 4 when migrations are pending",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd, opts, "migrate status", func(_ context.Context, ops *di.OpsRuntime, _ *slog.Logger) (result, error) {
					statuses, err := ops.MigrationStatus()
					if err != nil {
						return result{}, err
					}
					res := result{details: statusLines(statuses), data: statuses}
					if database.Pending(statuses) {
						return res, errPendingMigrations
					}
					return res, nil
				})
			},
		},
	)
	return cmd
}

func newSweepCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "sweep", Short: "Expired credential cleanup"}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Delete expired credentials and tickets once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, "sweep run", func(ctx context.Context, ops *di.OpsRuntime, logger *slog.Logger) (result, error) {
				deleted, err := ops.Sweep(ctx, logger)
				if err != nil {
					return result{}, err
				}
				return result{
					details: []string{fmt.Sprintf("deleted rows: %d", deleted), "grace: " + ops.Config.SweepGrace.String()},
					data:    map[string]int64{"deleted": deleted},
				}, nil
			})
		},
	})
	return cmd
}

func newCredentialsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "credentials", Short: "One-time credential inspection"}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count credentials by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd, opts, "credentials stats", func(ctx context.Context, ops *di.OpsRuntime, _ *slog.Logger) (result, error) {
				stats, err := ops.CredentialStats(ctx)
				if err != nil {
					return result{}, err
				}
				return result{
					details: []string{
						fmt.Sprintf("total: %d", stats.Total),
						fmt.Sprintf("pending: %d", stats.Pending),
						fmt.Sprintf("consumed: %d", stats.Consumed),
						fmt.Sprintf("expired: %d", stats.Expired),
						fmt.Sprintf("tickets: %d", stats.Tickets),
					},
					data: stats,
				}, nil
			})
		},
	})
	return cmd
}

func newAdminCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Administrator bootstrap"}
	cmd.AddCommand(&cobra.Command{
		Use:   "promote <email>...",
		Short: "Grant system_admin to existing users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, "admin promote", func(ctx context.Context, ops *di.OpsRuntime, _ *slog.Logger) (result, error) {
				rep, err := ops.PromoteAdmins(ctx, args)
				if err != nil {
					return result{}, err
				}
				details := make([]string, 0, len(rep.Promoted)+len(rep.Already)+len(rep.Missing))
				for _, e := range rep.Promoted {
					details = append(details, "promoted: "+e)
				}
				for _, e := range rep.Already {
					details = append(details, "already admin: "+e)
				}
				for _, e := range rep.Missing {
					details = append(details, "no such user: "+e)
				}
				return result{details: details, data: rep}, nil
			})
		},
	})
	return cmd
}

func statusLines(statuses []database.MigrationStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		state := "missing"
		if s.Exists {
			state = "present"
		}
		out = append(out, s.Table+": "+state)
	}
	return out
}
