package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"wantok/backend/internal/config"
	"wantok/backend/internal/models"
	"wantok/backend/internal/moderation"
	"wantok/backend/internal/storage"
	"wantok/backend/internal/telegram"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// openModeration connects to postgres, and to redis when configured, so suspensions
// also reach the ban cache and kick live connections.
func openModeration(ctx context.Context, configPath string) (*moderation.Service, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := storage.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	rdb, err := storage.OpenRedis(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}

	notifier, err := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChatID)
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifier disabled")
	}

	cleanup := func() {
		if rdb != nil {
			rdb.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return moderation.NewService(storage.NewStorageService(db, rdb), notifier), cleanup, nil
}

func buildUnbanCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unban <user-id>",
		Short: "Lift every suspension of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openModeration(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.Unban(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s unbanned (%d suspensions removed).\n", args[0], n)
			return nil
		},
	}
}

func buildSuspendCmd(configPath *string) *cobra.Command {
	var (
		reason   string
		username string
	)
	cmd := &cobra.Command{
		Use:   "suspend <user-id>",
		Short: "Suspend a user; the reason decides the duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openModeration(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			name := username
			if name == "" {
				name = args[0]
			}
			s, err := svc.HandleViolation(cmd.Context(), moderation.Violation{
				UserID:    args[0],
				Username:  name,
				Reason:    reason,
				CreatedBy: "admin-cli",
			})
			if err != nil {
				return err
			}

			until := "permanently"
			if exp := s.Expiry(); exp != nil {
				until = "until " + exp.Format(time.RFC3339)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s suspended %s.\n", args[0], until)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Violation reason")
	cmd.Flags().StringVar(&username, "username", "", "Username shown to moderators")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func buildReportsCmd(configPath *string) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List user reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openModeration(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := models.ReportStatus(status)
			if status == "all" {
				filter = ""
			}
			reports, err := svc.Reports(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printReports(cmd, reports)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(models.ReportPending), "Report status (pending, resolved, dismissed, all)")
	return cmd
}

func printReports(cmd *cobra.Command, reports []models.Report) {
	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "No reports.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tREPORTED\tREPORTER\tCREATED\tREASON")
	for _, r := range reports {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.ReportedUserID, r.ReporterID, r.CreatedAt.Format(time.DateTime), r.Reason)
	}
	w.Flush()
}

func buildResolveReportCmd(configPath *string) *cobra.Command {
	var (
		status string
		by     string
	)
	cmd := &cobra.Command{
		Use:   "resolve-report <report-id>",
		Short: "Mark a report resolved or dismissed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid report id %q", args[0])
			}

			svc, cleanup, err := openModeration(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.ResolveReport(cmd.Context(), uint(id), models.ReportStatus(status), by); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %d marked %s.\n", id, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(models.ReportResolved), "New status (resolved or dismissed)")
	cmd.Flags().StringVar(&by, "by", "admin-cli", "Moderator name recorded on the report")
	return cmd
}

func buildSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired temporary suspensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := openModeration(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired suspensions.\n", n)
			return nil
		},
	}
}
