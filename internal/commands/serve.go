package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bonustrack-dev/bonustrack/internal/activity"
	"github.com/bonustrack-dev/bonustrack/internal/api"
	"github.com/bonustrack-dev/bonustrack/internal/gitops"
	"github.com/bonustrack-dev/bonustrack/internal/parser"
	"github.com/bonustrack-dev/bonustrack/internal/reminder"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(g *globals) *cobra.Command {
	var (
		addr      string
		origins   []string
		reminders bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run deadline reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			var p api.BonusParser
			if c, err := parser.NewOpenAICompleter(a.cfg.Parser, a.env.APIKey); err == nil {
				p = parser.New(c, a.logger)
			} else {
				a.logger.Warn("bonus parser disabled", "error", err)
			}

			h := api.NewHandler(a.svc, p, a.logger)
			h.OnChange = func(ctx context.Context, e activity.Entry) {
				a.record(ctx, e, prefixFor(e.Action), e.Details)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if reminders {
				sched := reminder.NewScheduler(
					reminder.NewJobs(a.svc, a.logger, a.cfg.Reminders.DeadlineDays),
					a.logger,
					a.cfg.Reminders.Schedule,
				)
				if err := sched.Start(); err != nil {
					return err
				}
				defer func() { <-sched.Stop().Done() }()
			}

			server := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           api.NewRouter(h, origins),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", "addr", server.Addr, "bonuses", a.svc.Len())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				a.logger.Info("shutdown signal received, gracefully shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("server shutdown failed", "error", err)
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origins (default localhost)")
	cmd.Flags().BoolVar(&reminders, "reminders", true, "run the reminder job")
	return cmd
}

func prefixFor(action string) string {
	switch action {
	case activity.ActionDeposit:
		return gitops.PrefixDeposit
	case activity.ActionDelete:
		return gitops.PrefixDelete
	case activity.ActionImport:
		return gitops.PrefixImport
	default:
		return gitops.PrefixBonus
	}
}
