package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bonustrack-dev/bonustrack/internal/activity"
	"github.com/bonustrack-dev/bonustrack/internal/bonus"
	"github.com/bonustrack-dev/bonustrack/internal/buildinfo"
	"github.com/bonustrack-dev/bonustrack/internal/config"
	"github.com/bonustrack-dev/bonustrack/internal/gitops"
	"github.com/bonustrack-dev/bonustrack/internal/store"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	dir     string
	verbose bool
	logger  *slog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "bonustrack",
		Short:   "Track bank account signup bonuses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			g.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			abs, err := filepath.Abs(g.dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			g.dir = abs
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.dir, "dir", ".", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newInitCommand(g),
		newAddCommand(g),
		newParseCommand(g),
		newDepositCommand(g),
		newListCommand(g),
		newShowCommand(g),
		newDeleteCommand(g),
		newStatsCommand(g),
		newExportCommand(g),
		newImportCommand(g),
		newServeCommand(g),
	)

	return rootCmd
}

// app is an opened data directory.
type app struct {
	dir    string
	cfg    *config.Config
	env    config.Env
	store  store.Store
	svc    *bonus.Service
	logger *slog.Logger

	recordMu sync.Mutex
}

// open loads .env, bonustrack.yaml and the stored bonuses from the data
// directory. A missing config file means defaults.
func (g *globals) open(ctx context.Context) (*app, error) {
	if err := config.LoadDotEnv(g.dir); err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(g.dir, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	env, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	env.Apply(cfg)

	st, err := store.Open(store.Backend(cfg.Storage.Backend), g.dir, cfg.Storage.Key)
	if err != nil {
		return nil, err
	}
	svc := bonus.NewService(st, g.logger)
	if err := svc.Load(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return &app{dir: g.dir, cfg: cfg, env: env, store: st, svc: svc, logger: g.logger}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// record appends to the activity log and, when enabled, commits the data
// directory. Failures are logged, not returned: the change itself is saved.
func (a *app) record(ctx context.Context, e activity.Entry, prefix, subject string) {
	a.recordMu.Lock()
	defer a.recordMu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = a.svc.Now()
	}
	if err := activity.Append(a.dir, e); err != nil {
		a.logger.Warn("failed to write activity log", "error", err)
	}
	if !a.cfg.Git.AutoCommit || !gitops.IsRepo(a.dir) {
		return
	}
	author := gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(ctx, a.dir, gitops.Message(prefix, subject), author)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
	case err != nil:
		a.logger.Warn("git commit failed", "error", err)
	default:
		a.logger.Debug("committed", "hash", hash)
	}
}
