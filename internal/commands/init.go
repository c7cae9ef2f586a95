package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bonustrack-dev/bonustrack/internal/config"
	"github.com/bonustrack-dev/bonustrack/internal/gitops"
	"github.com/bonustrack-dev/bonustrack/internal/importer"
	"github.com/bonustrack-dev/bonustrack/internal/store"
)

type initOptions struct {
	backend string
	git     bool
}

func newInitCommand(g *globals) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a bonus tracking data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := g.dir
			if len(args) > 0 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolving path: %w", err)
				}
				dir = abs
			}
			return runInit(cmd.Context(), cmd.OutOrStdout(), dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", string(store.BackendJSON), "storage backend (json or sqlite)")
	cmd.Flags().BoolVar(&opts.git, "git", false, "initialize a git repository and commit every change")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, opts initOptions) error {
	switch store.Backend(opts.backend) {
	case store.BackendJSON, store.BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", opts.backend)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	for _, d := range []string{"logs", importer.ImportDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	cfg.Storage.Backend = opts.backend
	cfg.Git.AutoCommit = opts.git
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	st, err := store.Open(store.Backend(cfg.Storage.Backend), dir, cfg.Storage.Key)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Save(ctx, nil); err != nil {
		return fmt.Errorf("writing empty bonus list: %w", err)
	}

	gitignore := ".env\n*.db-wal\n*.db-shm\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, importer.ImportDir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !opts.git {
		fmt.Fprintf(out, "Initialized bonus tracker at %s\n", dir)
		return nil
	}

	if err := gitops.Init(ctx, dir, io.Discard); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(ctx, dir, gitops.Message(gitops.PrefixInit, "initialize bonus tracker"), author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized bonus tracker at %s (%s)\n", dir, hash)
	return nil
}
