package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bonustrack-dev/bonustrack/internal/activity"
	"github.com/bonustrack-dev/bonustrack/internal/bonus"
	"github.com/bonustrack-dev/bonustrack/internal/gitops"
	"github.com/bonustrack-dev/bonustrack/internal/importer"
	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/render"
)

type importOptions struct {
	format string
	match  string
	dryRun bool
}

func newImportCommand(g *globals) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <id> [file]",
		Short: "Record deposits for a bonus from a bank CSV export",
		Long: `Reads credits from a bank CSV export and records the qualifying ones as
deposits toward a bonus. Credits before the bonus start date and credits
already recorded (same day and amount) are skipped.

Without a file, every CSV in import/ is read and then moved to
import/processed/.`,
		Example: `  bonustrack import 3f2a1b4c ~/Downloads/Chase1234_Activity.csv --match payroll
  bonustrack import 3f2a1b4c`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := importer.DefaultRegistry().Get(opts.format)
			if p == nil {
				return fmt.Errorf("unknown import format %q", opts.format)
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}

			var files []importer.FileInfo
			fromDir := len(args) < 2
			if fromDir {
				files, err = importer.Scan(a.dir)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", filepath.Join(a.dir, importer.ImportDir))
					return nil
				}
			} else {
				files = []importer.FileInfo{{Name: filepath.Base(args[1]), Path: args[1]}}
			}

			var txns []importer.Transaction
			for _, f := range files {
				parsed, err := importer.ParseFile(p, f.Path)
				if err != nil {
					return err
				}
				a.logger.Debug("parsed bank export", "file", f.Name, "transactions", len(parsed))
				txns = append(txns, parsed...)
			}

			deposits := importer.Deposits(txns, b, importer.Filter{Match: opts.match})
			out := cmd.OutOrStdout()
			if opts.dryRun {
				for _, d := range deposits {
					fmt.Fprintf(out, "would record %s on %s\n", render.Money(d.Amount), d.Date.Format("Jan 2, 2006"))
				}
				fmt.Fprintf(out, "%d deposits found in %d transactions\n", len(deposits), len(txns))
				return nil
			}

			recorded, err := recordDeposits(cmd, a, b.ID, deposits)
			if err != nil {
				return err
			}

			if fromDir {
				for _, f := range files {
					if err := importer.MarkProcessed(a.dir, f.Name); err != nil {
						return err
					}
				}
			}

			if recorded > 0 {
				updated, err := a.svc.Get(b.ID)
				if err != nil {
					return err
				}
				a.record(cmd.Context(), activity.Entry{
					Action:  activity.ActionImport,
					BonusID: updated.ID,
					Details: fmt.Sprintf("%d deposits from %d files", recorded, len(files)),
				}, gitops.PrefixImport, fmt.Sprintf("%s %d deposits", updated.BankName, recorded))
				fmt.Fprintf(out, "Recorded %d of %d deposits\n", recorded, len(deposits))
				return render.Card(out, updated, a.svc.Now())
			}
			fmt.Fprintln(out, "No new deposits found")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "chase", "bank export format")
	cmd.Flags().StringVar(&opts.match, "match", "", "only credits whose description contains this text")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show what would be recorded")
	return cmd
}

// recordDeposits adds deposits in order until the bonus is complete.
func recordDeposits(cmd *cobra.Command, a *app, bonusID string, deposits []model.Deposit) (int, error) {
	n := 0
	for _, d := range deposits {
		_, err := a.svc.AddDeposit(cmd.Context(), bonusID, d)
		if errors.Is(err, bonus.ErrCompleted) {
			a.logger.Info("bonus requirement met, skipping remaining deposits", "skipped", len(deposits)-n)
			break
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
