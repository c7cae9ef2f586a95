package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bonustrack-dev/bonustrack/internal/activity"
	"github.com/bonustrack-dev/bonustrack/internal/analytics"
	"github.com/bonustrack-dev/bonustrack/internal/bonus"
	"github.com/bonustrack-dev/bonustrack/internal/gitops"
	"github.com/bonustrack-dev/bonustrack/internal/id"
	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
	"github.com/bonustrack-dev/bonustrack/internal/render"
)

type addOptions struct {
	bank        string
	accountType string
	amount      string
	kind        string
	total       string
	each        string
	count       int
	timeFrame   int
	hold        int
	start       string
}

func newAddCommand(g *globals) *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Track a new bonus",
		Example: `  bonustrack add --bank Chase --amount 300 --requirement total --total 500 --time-frame 90
  bonustrack add --bank Citi --type savings --amount 200 --requirement each --each 500 --count 2 --time-frame 60 --hold 90`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.bonus()
			if err != nil {
				return err
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			added, err := a.svc.Add(cmd.Context(), b)
			if err != nil {
				return err
			}
			a.record(cmd.Context(), activity.Entry{Action: activity.ActionAdd, BonusID: added.ID, Details: added.Requirements.Deposits.String()},
				gitops.PrefixBonus, "add "+added.BankName+" "+render.Money(added.Amount))
			return render.Card(cmd.OutOrStdout(), added, a.svc.Now())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.bank, "bank", "", "bank name (required)")
	f.StringVar(&opts.accountType, "type", string(model.AccountTypeChecking), "account type: checking, savings or money-market")
	f.StringVar(&opts.amount, "amount", "", "bonus payout (required)")
	f.StringVar(&opts.kind, "requirement", string(model.KindTotal), "deposit requirement: total, each or both")
	f.StringVar(&opts.total, "total", "0", "required total deposit")
	f.StringVar(&opts.each, "each", "0", "required amount per deposit")
	f.IntVar(&opts.count, "count", 0, "number of required deposits")
	f.IntVar(&opts.timeFrame, "time-frame", 90, "days to meet the requirement")
	f.IntVar(&opts.hold, "hold", 0, "days the funds must stay in the account")
	f.StringVar(&opts.start, "start", "", "start date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (o addOptions) bonus() (model.Bonus, error) {
	at, err := model.ParseAccountType(o.accountType)
	if err != nil {
		return model.Bonus{}, err
	}
	amount, err := parseMoney("amount", o.amount)
	if err != nil {
		return model.Bonus{}, err
	}
	total, err := parseMoney("total", o.total)
	if err != nil {
		return model.Bonus{}, err
	}
	each, err := parseMoney("each", o.each)
	if err != nil {
		return model.Bonus{}, err
	}
	req, err := model.NewDepositRequirement(model.RequirementKind(o.kind), total, each, o.count)
	if err != nil {
		return model.Bonus{}, err
	}
	start, err := parseDate(o.start)
	if err != nil {
		return model.Bonus{}, err
	}
	return model.Bonus{
		BankName:    o.bank,
		AccountType: at,
		Amount:      amount,
		Requirements: model.Requirements{
			Deposits:   req,
			TimeFrame:  o.timeFrame,
			HoldPeriod: o.hold,
		},
		StartDate: start,
	}, nil
}

func newDepositCommand(g *globals) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "deposit <id> <amount>",
		Short: "Record a deposit toward a bonus",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseMoney("amount", args[1])
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}

			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			updated, err := a.svc.AddDeposit(cmd.Context(), args[0], model.Deposit{Amount: amount, Date: when})
			if errors.Is(err, bonus.ErrCompleted) {
				return fmt.Errorf("%w: no more deposits needed", err)
			}
			if err != nil {
				return err
			}
			pct := progress.Percent(progress.Progress(updated))
			a.record(cmd.Context(), activity.Entry{
				Action:  activity.ActionDeposit,
				BonusID: updated.ID,
				Details: fmt.Sprintf("%s, progress %d%%", render.Money(amount), pct),
			}, gitops.PrefixDeposit, updated.BankName+" "+render.Money(amount))
			return render.Card(cmd.OutOrStdout(), updated, a.svc.Now())
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "deposit date, YYYY-MM-DD (default today)")
	return cmd
}

func newListCommand(g *globals) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked bonuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := analytics.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			bonuses := a.svc.All()
			if len(bonuses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bonuses tracked yet.")
				return nil
			}
			return render.Table(cmd.OutOrStdout(), analytics.Sort(bonuses, key), a.svc.Now())
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", string(analytics.SortStart), "sort by start, deadline, amount, progress or bank")
	return cmd
}

func newShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one bonus in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.svc.Get(args[0])
			if err != nil {
				return err
			}
			return render.Card(cmd.OutOrStdout(), b, a.svc.Now())
		},
	}
}

func newDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Stop tracking a bonus",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.svc.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.record(cmd.Context(), activity.Entry{Action: activity.ActionDelete, BonusID: removed.ID, Details: removed.BankName},
				gitops.PrefixDelete, removed.BankName)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", removed.BankName, id.Short(removed.ID))
			return nil
		},
	}
}

func parseMoney(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return d, nil
}

// parseDate reads YYYY-MM-DD in local time. Empty returns the zero time,
// which the service replaces with now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
