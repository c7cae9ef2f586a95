// Package render formats bonuses for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bonustrack-dev/bonustrack/internal/analytics"
	"github.com/bonustrack-dev/bonustrack/internal/id"
	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
)

// BarWidth is the number of cells in a progress bar.
const BarWidth = 20

const dateLayout = "Jan 2, 2006"

var printer = message.NewPrinter(language.AmericanEnglish)

// Money formats d as US dollars with thousands separators, e.g. $1,234.50.
func Money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	if f < 0 {
		return "-$" + printer.Sprintf("%.2f", -f)
	}
	return "$" + printer.Sprintf("%.2f", f)
}

// Bar draws p (0..1) as a fixed-width bar followed by its percent.
func Bar(p decimal.Decimal, width int) string {
	pct := progress.Percent(p)
	filled := pct * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(".", width-filled), pct)
}

// Badge is the state label shown next to a bonus.
func Badge(st progress.Status) string {
	return st.State.Label()
}

// WithdrawBadge describes whether the hold period allows withdrawing.
func WithdrawBadge(st progress.Status) string {
	if st.CanWithdraw {
		return "Can withdraw"
	}
	return "Cannot withdraw yet"
}

// Card writes the detailed view of one bonus.
func Card(w io.Writer, b model.Bonus, now time.Time) error {
	st := progress.Evaluate(b, now)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)  %s  [%s]\n", b.BankName, b.AccountType, Money(b.Amount), Badge(st))
	fmt.Fprintf(&sb, "  id:          %s\n", b.ID)
	fmt.Fprintf(&sb, "  requirement: %s within %d days\n", b.Requirements.Deposits, b.Requirements.TimeFrame)
	fmt.Fprintf(&sb, "  progress:    %s\n", Bar(st.Progress, BarWidth))
	fmt.Fprintf(&sb, "  deposited:   %s\n", Money(st.TotalDeposited))
	fmt.Fprintf(&sb, "  remaining:   %s remaining, %d days left (deadline %s)\n",
		Money(st.RemainingAmount), st.RemainingDays, st.Deadline.Format(dateLayout))
	if st.HoldEndDate != nil {
		fmt.Fprintf(&sb, "  hold:        %d days, until %s: %s\n",
			b.Requirements.HoldPeriod, st.HoldEndDate.Format(dateLayout), WithdrawBadge(st))
	} else {
		fmt.Fprintf(&sb, "  hold:        none: %s\n", WithdrawBadge(st))
	}
	if len(b.Deposits) > 0 {
		sb.WriteString("  deposits:\n")
		for _, d := range b.Deposits {
			fmt.Fprintf(&sb, "    %s  %s\n", d.Date.Format(dateLayout), Money(d.Amount))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Table writes one line per bonus.
func Table(w io.Writer, bonuses []model.Bonus, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBANK\tTYPE\tBONUS\tPROGRESS\tREMAINING\tDAYS\tSTATUS")
	for _, b := range bonuses {
		st := progress.Evaluate(b, now)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			id.Short(b.ID), b.BankName, b.AccountType, Money(b.Amount),
			Bar(st.Progress, 10), Money(st.RemainingAmount), st.RemainingDays, Badge(st))
	}
	return tw.Flush()
}

// Summary writes the analytics dashboard.
func Summary(w io.Writer, s analytics.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total bonuses:\t%d\n", s.TotalBonuses)
	fmt.Fprintf(tw, "Total bonus amount:\t%s\n", Money(s.TotalAmount))
	fmt.Fprintf(tw, "Total required deposits:\t%s\n", Money(s.TotalRequired))
	fmt.Fprintf(tw, "Total deposited:\t%s\n", Money(s.TotalDeposited))
	fmt.Fprintf(tw, "Average bonus:\t%s\n", Money(s.AverageBonus))
	fmt.Fprintf(tw, "Average deposit:\t%s\n", Money(s.AverageDeposit))
	fmt.Fprintf(tw, "Return:\t%s%%\n", s.ReturnPercent.StringFixed(2))
	fmt.Fprintf(tw, "Earned:\t%s\n", Money(s.EarnedAmount))
	fmt.Fprintf(tw, "Not started / in progress / completed:\t%d / %d / %d\n", s.NotStarted, s.InProgress, s.Completed)
	fmt.Fprintf(tw, "Ready to withdraw:\t%d\n", s.ReadyToWithdraw)
	return tw.Flush()
}
