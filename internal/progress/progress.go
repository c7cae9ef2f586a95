// Package progress computes completion, remaining amount, remaining time and
// withdrawal eligibility for a bonus. Every function is pure: nothing here
// mutates its input, performs I/O or reads the clock, except the *Now
// wrappers which read time.Now once.
package progress

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

// Day is the length of one requirement day. Deadlines are measured in fixed
// 24h steps from the start instant, not in calendar days.
const Day = 24 * time.Hour

// Defaults used when a requirement field is zero. Constructors in model
// reject such values, so these only apply to the zero-value requirement.
var (
	// DefaultDenominator replaces a zero totalAmount or count in ratios.
	DefaultDenominator = decimal.NewFromInt(1)
	// DefaultEachAmount is the per-deposit minimum when none is set.
	DefaultEachAmount = decimal.Zero
	// UnrecognizedProgress is reported for a requirement with an unknown kind.
	UnrecognizedProgress = decimal.Zero
)

var one = decimal.NewFromInt(1)

// TotalDeposited sums all recorded deposits.
func TotalDeposited(b model.Bonus) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range b.Deposits {
		sum = sum.Add(d.Amount)
	}
	return sum
}

// Progress returns completion in [0, 1].
func Progress(b model.Bonus) decimal.Decimal {
	req := b.Requirements.Deposits
	total := TotalDeposited(b)
	count := decimal.NewFromInt(int64(len(b.Deposits)))

	var p decimal.Decimal
	switch req.Kind() {
	case model.KindTotal:
		p = ratio(total, req.TotalAmount())
	case model.KindEach:
		p = ratio(count, decimal.NewFromInt(int64(req.Count())))
	case model.KindBoth:
		p = decimal.Min(
			ratio(total, req.TotalAmount()),
			ratio(count, decimal.NewFromInt(int64(req.Count()))),
			eachScore(b.Deposits, req.EachAmount()),
		)
	default:
		p = UnrecognizedProgress
	}
	return clamp(p)
}

// IsCompleted reports whether Progress is exactly 1.
func IsCompleted(b model.Bonus) bool {
	return Progress(b).Equal(one)
}

// State classifies b as not started, in progress or completed.
func State(b model.Bonus) model.State {
	switch {
	case IsCompleted(b):
		return model.StateCompleted
	case len(b.Deposits) == 0:
		return model.StateNotStarted
	default:
		return model.StateInProgress
	}
}

// RemainingAmount returns the money still needed to satisfy the deposit
// requirement. For both, the larger of the two remaining tracks wins; the
// tracks are not added.
func RemainingAmount(b model.Bonus) decimal.Decimal {
	req := b.Requirements.Deposits
	switch req.Kind() {
	case model.KindTotal:
		return remainingTotal(b, req)
	case model.KindEach:
		return remainingEach(b, req)
	case model.KindBoth:
		return decimal.Max(remainingTotal(b, req), remainingEach(b, req))
	}
	return decimal.Zero
}

// Deadline is the instant the deposit requirement must be met by.
func Deadline(b model.Bonus) time.Time {
	return addDays(b.StartDate, b.Requirements.TimeFrame)
}

// RemainingDays returns the whole days, rounded up, from now until the
// deadline. It never returns a negative number.
func RemainingDays(b model.Bonus, now time.Time) int {
	end := Deadline(b)
	left := end.Sub(now)
	if left == maxDuration {
		// Sub saturated; whole seconds are precise enough this far out.
		secs := end.Unix() - now.Unix()
		days := secs / daySeconds
		if secs%daySeconds > 0 {
			days++
		}
		return int(days)
	}
	days := left / Day
	if left%Day > 0 {
		days++
	}
	return max(int(days), 0)
}

// RemainingDaysNow is RemainingDays against the wall clock.
func RemainingDaysNow(b model.Bonus) int {
	return RemainingDays(b, time.Now())
}

// HoldEndDate is the first instant funds may be withdrawn. ok is false when
// the bonus has no hold period.
func HoldEndDate(b model.Bonus) (end time.Time, ok bool) {
	if b.Requirements.HoldPeriod <= 0 {
		return time.Time{}, false
	}
	return addDays(b.StartDate, b.Requirements.HoldPeriod), true
}

// CanWithdraw reports whether the hold period, if any, has elapsed at now.
func CanWithdraw(b model.Bonus, now time.Time) bool {
	end, ok := HoldEndDate(b)
	if !ok {
		return true
	}
	return !now.Before(end)
}

// CanWithdrawNow is CanWithdraw against the wall clock.
func CanWithdrawNow(b model.Bonus) bool {
	return CanWithdraw(b, time.Now())
}

const (
	maxDuration     = time.Duration(math.MaxInt64)
	maxDurationDays = int(math.MaxInt64 / int64(Day))
	daySeconds      = int64(Day / time.Second)
)

// addDays adds days of exactly 24h each. Counts too large for a single
// time.Duration are added in steps.
func addDays(t time.Time, days int) time.Time {
	for days > maxDurationDays {
		t = t.Add(time.Duration(maxDurationDays) * Day)
		days -= maxDurationDays
	}
	for days < -maxDurationDays {
		t = t.Add(-time.Duration(maxDurationDays) * Day)
		days += maxDurationDays
	}
	return t.Add(time.Duration(days) * Day)
}

func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		den = DefaultDenominator
	}
	return num.Div(den)
}

func eachScore(deposits []model.Deposit, each decimal.Decimal) decimal.Decimal {
	if each.IsZero() {
		each = DefaultEachAmount
	}
	for _, d := range deposits {
		if d.Amount.LessThan(each) {
			return decimal.Zero
		}
	}
	return one
}

func clamp(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(one) {
		return one
	}
	return p
}

func remainingTotal(b model.Bonus, req model.DepositRequirement) decimal.Decimal {
	return decimal.Max(req.TotalAmount().Sub(TotalDeposited(b)), decimal.Zero)
}

func remainingEach(b model.Bonus, req model.DepositRequirement) decimal.Decimal {
	slots := max(req.Count()-len(b.Deposits), 0)
	return decimal.NewFromInt(int64(slots)).Mul(req.EachAmount())
}
