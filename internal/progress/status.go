package progress

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

// Status is every engine figure for one bonus at one instant.
type Status struct {
	Progress        decimal.Decimal `json:"progress"`
	Percent         int             `json:"percent"`
	State           model.State     `json:"state"`
	Completed       bool            `json:"completed"`
	TotalDeposited  decimal.Decimal `json:"totalDeposited"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	RemainingDays   int             `json:"remainingDays"`
	Deadline        time.Time       `json:"deadline"`
	CanWithdraw     bool            `json:"canWithdraw"`
	HoldEndDate     *time.Time      `json:"holdEndDate,omitempty"`
}

// Evaluate computes the Status of b at now.
func Evaluate(b model.Bonus, now time.Time) Status {
	p := Progress(b)
	s := Status{
		Progress:        p,
		Percent:         Percent(p),
		State:           State(b),
		Completed:       p.Equal(one),
		TotalDeposited:  TotalDeposited(b),
		RemainingAmount: RemainingAmount(b),
		RemainingDays:   RemainingDays(b, now),
		Deadline:        Deadline(b),
		CanWithdraw:     CanWithdraw(b, now),
	}
	if end, ok := HoldEndDate(b); ok {
		s.HoldEndDate = &end
	}
	return s
}

// Percent maps a progress value onto 0..100, rounding down so that only a
// completed bonus shows 100.
func Percent(p decimal.Decimal) int {
	return int(clamp(p).Mul(decimal.NewFromInt(100)).Floor().IntPart())
}
