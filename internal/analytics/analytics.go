// Package analytics summarizes a portfolio of bonuses and orders them for
// display.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
)

var hundred = decimal.NewFromInt(100)

// Summary is the dashboard view of all bonuses.
type Summary struct {
	TotalBonuses    int             `json:"totalBonuses"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalRequired   decimal.Decimal `json:"totalRequiredDeposits"`
	TotalDeposited  decimal.Decimal `json:"totalDeposited"`
	AverageBonus    decimal.Decimal `json:"averageBonus"`
	AverageDeposit  decimal.Decimal `json:"averageDeposit"`
	ReturnPercent   decimal.Decimal `json:"returnPercent"`
	EarnedAmount    decimal.Decimal `json:"earnedAmount"`
	NotStarted      int             `json:"notStarted"`
	InProgress      int             `json:"inProgress"`
	Completed       int             `json:"completed"`
	ReadyToWithdraw int             `json:"readyToWithdraw"`
}

// Summarize computes a Summary. now only affects ReadyToWithdraw.
//
// ReturnPercent is averageBonus / averageDeposit * 100 rounded to two
// places, and zero when nothing is required.
func Summarize(bonuses []model.Bonus, now time.Time) Summary {
	s := Summary{
		TotalBonuses:   len(bonuses),
		TotalAmount:    decimal.Zero,
		TotalRequired:  decimal.Zero,
		TotalDeposited: decimal.Zero,
		AverageBonus:   decimal.Zero,
		AverageDeposit: decimal.Zero,
		ReturnPercent:  decimal.Zero,
		EarnedAmount:   decimal.Zero,
	}
	for _, b := range bonuses {
		s.TotalAmount = s.TotalAmount.Add(b.Amount)
		s.TotalRequired = s.TotalRequired.Add(b.Requirements.Deposits.RequiredDeposit())
		s.TotalDeposited = s.TotalDeposited.Add(progress.TotalDeposited(b))

		switch progress.State(b) {
		case model.StateNotStarted:
			s.NotStarted++
		case model.StateInProgress:
			s.InProgress++
		case model.StateCompleted:
			s.Completed++
			s.EarnedAmount = s.EarnedAmount.Add(b.Amount)
			if progress.CanWithdraw(b, now) {
				s.ReadyToWithdraw++
			}
		}
	}
	if s.TotalBonuses == 0 {
		return s
	}

	n := decimal.NewFromInt(int64(s.TotalBonuses))
	s.AverageBonus = s.TotalAmount.Div(n)
	s.AverageDeposit = s.TotalRequired.Div(n)
	if s.AverageDeposit.IsPositive() {
		s.ReturnPercent = s.AverageBonus.Div(s.AverageDeposit).Mul(hundred).Round(2)
	}
	return s
}
