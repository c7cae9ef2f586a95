package importer

import (
	"strings"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

// Filter narrows which credits count as bonus deposits.
type Filter struct {
	// Match is a case-insensitive substring of the description. Empty
	// matches every credit.
	Match string
}

// Deposits picks the credits in txns that qualify for b: positive credits
// whose description passes f, posted on or after the bonus start day, and
// not already recorded on b with the same day and amount.
func Deposits(txns []Transaction, b model.Bonus, f Filter) []model.Deposit {
	match := strings.ToLower(strings.TrimSpace(f.Match))
	startDay := dayKey(b)

	seen := make(map[string]int)
	for _, d := range b.Deposits {
		seen[depositKey(d)]++
	}

	var out []model.Deposit
	for _, txn := range txns {
		if !txn.Credit || !txn.Amount.IsPositive() {
			continue
		}
		if match != "" && !strings.Contains(strings.ToLower(txn.Description), match) {
			continue
		}
		if txn.Date.Format(dayLayout) < startDay {
			continue
		}
		d := model.Deposit{Amount: txn.Amount, Date: txn.Date}
		if k := depositKey(d); seen[k] > 0 {
			seen[k]--
			continue
		}
		out = append(out, d)
	}
	return out
}

const dayLayout = "2006-01-02"

func dayKey(b model.Bonus) string {
	return b.StartDate.Format(dayLayout)
}

func depositKey(d model.Deposit) string {
	return d.Date.Format(dayLayout) + "|" + d.Amount.StringFixed(2)
}
