package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
)

// SortKey names an ordering for bonus lists.
type SortKey string

const (
	SortStart    SortKey = "start"    // oldest start date first
	SortDeadline SortKey = "deadline" // nearest deadline first
	SortAmount   SortKey = "amount"   // largest bonus first
	SortProgress SortKey = "progress" // least progress first
	SortBank     SortKey = "bank"     // bank name, case-insensitive
)

// SortKeys lists every accepted key.
func SortKeys() []SortKey {
	return []SortKey{SortStart, SortDeadline, SortAmount, SortProgress, SortBank}
}

// ParseSortKey accepts a key name; empty means SortStart.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortStart, nil
	}
	for _, k := range SortKeys() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Sort returns a sorted copy of bonuses. Ties keep their input order.
func Sort(bonuses []model.Bonus, key SortKey) []model.Bonus {
	out := slices.Clone(bonuses)
	var less func(a, b model.Bonus) int
	switch key {
	case SortDeadline:
		less = func(a, b model.Bonus) int { return progress.Deadline(a).Compare(progress.Deadline(b)) }
	case SortAmount:
		less = func(a, b model.Bonus) int { return b.Amount.Cmp(a.Amount) }
	case SortProgress:
		less = func(a, b model.Bonus) int { return progress.Progress(a).Cmp(progress.Progress(b)) }
	case SortBank:
		less = func(a, b model.Bonus) int {
			return cmp.Compare(strings.ToLower(a.BankName), strings.ToLower(b.BankName))
		}
	default:
		less = func(a, b model.Bonus) int { return a.StartDate.Compare(b.StartDate) }
	}
	slices.SortStableFunc(out, less)
	return out
}

// DueSoon returns the unfinished bonuses whose deadline falls within days
// of now, nearest first. Bonuses already past their deadline are included.
func DueSoon(bonuses []model.Bonus, now time.Time, days int) []model.Bonus {
	var due []model.Bonus
	for _, b := range bonuses {
		if progress.IsCompleted(b) {
			continue
		}
		if progress.RemainingDays(b, now) <= days {
			due = append(due, b)
		}
	}
	return Sort(due, SortDeadline)
}

// Withdrawable returns completed bonuses whose hold period has ended at now.
// Bonuses without a hold period are left out.
func Withdrawable(bonuses []model.Bonus, now time.Time) []model.Bonus {
	var ready []model.Bonus
	for _, b := range bonuses {
		if _, ok := progress.HoldEndDate(b); !ok {
			continue
		}
		if progress.IsCompleted(b) && progress.CanWithdraw(b, now) {
			ready = append(ready, b)
		}
	}
	return ready
}
