package model

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidDeposit is wrapped by deposit construction failures.
var ErrInvalidDeposit = errors.New("invalid deposit")

// Deposit is one recorded contribution toward a bonus requirement.
type Deposit struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// NewDeposit returns a Deposit, rejecting non-positive amounts.
func NewDeposit(amount decimal.Decimal, date time.Time) (Deposit, error) {
	if !amount.IsPositive() {
		return Deposit{}, fmt.Errorf("%w: amount must be > 0, got %s", ErrInvalidDeposit, amount)
	}
	return Deposit{Amount: amount, Date: date}, nil
}

// Requirements bundles the deposit requirement with its time limits.
type Requirements struct {
	Deposits   DepositRequirement `json:"deposits"`
	TimeFrame  int                `json:"timeFrame"`            // days from StartDate to meet Deposits
	HoldPeriod int                `json:"holdPeriod,omitempty"` // days funds must stay; 0 = none
}

// Bonus is a tracked signup bonus.
type Bonus struct {
	ID           string          `json:"id"`
	BankName     string          `json:"bankName"`
	AccountType  AccountType     `json:"accountType"`
	Amount       decimal.Decimal `json:"amount"` // payout
	Requirements Requirements    `json:"requirements"`
	StartDate    time.Time       `json:"startDate"`
	Deposits     []Deposit       `json:"deposits"`
}

// WithDeposit returns a copy of b with d appended. b is left untouched.
func (b Bonus) WithDeposit(d Deposit) Bonus {
	out := b
	out.Deposits = append(slices.Clone(b.Deposits), d)
	return out
}

// Clone returns a copy of b that shares no deposit storage with it.
func (b Bonus) Clone() Bonus {
	out := b
	out.Deposits = slices.Clone(b.Deposits)
	if out.Deposits == nil {
		out.Deposits = []Deposit{}
	}
	return out
}

// State is the logical lifecycle of a bonus.
type State string

const (
	StateNotStarted State = "not-started"
	StateInProgress State = "in-progress"
	StateCompleted  State = "completed"
)

// Label is the badge text shown for s.
func (s State) Label() string {
	switch s {
	case StateNotStarted:
		return "Not Started"
	case StateInProgress:
		return "In Progress"
	case StateCompleted:
		return "Completed"
	}
	return string(s)
}
