package model

import "fmt"

// ValidationError describes one problem with a bonus record.
type ValidationError struct {
	BonusID string
	Field   string
	Problem string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("bonus [%s] %s: %s", e.BonusID, e.Field, e.Problem)
}

// Validate checks the business rules a stored bonus must satisfy. The progress
// engine does not call it; it tolerates anything.
func Validate(b Bonus) []ValidationError {
	var errs []ValidationError
	add := func(field, problem string) {
		errs = append(errs, ValidationError{BonusID: b.ID, Field: field, Problem: problem})
	}

	if b.ID == "" {
		add("id", "required")
	}
	if b.BankName == "" {
		add("bankName", "required")
	}
	if !b.AccountType.Valid() {
		add("accountType", fmt.Sprintf("unknown account type %q", b.AccountType))
	}
	if b.Amount.IsNegative() {
		add("amount", fmt.Sprintf("must be >= 0, got %s", b.Amount))
	}
	if req := b.Requirements.Deposits; !req.Kind().Valid() {
		add("requirements.deposits.type", fmt.Sprintf("unrecognized type %q", req.Kind()))
	} else if err := req.Check(); err != nil {
		add("requirements.deposits", err.Error())
	}
	if b.Requirements.TimeFrame < 0 {
		add("requirements.timeFrame", fmt.Sprintf("must be >= 0, got %d", b.Requirements.TimeFrame))
	}
	if b.Requirements.HoldPeriod < 0 {
		add("requirements.holdPeriod", fmt.Sprintf("must be >= 0, got %d", b.Requirements.HoldPeriod))
	}
	for i, d := range b.Deposits {
		if !d.Amount.IsPositive() {
			add(fmt.Sprintf("deposits[%d].amount", i), fmt.Sprintf("must be > 0, got %s", d.Amount))
		}
	}
	return errs
}
