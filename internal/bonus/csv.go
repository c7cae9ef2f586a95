package bonus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
)

const (
	numFields          = 14
	colID              = 0
	colBank            = 1
	colAccountType     = 2
	colAmount          = 3
	colRequirement     = 4
	colRequiredDeposit = 5
	colDeposited       = 6
	colPercent         = 7
	colState           = 8
	colRemainingAmount = 9
	colRemainingDays   = 10
	colDeadline        = 11
	colCanWithdraw     = 12
	colHoldEnd         = 13
)

const csvDate = "2006-01-02"

var exportHeader = []string{
	"id", "bank_name", "account_type", "amount", "requirement", "required_deposit",
	"total_deposited", "progress_percent", "state", "remaining_amount", "remaining_days",
	"deadline", "can_withdraw", "hold_end_date",
}

// WriteCSV writes one row per bonus with its status as of now.
func WriteCSV(w io.Writer, bonuses []model.Bonus, now time.Time) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, b := range bonuses {
		if err := cw.Write(MarshalRow(b, now)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a bonus and its evaluated status to a CSV row.
func MarshalRow(b model.Bonus, now time.Time) []string {
	st := progress.Evaluate(b, now)

	row := make([]string, numFields)
	row[colID] = b.ID
	row[colBank] = b.BankName
	row[colAccountType] = string(b.AccountType)
	row[colAmount] = b.Amount.StringFixed(2)
	row[colRequirement] = b.Requirements.Deposits.String()
	row[colRequiredDeposit] = b.Requirements.Deposits.RequiredDeposit().StringFixed(2)
	row[colDeposited] = st.TotalDeposited.StringFixed(2)
	row[colPercent] = strconv.Itoa(st.Percent)
	row[colState] = string(st.State)
	row[colRemainingAmount] = st.RemainingAmount.StringFixed(2)
	row[colRemainingDays] = strconv.Itoa(st.RemainingDays)
	row[colDeadline] = st.Deadline.Format(csvDate)
	row[colCanWithdraw] = strconv.FormatBool(st.CanWithdraw)
	if st.HoldEndDate != nil {
		row[colHoldEnd] = st.HoldEndDate.Format(csvDate)
	}
	return row
}
