package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChaseParser reads the activity CSV Chase offers for checking and savings
// accounts. Columns are located by header name, so reordered or trimmed
// exports still parse.
type ChaseParser struct{}

const chaseDateFormat = "01/02/2006"

// Header names. The first entry of each list is the checking export's.
var (
	chaseDateCols   = []string{"Posting Date", "Post Date", "Transaction Date"}
	chaseDescCols   = []string{"Description"}
	chaseAmountCols = []string{"Amount"}
	chaseDetailCols = []string{"Details"}
	chaseTypeCols   = []string{"Type"}
	chaseSlipCols   = []string{"Check or Slip #"}
)

// chaseCreditDetails are the Details values Chase uses for money coming in.
// DSLIP is a branch deposit slip.
var chaseCreditDetails = map[string]bool{"CREDIT": true, "DSLIP": true}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns its rows in file order. Blank rows are
// skipped.
func (p *ChaseParser) Parse(r io.Reader) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV header: %w", err)
	}
	cols, err := newChaseColumns(header)
	if err != nil {
		return nil, err
	}

	var txns []Transaction
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading chase CSV: %w", err)
		}
		if blankRecord(rec) {
			continue
		}
		txn, err := cols.transaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

type chaseColumns struct {
	date, desc, amount int
	details, typ, slip int // -1 when absent
}

func newChaseColumns(header []string) (chaseColumns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	find := func(names []string) int {
		for _, n := range names {
			if i, ok := index[strings.ToLower(n)]; ok {
				return i
			}
		}
		return -1
	}

	c := chaseColumns{
		date:    find(chaseDateCols),
		desc:    find(chaseDescCols),
		amount:  find(chaseAmountCols),
		details: find(chaseDetailCols),
		typ:     find(chaseTypeCols),
		slip:    find(chaseSlipCols),
	}
	var missing []string
	if c.date < 0 {
		missing = append(missing, chaseDateCols[0])
	}
	if c.desc < 0 {
		missing = append(missing, chaseDescCols[0])
	}
	if c.amount < 0 {
		missing = append(missing, chaseAmountCols[0])
	}
	if len(missing) > 0 {
		return chaseColumns{}, fmt.Errorf("not a Chase activity export: missing columns %s", strings.Join(missing, ", "))
	}
	return c, nil
}

func (c chaseColumns) transaction(rec []string) (Transaction, error) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := time.Parse(chaseDateFormat, field(c.date))
	if err != nil {
		return Transaction{}, fmt.Errorf("parsing date %q: %w", field(c.date), err)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(field(c.amount), ",", ""))
	if err != nil {
		return Transaction{}, fmt.Errorf("parsing amount %q: %w", field(c.amount), err)
	}

	// Details, when present, decides what counts as money in.
	credit := amount.IsPositive()
	if details := strings.ToUpper(field(c.details)); details != "" {
		credit = credit && chaseCreditDetails[details]
	}

	return Transaction{
		Date:        date,
		Description: field(c.desc),
		Amount:      amount,
		Credit:      credit,
		Reference:   chaseReference(date, amount, field(c.slip)),
		Type:        field(c.typ),
	}, nil
}

// chaseReference prefers the check or slip number, which Chase keeps unique
// per account, and otherwise keys on posting day and amount.
func chaseReference(date time.Time, amount decimal.Decimal, slip string) string {
	if slip != "" {
		return "chase_slip_" + slip
	}
	return fmt.Sprintf("chase_%s_%s", date.Format("20060102"), amount.StringFixed(2))
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
