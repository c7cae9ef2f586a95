package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidRequirement is wrapped by every requirement construction failure.
var ErrInvalidRequirement = errors.New("invalid deposit requirement")

// RequirementKind tags a DepositRequirement.
type RequirementKind string

const (
	// KindTotal requires the sum of all deposits to reach TotalAmount.
	KindTotal RequirementKind = "total"
	// KindEach requires Count deposits of at least EachAmount.
	KindEach RequirementKind = "each"
	// KindBoth requires the total and the each/count constraints at once.
	KindBoth RequirementKind = "both"
)

// Valid reports whether k is a known kind.
func (k RequirementKind) Valid() bool {
	switch k {
	case KindTotal, KindEach, KindBoth:
		return true
	}
	return false
}

// DepositRequirement describes how deposits satisfy a bonus. Fields are only
// set through the constructors, which validate them per kind. The zero value
// has no kind and represents an unrecognized requirement.
type DepositRequirement struct {
	kind        RequirementKind
	totalAmount decimal.Decimal
	eachAmount  decimal.Decimal
	count       int
}

// TotalRequirement returns a requirement on the sum of deposits.
func TotalRequirement(total decimal.Decimal) (DepositRequirement, error) {
	if !total.IsPositive() {
		return DepositRequirement{}, fmt.Errorf("%w: total amount must be > 0, got %s", ErrInvalidRequirement, total)
	}
	return DepositRequirement{kind: KindTotal, totalAmount: total}, nil
}

// EachRequirement returns a requirement on the number of deposits, each of
// at least each. A zero each accepts deposits of any size.
func EachRequirement(each decimal.Decimal, count int) (DepositRequirement, error) {
	if each.IsNegative() {
		return DepositRequirement{}, fmt.Errorf("%w: each amount must be >= 0, got %s", ErrInvalidRequirement, each)
	}
	if count < 1 {
		return DepositRequirement{}, fmt.Errorf("%w: count must be >= 1, got %d", ErrInvalidRequirement, count)
	}
	return DepositRequirement{kind: KindEach, eachAmount: each, count: count}, nil
}

// BothRequirement combines a total requirement with an each/count requirement.
func BothRequirement(total, each decimal.Decimal, count int) (DepositRequirement, error) {
	t, err := TotalRequirement(total)
	if err != nil {
		return DepositRequirement{}, err
	}
	e, err := EachRequirement(each, count)
	if err != nil {
		return DepositRequirement{}, err
	}
	return DepositRequirement{kind: KindBoth, totalAmount: t.totalAmount, eachAmount: e.eachAmount, count: e.count}, nil
}

// NewDepositRequirement dispatches on kind. Values irrelevant to kind are ignored.
func NewDepositRequirement(kind RequirementKind, total, each decimal.Decimal, count int) (DepositRequirement, error) {
	switch kind {
	case KindTotal:
		return TotalRequirement(total)
	case KindEach:
		return EachRequirement(each, count)
	case KindBoth:
		return BothRequirement(total, each, count)
	default:
		return DepositRequirement{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRequirement, kind)
	}
}

// Kind returns the requirement tag, empty for the zero value.
func (r DepositRequirement) Kind() RequirementKind { return r.kind }

// TotalAmount is set for total and both.
func (r DepositRequirement) TotalAmount() decimal.Decimal { return r.totalAmount }

// EachAmount is set for each and both.
func (r DepositRequirement) EachAmount() decimal.Decimal { return r.eachAmount }

// Count is set for each and both.
func (r DepositRequirement) Count() int { return r.count }

// RequiredDeposit is the nominal amount a user has to put in to satisfy r.
// For both it is the total plus count x each.
func (r DepositRequirement) RequiredDeposit() decimal.Decimal {
	perSlot := r.eachAmount.Mul(decimal.NewFromInt(int64(r.count)))
	switch r.kind {
	case KindTotal:
		return r.totalAmount
	case KindEach:
		return perSlot
	case KindBoth:
		return r.totalAmount.Add(perSlot)
	}
	return decimal.Zero
}

func (r DepositRequirement) String() string {
	switch r.kind {
	case KindTotal:
		return fmt.Sprintf("total %s", r.totalAmount.StringFixed(2))
	case KindEach:
		return fmt.Sprintf("%d x %s", r.count, r.eachAmount.StringFixed(2))
	case KindBoth:
		return fmt.Sprintf("total %s and %d x %s", r.totalAmount.StringFixed(2), r.count, r.eachAmount.StringFixed(2))
	}
	return "unrecognized"
}

type requirementJSON struct {
	Type        RequirementKind  `json:"type"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	EachAmount  *decimal.Decimal `json:"eachAmount,omitempty"`
	Count       *int             `json:"count,omitempty"`
}

// MarshalJSON writes only the fields relevant to the kind.
func (r DepositRequirement) MarshalJSON() ([]byte, error) {
	w := requirementJSON{Type: r.kind}
	switch r.kind {
	case KindTotal:
		w.TotalAmount = &r.totalAmount
	case KindEach:
		w.EachAmount = &r.eachAmount
		w.Count = &r.count
	case KindBoth:
		w.TotalAmount = &r.totalAmount
		w.EachAmount = &r.eachAmount
		w.Count = &r.count
	default:
		if !r.totalAmount.IsZero() {
			w.TotalAmount = &r.totalAmount
		}
		if !r.eachAmount.IsZero() {
			w.EachAmount = &r.eachAmount
		}
		if r.count != 0 {
			w.Count = &r.count
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads stored data leniently: missing or null fields are
// zero and an unknown type is kept so it round-trips. Check enforces the
// constructor rules on the result.
func (r *DepositRequirement) UnmarshalJSON(data []byte) error {
	var w requirementJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding deposit requirement: %w", err)
	}

	out := DepositRequirement{kind: w.Type}
	if w.TotalAmount != nil {
		out.totalAmount = *w.TotalAmount
	}
	if w.EachAmount != nil {
		out.eachAmount = *w.EachAmount
	}
	if w.Count != nil {
		out.count = *w.Count
	}
	*r = out
	return nil
}

// Check returns the error the constructors would have returned for r.
func (r DepositRequirement) Check() error {
	_, err := NewDepositRequirement(r.kind, r.totalAmount, r.eachAmount, r.count)
	return err
}
