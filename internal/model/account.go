package model

import (
	"fmt"
	"strings"
)

// AccountType classifies the bank account a bonus is attached to.
type AccountType string

const (
	AccountTypeChecking    AccountType = "Checking"
	AccountTypeSavings     AccountType = "Savings"
	AccountTypeMoneyMarket AccountType = "Money Market"
)

// AccountTypes lists every supported account type in display order.
func AccountTypes() []AccountType {
	return []AccountType{AccountTypeChecking, AccountTypeSavings, AccountTypeMoneyMarket}
}

// ParseAccountType matches s case-insensitively. "money-market" and
// "money_market" are accepted for flag convenience.
func ParseAccountType(s string) (AccountType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, at := range AccountTypes() {
		if strings.ToLower(string(at)) == norm {
			return at, nil
		}
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

// Valid reports whether t is one of the supported account types.
func (t AccountType) Valid() bool {
	for _, at := range AccountTypes() {
		if t == at {
			return true
		}
	}
	return false
}
