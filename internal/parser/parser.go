// Package parser turns a free-text bank bonus description into a draft
// bonus by asking a chat-completion model for structured JSON.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

// ErrEmptyText is returned when there is nothing to parse.
var ErrEmptyText = errors.New("missing bonus text")

// InvalidResponseError means the model answered, but not with a usable
// bonus object. Raw is the model's reply, unmodified.
type InvalidResponseError struct {
	Raw string
	Err error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid JSON returned from LLM: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

// Completer sends a single user prompt to a chat model and returns the
// reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Draft is a parsed bonus before it has an ID, a start date or deposits.
type Draft struct {
	BankName     string             `json:"bankName"`
	AccountType  model.AccountType  `json:"accountType"`
	Amount       decimal.Decimal    `json:"amount"`
	Requirements model.Requirements `json:"requirements"`
}

// Bonus converts the draft into a bonus with no deposits.
func (d Draft) Bonus(id string, start time.Time) model.Bonus {
	return model.Bonus{
		ID:           id,
		BankName:     d.BankName,
		AccountType:  d.AccountType,
		Amount:       d.Amount,
		Requirements: d.Requirements,
		StartDate:    start,
		Deposits:     []model.Deposit{},
	}
}

// Parser extracts drafts through a Completer.
type Parser struct {
	completer Completer
	logger    *slog.Logger
}

// New creates a Parser.
func New(c Completer, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{completer: c, logger: logger}
}

// Parse asks the model to structure text and decodes its reply.
func (p *Parser) Parse(ctx context.Context, text string) (Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Draft{}, ErrEmptyText
	}

	raw, err := p.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		return Draft{}, fmt.Errorf("completing prompt: %w", err)
	}

	draft, err := decodeDraft(raw)
	if err != nil {
		p.logger.Error("LLM response rejected", "error", err, "raw", raw)
		return Draft{}, &InvalidResponseError{Raw: raw, Err: err}
	}
	p.logger.Debug("parsed bonus", "bank", draft.BankName, "requirement", draft.Requirements.Deposits.String())
	return draft, nil
}

func decodeDraft(raw string) (Draft, error) {
	cleaned, ok := cleanJSONResponse(raw)
	if !ok {
		return Draft{}, errors.New("response must start with { and end with }")
	}

	var d Draft
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return Draft{}, err
	}
	d.BankName = strings.TrimSpace(d.BankName)
	if d.BankName == "" {
		return Draft{}, errors.New("bankName is required")
	}
	at, err := model.ParseAccountType(string(d.AccountType))
	if err != nil {
		return Draft{}, err
	}
	d.AccountType = at
	if d.Amount.IsNegative() {
		return Draft{}, fmt.Errorf("amount must be >= 0, got %s", d.Amount)
	}
	if !d.Requirements.Deposits.Kind().Valid() {
		return Draft{}, errors.New("requirements.deposits is required")
	}
	if err := d.Requirements.Deposits.Check(); err != nil {
		return Draft{}, err
	}
	if d.Requirements.TimeFrame < 0 || d.Requirements.HoldPeriod < 0 {
		return Draft{}, errors.New("timeFrame and holdPeriod must be >= 0")
	}
	return d, nil
}
