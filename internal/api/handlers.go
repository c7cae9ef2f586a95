package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bonustrack-dev/bonustrack/internal/activity"
	"github.com/bonustrack-dev/bonustrack/internal/analytics"
	"github.com/bonustrack-dev/bonustrack/internal/bonus"
	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/parser"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
)

// BonusParser turns free text into a draft bonus.
type BonusParser interface {
	Parse(ctx context.Context, text string) (parser.Draft, error)
}

// Handler holds what the HTTP handlers need.
type Handler struct {
	bonuses *bonus.Service
	parser  BonusParser
	logger  *slog.Logger
	// OnChange, when set, is called after every successful mutation.
	OnChange func(ctx context.Context, e activity.Entry)
}

// NewHandler creates a Handler. p may be nil when no LLM is configured;
// /api/parse-bonus then answers 503.
func NewHandler(svc *bonus.Service, p BonusParser, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{bonuses: svc, parser: p, logger: logger}
}

// bonusResponse is a stored bonus plus its evaluated status.
type bonusResponse struct {
	model.Bonus
	Status progress.Status `json:"status"`
}

type parseRequest struct {
	Text string `json:"text"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   *time.Time      `json:"date,omitempty"`
}

func (h *Handler) respondBonus(w http.ResponseWriter, status int, b model.Bonus) {
	respondWithJSON(w, status, bonusResponse{Bonus: b, Status: progress.Evaluate(b, h.bonuses.Now())})
}

func (h *Handler) changed(ctx context.Context, action string, b model.Bonus, details string) {
	if h.OnChange == nil {
		return
	}
	h.OnChange(ctx, activity.Entry{
		Timestamp: h.bonuses.Now(),
		Action:    action,
		BonusID:   b.ID,
		Details:   details,
	})
}

func (h *Handler) handleParseBonus(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Bonus parser is not configured")
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to parse bonus text")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondWithError(w, http.StatusBadRequest, "Missing bonus text")
		return
	}

	draft, err := h.parser.Parse(r.Context(), req.Text)
	var invalid *parser.InvalidResponseError
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, draft)
	case errors.Is(err, parser.ErrEmptyText):
		respondWithError(w, http.StatusBadRequest, "Missing bonus text")
	case errors.As(err, &invalid):
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":       "Invalid JSON returned from LLM",
			"rawResponse": invalid.Raw,
		})
	default:
		h.logger.Error("parsing bonus failed", "error", err)
		respondWithError(w, http.StatusBadRequest, "Failed to parse bonus text")
	}
}

func (h *Handler) handleListBonuses(w http.ResponseWriter, r *http.Request) {
	key, err := analytics.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.bonuses.Now()
	sorted := analytics.Sort(h.bonuses.All(), key)
	out := make([]bonusResponse, len(sorted))
	for i, b := range sorted {
		out[i] = bonusResponse{Bonus: b, Status: progress.Evaluate(b, now)}
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateBonus(w http.ResponseWriter, r *http.Request) {
	var b model.Bonus
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	added, err := h.bonuses.Add(r.Context(), b)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.changed(r.Context(), activity.ActionAdd, added, added.BankName+" "+added.Requirements.Deposits.String())
	h.respondBonus(w, http.StatusCreated, added)
}

func (h *Handler) handleGetBonus(w http.ResponseWriter, r *http.Request) {
	b, err := h.bonuses.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondBonus(w, http.StatusOK, b)
}

func (h *Handler) handleUpdateBonus(w http.ResponseWriter, r *http.Request) {
	existing, err := h.bonuses.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	var b model.Bonus
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	b.ID = existing.ID
	if b.StartDate.IsZero() {
		b.StartDate = existing.StartDate
	}
	if b.Deposits == nil {
		b.Deposits = existing.Deposits
	}

	updated, err := h.bonuses.Update(r.Context(), b)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.changed(r.Context(), activity.ActionUpdate, updated, updated.BankName)
	h.respondBonus(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteBonus(w http.ResponseWriter, r *http.Request) {
	removed, err := h.bonuses.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.changed(r.Context(), activity.ActionDelete, removed, removed.BankName)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	d := model.Deposit{Amount: req.Amount}
	if req.Date != nil {
		d.Date = *req.Date
	}

	updated, err := h.bonuses.AddDeposit(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.changed(r.Context(), activity.ActionDeposit, updated, updated.BankName+" deposit "+req.Amount.StringFixed(2))
	h.respondBonus(w, http.StatusCreated, updated)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, analytics.Summarize(h.bonuses.All(), h.bonuses.Now()))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bonus.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, bonus.ErrAmbiguousID):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bonus.ErrCompleted), errors.Is(err, bonus.ErrDuplicateID):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, bonus.ErrInvalid), errors.Is(err, model.ErrInvalidDeposit):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
