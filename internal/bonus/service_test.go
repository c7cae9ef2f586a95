package bonus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
	"github.com/bonustrack-dev/bonustrack/internal/store"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// memStore is an in-memory store.Store that can be told to fail saves.
type memStore struct {
	bonuses []model.Bonus
	saves   int
	failErr error
}

func (m *memStore) Load(context.Context) ([]model.Bonus, error) {
	out := make([]model.Bonus, len(m.bonuses))
	for i, b := range m.bonuses {
		out[i] = b.Clone()
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, bonuses []model.Bonus) error {
	m.saves++
	if m.failErr != nil {
		return m.failErr
	}
	m.bonuses = make([]model.Bonus, len(bonuses))
	for i, b := range bonuses {
		m.bonuses[i] = b.Clone()
	}
	return nil
}

func (m *memStore) Close() error { return nil }

var _ store.Store = (*memStore)(nil)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBonus(t *testing.T, id, total string) model.Bonus {
	t.Helper()
	req, err := model.TotalRequirement(decimal.RequireFromString(total))
	require.NoError(t, err)
	return model.Bonus{
		ID:           id,
		BankName:     "Chase",
		AccountType:  model.AccountTypeChecking,
		Amount:       decimal.NewFromInt(300),
		Requirements: model.Requirements{Deposits: req, TimeFrame: 90},
		StartDate:    now,
	}
}

func newService(t *testing.T, st *memStore) *Service {
	t.Helper()
	svc := NewService(st, quietLogger()).WithClock(func() time.Time { return now })
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func TestAddAndGet(t *testing.T) {
	st := &memStore{}
	svc := newService(t, st)

	added, err := svc.Add(context.Background(), newBonus(t, "", "500"))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.NotNil(t, added.Deposits)
	assert.Equal(t, 1, st.saves)
	require.Len(t, st.bonuses, 1)

	got, err := svc.Get(added.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, 1, svc.Len())
}

func TestAddDefaultsStartDate(t *testing.T) {
	svc := newService(t, &memStore{})
	b := newBonus(t, "x", "500")
	b.StartDate = time.Time{}
	b.BankName = "  Chase  "

	added, err := svc.Add(context.Background(), b)
	require.NoError(t, err)
	assert.True(t, added.StartDate.Equal(now))
	assert.Equal(t, "Chase", added.BankName)
}

func TestAddRejectsInvalid(t *testing.T) {
	st := &memStore{}
	svc := newService(t, st)
	b := newBonus(t, "x", "500")
	b.BankName = ""

	_, err := svc.Add(context.Background(), b)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "bankName")
	assert.Equal(t, 0, st.saves)
	assert.Equal(t, 0, svc.Len())
}

func TestAddDuplicateID(t *testing.T) {
	svc := newService(t, &memStore{})
	_, err := svc.Add(context.Background(), newBonus(t, "dup", "500"))
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), newBonus(t, "dup", "500"))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGetErrors(t *testing.T) {
	svc := newService(t, &memStore{bonuses: []model.Bonus{
		newBonus(t, "abc1", "500"),
		newBonus(t, "abc2", "500"),
	}})

	_, err := svc.Get("zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get("abc")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	got, err := svc.Get("abc2")
	require.NoError(t, err)
	assert.Equal(t, "abc2", got.ID)
}

func TestAllReturnsCopies(t *testing.T) {
	svc := newService(t, &memStore{bonuses: []model.Bonus{newBonus(t, "a", "500")}})

	all := svc.All()
	all[0].BankName = "changed"
	all[0].Deposits = append(all[0].Deposits, model.Deposit{Amount: decimal.NewFromInt(1), Date: now})

	got, err := svc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Chase", got.BankName)
	assert.Empty(t, got.Deposits)
}

func TestUpdate(t *testing.T) {
	st := &memStore{bonuses: []model.Bonus{newBonus(t, "a", "500")}}
	svc := newService(t, st)

	b, err := svc.Get("a")
	require.NoError(t, err)
	b.BankName = "Citi"
	_, err = svc.Update(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "Citi", st.bonuses[0].BankName)

	_, err = svc.Update(context.Background(), newBonus(t, "missing", "500"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	st := &memStore{bonuses: []model.Bonus{newBonus(t, "a", "500"), newBonus(t, "b", "500")}}
	svc := newService(t, st)

	removed, err := svc.Delete(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", removed.ID)
	require.Len(t, st.bonuses, 1)
	assert.Equal(t, "b", st.bonuses[0].ID)

	_, err = svc.Delete(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddDeposit(t *testing.T) {
	st := &memStore{bonuses: []model.Bonus{newBonus(t, "a", "500")}}
	svc := newService(t, st)

	updated, err := svc.AddDeposit(context.Background(), "a", model.Deposit{Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	require.Len(t, updated.Deposits, 1)
	assert.True(t, updated.Deposits[0].Date.Equal(now))
	require.Len(t, st.bonuses[0].Deposits, 1)

	_, err = svc.AddDeposit(context.Background(), "a", model.Deposit{Amount: decimal.Zero})
	assert.ErrorIs(t, err, model.ErrInvalidDeposit)

	_, err = svc.AddDeposit(context.Background(), "nope", model.Deposit{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddDepositRejectsCompleted(t *testing.T) {
	st := &memStore{bonuses: []model.Bonus{newBonus(t, "a", "500")}}
	svc := newService(t, st)

	_, err := svc.AddDeposit(context.Background(), "a", model.Deposit{Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	_, err = svc.AddDeposit(context.Background(), "a", model.Deposit{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrCompleted)
	assert.Len(t, st.bonuses[0].Deposits, 1)
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	var logs bytes.Buffer
	st := &memStore{}
	svc := NewService(st, slog.New(slog.NewTextHandler(&logs, nil))).WithClock(func() time.Time { return now })
	require.NoError(t, svc.Load(context.Background()))

	st.failErr = errors.New("disk full")
	added, err := svc.Add(context.Background(), newBonus(t, "a", "500"))
	require.Error(t, err)
	assert.ErrorIs(t, err, st.failErr)
	assert.Equal(t, "a", added.ID)
	assert.Equal(t, 1, svc.Len())
	assert.Contains(t, logs.String(), "saving bonuses failed")
}

func TestLoadLogsDataErrors(t *testing.T) {
	var logs bytes.Buffer
	bad := newBonus(t, "bad", "500")
	bad.Requirements.Deposits = model.DepositRequirement{}
	st := &memStore{bonuses: []model.Bonus{bad, newBonus(t, "good", "500")}}

	svc := NewService(st, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, svc.Load(context.Background()))

	assert.Equal(t, 2, svc.Len())
	assert.Contains(t, logs.String(), "data error")
	assert.Contains(t, logs.String(), "bonus=bad")
	assert.NotContains(t, logs.String(), "bonus=good")
}

func TestServiceOverJSONFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(store.NewJSONFile(dir, store.DefaultKey), quietLogger())
	require.NoError(t, svc.Load(context.Background()))
	_, err := svc.Add(context.Background(), newBonus(t, "a", "500"))
	require.NoError(t, err)

	reloaded := NewService(store.NewJSONFile(dir, store.DefaultKey), quietLogger())
	require.NoError(t, reloaded.Load(context.Background()))
	got, err := reloaded.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "Chase", got.BankName)
}

func TestLoadFromFileKeepsEveryRecord(t *testing.T) {
	dir := t.TempDir()
	data := `[
  {"id":"good","bankName":"Chase","accountType":"Checking","amount":300,
   "requirements":{"deposits":{"type":"total","totalAmount":500},"timeFrame":90},
   "startDate":"2024-01-01T00:00:00Z","deposits":[{"amount":100,"date":"2024-01-02T00:00:00Z"}]},
  {"id":"null-total","bankName":"Wells","accountType":"Checking","amount":200,
   "requirements":{"deposits":{"type":"total","totalAmount":null},"timeFrame":90},
   "startDate":"2024-01-01T00:00:00Z","deposits":[]},
  {"id":"weekly","bankName":"Ally","accountType":"Savings","amount":100,
   "requirements":{"deposits":{"type":"weekly","totalAmount":1000},"timeFrame":30},
   "startDate":"2024-01-01T00:00:00Z","deposits":[{"amount":50,"date":"2024-01-02T00:00:00Z"}]}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bankBonuses.json"), []byte(data), 0o644))

	var logs bytes.Buffer
	svc := NewService(store.NewJSONFile(dir, store.DefaultKey), slog.New(slog.NewTextHandler(&logs, nil))).
		WithClock(func() time.Time { return now })
	require.NoError(t, svc.Load(context.Background()))
	require.Equal(t, 3, svc.Len())

	out := logs.String()
	assert.Equal(t, 2, strings.Count(out, "data error"))
	assert.Contains(t, out, "bonus=null-total")
	assert.Contains(t, out, "field=requirements.deposits ")
	assert.Contains(t, out, "bonus=weekly")
	assert.Contains(t, out, "field=requirements.deposits.type")
	assert.NotContains(t, out, "bonus=good")

	weekly, err := svc.Get("weekly")
	require.NoError(t, err)
	assert.True(t, progress.Progress(weekly).Equal(progress.UnrecognizedProgress))
	assert.True(t, progress.RemainingAmount(weekly).IsZero())

	good, err := svc.Get("good")
	require.NoError(t, err)
	assert.Equal(t, "0.2", progress.Progress(good).String())
}
