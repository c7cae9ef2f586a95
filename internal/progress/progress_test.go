package progress

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

var now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func total(t *testing.T, amount string) model.DepositRequirement {
	t.Helper()
	req, err := model.TotalRequirement(dec(amount))
	require.NoError(t, err)
	return req
}

func each(t *testing.T, amount string, count int) model.DepositRequirement {
	t.Helper()
	req, err := model.EachRequirement(dec(amount), count)
	require.NoError(t, err)
	return req
}

func both(t *testing.T, totalAmount, eachAmount string, count int) model.DepositRequirement {
	t.Helper()
	req, err := model.BothRequirement(dec(totalAmount), dec(eachAmount), count)
	require.NoError(t, err)
	return req
}

func bonus(req model.DepositRequirement, amounts ...string) model.Bonus {
	b := model.Bonus{
		ID:          "1",
		BankName:    "Test Bank",
		AccountType: model.AccountTypeChecking,
		Amount:      dec("200"),
		Requirements: model.Requirements{
			Deposits:  req,
			TimeFrame: 90,
		},
		StartDate: day("2024-01-01"),
		Deposits:  []model.Deposit{},
	}
	for i, a := range amounts {
		b.Deposits = append(b.Deposits, model.Deposit{Amount: dec(a), Date: day("2024-01-01").AddDate(0, 0, i)})
	}
	return b
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestProgress_Total(t *testing.T) {
	b := bonus(total(t, "1000"), "500")
	assertDec(t, "0.5", Progress(b))
	assertDec(t, "500", RemainingAmount(b))
}

func TestProgress_Each(t *testing.T) {
	b := bonus(each(t, "100", 5), "100", "100")
	assertDec(t, "0.4", Progress(b))
	assertDec(t, "300", RemainingAmount(b))
}

func TestProgress_Both(t *testing.T) {
	b := bonus(both(t, "1000", "100", 10), "100", "100", "100")
	assertDec(t, "0.3", Progress(b))
	assertDec(t, "700", RemainingAmount(b))
}

func TestProgress_OverDepositCapsAtOne(t *testing.T) {
	b := bonus(total(t, "1000"), "1500")
	assertDec(t, "1", Progress(b))
	assertDec(t, "0", RemainingAmount(b))
	assert.True(t, IsCompleted(b))
}

func TestProgress_EachCountsSlotsOnly(t *testing.T) {
	// each does not look at deposit sizes, only at how many there are.
	b := bonus(each(t, "100", 2), "5", "5")
	assertDec(t, "1", Progress(b))
	assertDec(t, "0", RemainingAmount(b))
}

func TestProgress_BothSmallDepositFailsEachScore(t *testing.T) {
	b := bonus(both(t, "300", "100", 3), "100", "50", "150")
	assertDec(t, "0", Progress(b))
	assert.False(t, IsCompleted(b))
}

func TestProgress_BothNoDeposits(t *testing.T) {
	b := bonus(both(t, "1000", "100", 10))
	assertDec(t, "0", Progress(b))
	assertDec(t, "1000", RemainingAmount(b))
}

func TestProgress_UnrecognizedKindFailsClosed(t *testing.T) {
	b := bonus(model.DepositRequirement{}, "500", "500")
	assertDec(t, "0", Progress(b))
	assertDec(t, "0", RemainingAmount(b))
	assert.False(t, IsCompleted(b))
	assert.Equal(t, model.StateInProgress, State(b))
}

func TestProgress_Bounds(t *testing.T) {
	reqs := []model.DepositRequirement{
		total(t, "1000"),
		each(t, "100", 5),
		both(t, "1000", "100", 10),
		{},
	}
	deposits := [][]string{
		nil,
		{"1"},
		{"100", "100"},
		{"5000"},
		{"100", "100", "100", "100", "100", "100", "100", "100", "100", "100", "100"},
	}
	for _, req := range reqs {
		for _, ds := range deposits {
			p := Progress(bonus(req, ds...))
			assert.False(t, p.IsNegative(), "progress %s below 0 for %s %v", p, req, ds)
			assert.False(t, p.GreaterThan(one), "progress %s above 1 for %s %v", p, req, ds)
		}
	}
}

func TestProgress_MonotonicUnderAppends(t *testing.T) {
	reqs := []model.DepositRequirement{
		total(t, "1000"),
		each(t, "100", 5),
		both(t, "1000", "100", 5),
	}
	amounts := []string{"100", "250", "100", "400", "300", "100"}
	for _, req := range reqs {
		b := bonus(req)
		prev := Progress(b)
		for _, a := range amounts {
			b = b.WithDeposit(model.Deposit{Amount: dec(a), Date: now})
			cur := Progress(b)
			assert.False(t, cur.LessThan(prev), "%s: progress went from %s to %s", req, prev, cur)
			prev = cur
		}
	}
}

func TestIsCompleted_MatchesProgress(t *testing.T) {
	cases := []model.Bonus{
		bonus(total(t, "1000"), "1000"),
		bonus(total(t, "1000"), "500"),
		bonus(each(t, "100", 2), "100", "100"),
		bonus(each(t, "100", 2), "100"),
		bonus(both(t, "200", "100", 2), "100", "100"),
		bonus(both(t, "300", "100", 2), "100", "100"),
		bonus(total(t, "3"), "1", "1", "1"),
	}
	for _, b := range cases {
		assert.Equal(t, Progress(b).Equal(one), IsCompleted(b))
	}
}

func TestIsCompleted_ExactThirds(t *testing.T) {
	// Float arithmetic would land on 0.999... for these.
	b := bonus(total(t, "0.3"), "0.1", "0.1", "0.1")
	assert.True(t, IsCompleted(b))
}

func TestRemainingAmount_ZeroWhenCompleted(t *testing.T) {
	cases := []model.Bonus{
		bonus(total(t, "1000"), "1000"),
		bonus(total(t, "1000"), "600", "600"),
		bonus(each(t, "100", 2), "100", "100"),
		bonus(each(t, "100", 2), "100", "100", "100"),
	}
	for _, b := range cases {
		require.True(t, IsCompleted(b))
		assertDec(t, "0", RemainingAmount(b))
	}
}

func TestRemainingAmount_BothBoundary(t *testing.T) {
	// Count satisfied but total not: remaining comes from the total track.
	b := bonus(both(t, "1000", "100", 2), "100", "100")
	assertDec(t, "800", RemainingAmount(b))
	assert.False(t, IsCompleted(b))

	// Total satisfied but count not: remaining comes from the each track.
	b = bonus(both(t, "500", "100", 5), "600")
	assertDec(t, "400", RemainingAmount(b))
	assert.False(t, IsCompleted(b))

	// Completed with both tracks met: zero.
	b = bonus(both(t, "300", "100", 3), "100", "100", "100")
	assert.True(t, IsCompleted(b))
	assertDec(t, "0", RemainingAmount(b))

	// Tracks met numerically but one deposit too small: remaining is zero
	// even though the bonus is not complete.
	b = bonus(both(t, "300", "100", 3), "50", "100", "150")
	assert.False(t, IsCompleted(b))
	assertDec(t, "0", RemainingAmount(b))
}

func TestRemainingAmount_UsesMaxNotSum(t *testing.T) {
	b := bonus(both(t, "1000", "100", 10), "100")
	// total track: 900, each track: 9 * 100 = 900.
	assertDec(t, "900", RemainingAmount(b))

	b = bonus(both(t, "2000", "100", 4), "100")
	// total track: 1900, each track: 300.
	assertDec(t, "1900", RemainingAmount(b))
}

func TestRemainingDays(t *testing.T) {
	b := bonus(total(t, "1000"))
	assert.Equal(t, 90, RemainingDays(b, now))

	b.StartDate = day("2023-10-01")
	assert.Equal(t, 0, RemainingDays(b, now))
}

func TestRemainingDays_RoundsUp(t *testing.T) {
	b := bonus(total(t, "1000"))
	assert.Equal(t, 90, RemainingDays(b, now.Add(time.Minute)))
	assert.Equal(t, 89, RemainingDays(b, now.Add(Day)))
	assert.Equal(t, 1, RemainingDays(b, Deadline(b).Add(-time.Second)))
	assert.Equal(t, 0, RemainingDays(b, Deadline(b)))
	assert.Equal(t, 0, RemainingDays(b, Deadline(b).Add(time.Second)))
}

func TestRemainingDays_ZeroTimeFrame(t *testing.T) {
	b := bonus(total(t, "1000"))
	b.Requirements.TimeFrame = 0
	assert.Equal(t, 0, RemainingDays(b, now))
}

func TestCanWithdraw(t *testing.T) {
	b := bonus(total(t, "1000"))
	assert.True(t, CanWithdraw(b, now), "no hold period")

	b.Requirements.HoldPeriod = 60
	assert.False(t, CanWithdraw(b, now), "hold period just started")

	b.StartDate = day("2023-11-01")
	assert.True(t, CanWithdraw(b, now), "61 days ago")

	b.StartDate = now.Add(-60 * Day)
	assert.True(t, CanWithdraw(b, now), "exactly at hold end")

	b.StartDate = now.Add(-60*Day + time.Second)
	assert.False(t, CanWithdraw(b, now), "one second before hold end")
}

func TestVeryLongPeriodsDoNotWrap(t *testing.T) {
	b := bonus(total(t, "1000"))
	b.StartDate = now
	b.Requirements.TimeFrame = 200000
	b.Requirements.HoldPeriod = 200000

	assert.True(t, Deadline(b).Equal(now.AddDate(0, 0, 200000)))
	assert.Equal(t, 200000, RemainingDays(b, now))
	assert.Equal(t, 199999, RemainingDays(b, now.Add(Day)))
	assert.False(t, CanWithdraw(b, now))

	end, ok := HoldEndDate(b)
	require.True(t, ok)
	assert.True(t, end.After(now))

	st := Evaluate(b, now)
	assert.False(t, st.CanWithdraw)
	assert.Equal(t, 200000, st.RemainingDays)
}

func TestCanWithdraw_NoHoldIgnoresStart(t *testing.T) {
	b := bonus(total(t, "1000"))
	b.StartDate = now.AddDate(1, 0, 0)
	assert.True(t, CanWithdraw(b, now))
}

func TestNowWrappers(t *testing.T) {
	b := bonus(total(t, "1000"))
	b.StartDate = time.Now()
	assert.InDelta(t, 90, RemainingDaysNow(b), 1)
	assert.True(t, CanWithdrawNow(b))
}

func TestState(t *testing.T) {
	assert.Equal(t, model.StateNotStarted, State(bonus(total(t, "1000"))))
	assert.Equal(t, model.StateInProgress, State(bonus(total(t, "1000"), "10")))
	assert.Equal(t, model.StateCompleted, State(bonus(total(t, "1000"), "1000")))
}
