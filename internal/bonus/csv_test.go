package bonus

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonustrack-dev/bonustrack/internal/model"
)

func TestWriteCSV(t *testing.T) {
	b := newBonus(t, "a", "500")
	b.Requirements.HoldPeriod = 30
	b.Deposits = []model.Deposit{{Amount: decimal.NewFromInt(250), Date: now}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []model.Bonus{b}, now))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])

	row := records[1]
	assert.Equal(t, "a", row[colID])
	assert.Equal(t, "Chase", row[colBank])
	assert.Equal(t, "Checking", row[colAccountType])
	assert.Equal(t, "300.00", row[colAmount])
	assert.Equal(t, "total 500.00", row[colRequirement])
	assert.Equal(t, "500.00", row[colRequiredDeposit])
	assert.Equal(t, "250.00", row[colDeposited])
	assert.Equal(t, "50", row[colPercent])
	assert.Equal(t, "in-progress", row[colState])
	assert.Equal(t, "250.00", row[colRemainingAmount])
	assert.Equal(t, "90", row[colRemainingDays])
	assert.Equal(t, "2024-03-31", row[colDeadline])
	assert.Equal(t, "false", row[colCanWithdraw])
	assert.Equal(t, "2024-01-31", row[colHoldEnd])
}

func TestMarshalRowNoHoldPeriod(t *testing.T) {
	row := MarshalRow(newBonus(t, "a", "500"), now)
	assert.Len(t, row, numFields)
	assert.Equal(t, "", row[colHoldEnd])
	assert.Equal(t, "not-started", row[colState])
	assert.Equal(t, "true", row[colCanWithdraw])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, now))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
