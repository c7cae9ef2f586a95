package parser

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonustrack-dev/bonustrack/internal/config"
	"github.com/bonustrack-dev/bonustrack/internal/model"
)

const chaseReply = `{
  "bankName": "Chase",
  "accountType": "Checking",
  "amount": 300,
  "requirements": {
    "deposits": {"type": "total", "totalAmount": 500},
    "timeFrame": 90,
    "holdPeriod": 180
  }
}`

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	fc := &fakeCompleter{reply: chaseReply}
	d, err := New(fc, quiet()).Parse(context.Background(), "  Chase $300 bonus with $500 direct deposit  ")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(fc.prompt, "Bank bonus description to parse:\n\nChase $300 bonus with $500 direct deposit"))
	assert.Equal(t, "Chase", d.BankName)
	assert.Equal(t, model.AccountTypeChecking, d.AccountType)
	assert.Equal(t, "300", d.Amount.String())
	assert.Equal(t, model.KindTotal, d.Requirements.Deposits.Kind())
	assert.Equal(t, "500", d.Requirements.Deposits.TotalAmount().String())
	assert.Equal(t, 90, d.Requirements.TimeFrame)
	assert.Equal(t, 180, d.Requirements.HoldPeriod)
}

func TestParseEmptyText(t *testing.T) {
	fc := &fakeCompleter{reply: chaseReply}
	_, err := New(fc, quiet()).Parse(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, fc.prompt)
}

func TestParseCompleterError(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := New(&fakeCompleter{err: boom}, quiet()).Parse(context.Background(), "text")
	assert.ErrorIs(t, err, boom)

	var invalid *InvalidResponseError
	assert.False(t, errors.As(err, &invalid))
}

func TestParseInvalidResponses(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "Here is the bonus you asked for."},
		{"truncated", `{"bankName": "Chase"`},
		{"bad json", `{"bankName": }`},
		{"missing bank", `{"accountType":"Checking","amount":1,"requirements":{"deposits":{"type":"total","totalAmount":1},"timeFrame":1}}`},
		{"bad account type", `{"bankName":"X","accountType":"Brokerage","amount":1,"requirements":{"deposits":{"type":"total","totalAmount":1},"timeFrame":1}}`},
		{"missing deposits", `{"bankName":"X","accountType":"Checking","amount":1,"requirements":{"timeFrame":1}}`},
		{"each without count", `{"bankName":"X","accountType":"Checking","amount":1,"requirements":{"deposits":{"type":"each","eachAmount":100},"timeFrame":1}}`},
		{"negative time frame", `{"bankName":"X","accountType":"Checking","amount":1,"requirements":{"deposits":{"type":"total","totalAmount":1},"timeFrame":-1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeCompleter{reply: tt.reply}, quiet()).Parse(context.Background(), "text")
			var invalid *InvalidResponseError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.reply, invalid.Raw)
		})
	}
}

func TestParseFencedReply(t *testing.T) {
	reply := "```json\n" + chaseReply + "\n```"
	d, err := New(&fakeCompleter{reply: reply}, quiet()).Parse(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "Chase", d.BankName)
}

func TestParseNormalizesAccountType(t *testing.T) {
	reply := `{"bankName":"Ally","accountType":"money market","amount":100,"requirements":{"deposits":{"type":"each","eachAmount":250,"count":4},"timeFrame":60}}`
	d, err := New(&fakeCompleter{reply: reply}, quiet()).Parse(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeMoneyMarket, d.AccountType)
	assert.Equal(t, 4, d.Requirements.Deposits.Count())
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"```\n{\"a\":1}```", `{"a":1}`, true},
		{"  \n{\"a\":1}\n  ", `{"a":1}`, true},
		{`Sure! {"a":1}`, `Sure! {"a":1}`, false},
		{`[1,2]`, `[1,2]`, false},
	}
	for _, tt := range tests {
		got, ok := cleanJSONResponse(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDraftBonus(t *testing.T) {
	d, err := decodeDraft(chaseReply)
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := d.Bonus("id-1", start)
	assert.Equal(t, "id-1", b.ID)
	assert.Equal(t, "Chase", b.BankName)
	assert.True(t, b.StartDate.Equal(start))
	assert.NotNil(t, b.Deposits)
	assert.Empty(t, b.Deposits)
	assert.Empty(t, model.Validate(b))
}

func TestOpenAICompleterMissingKey(t *testing.T) {
	_, err := NewOpenAICompleter(config.Default().Parser, "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAICompleter(t *testing.T) {
	var gotReq map[string]any
	var gotAuth, gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "llama-3.3-70b",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": chaseReply},
			}},
		})
	}))
	defer srv.Close()

	cfg := config.Default().Parser
	cfg.BaseURL = srv.URL + "/v1"
	c, err := NewOpenAICompleter(cfg, "test-key")
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, chaseReply, out)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.True(t, strings.HasPrefix(gotUA, "bonustrack/"), gotUA)
	assert.Equal(t, "llama-3.3-70b", gotReq["model"])
	assert.InDelta(t, 0.1, gotReq["temperature"], 0.0001)
	assert.InDelta(t, 1000, gotReq["max_tokens"], 0.0001)
	msgs, ok := gotReq["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "hello", msgs[0].(map[string]any)["content"])
}
