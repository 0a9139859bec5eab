package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/sprintctl/config"
	"github.com/otherjamesbrown/sprintctl/pkg/ledger"
)

type fakeHistory struct {
	entries []ledger.Entry
	limit   int
	closed  bool
}

func (f *fakeHistory) History(ctx context.Context, limit int) ([]ledger.Entry, error) {
	f.limit = limit
	return f.entries, nil
}

func (f *fakeHistory) Close() error {
	f.closed = true
	return nil
}

func historyDeps(h *fakeHistory) *HistoryCommandDeps {
	cfg := config.DefaultConfig()
	cfg.Ledger = &config.LedgerConfig{DSN: "postgres://localhost/ledger"}
	return &HistoryCommandDeps{
		Config:     cfg,
		OpenLedger: func(string) (CommandHistory, error) { return h, nil },
	}
}

func TestHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand(nil)
	assert.Equal(t, "history", cmd.Use)
	limit := cmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
}

func TestRunHistory_NotConfigured(t *testing.T) {
	deps := &HistoryCommandDeps{Config: config.DefaultConfig()}
	err := runHistory(context.Background(), deps, 20, "", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command ledger not configured")
}

func TestRunHistory_Table(t *testing.T) {
	h := &fakeHistory{entries: []ledger.Entry{{
		Command:    "process",
		Args:       []string{"t.txt"},
		DurationMs: 42,
		Success:    true,
		MeetingID:  "2026-05-01-01",
		CreatedAt:  time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}}}
	var out bytes.Buffer

	require.NoError(t, runHistory(context.Background(), historyDeps(h), 5, "", &out))
	assert.Equal(t, 5, h.limit)
	assert.True(t, h.closed)
	assert.Contains(t, out.String(), "process")
	assert.Contains(t, out.String(), "42ms")
	assert.Contains(t, out.String(), "2026-05-01-01")
}

func TestRunHistory_JSONAndEmpty(t *testing.T) {
	h := &fakeHistory{}
	var out bytes.Buffer
	require.NoError(t, runHistory(context.Background(), historyDeps(h), 20, "", &out))
	assert.Equal(t, "No commands recorded.\n", out.String())

	h.entries = []ledger.Entry{{Command: "tasks", Success: false, ErrorMessage: "boom"}}
	out.Reset()
	require.NoError(t, runHistory(context.Background(), historyDeps(h), 20, "json", &out))

	var got []ledger.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].ErrorMessage)
}
