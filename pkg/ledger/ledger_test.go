package ledger

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open("")
	assert.EqualError(t, err, "ledger not configured")
}

func TestOpen_IsLazy(t *testing.T) {
	l, err := Open("postgres://nobody@127.0.0.1:1/none?sslmode=disable")
	require.NoError(t, err)
	assert.NoError(t, l.Close())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdef", 5, "abcde"},
		{"rune boundary", "abcdé", 5, "abcd"},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.max))
		})
	}
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "x", nullIfEmpty("x"))
}

func TestLedger_Integration(t *testing.T) {
	dsn := os.Getenv("SPRINTCTL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SPRINTCTL_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	l, err := Open(dsn)
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.Migrate(ctx))

	err = l.Log(ctx, &Entry{
		Command:      "process",
		Args:         []string{"transcript.txt", "--date", "2026-05-02"},
		FullCommand:  "sprintctl process transcript.txt --date 2026-05-02",
		DurationMs:   42,
		Success:      false,
		ErrorMessage: strings.Repeat("x", 600),
		RunID:        "run-ledger-test",
		MeetingID:    "2026-05-02-01",
	})
	require.NoError(t, err)

	entries, err := l.History(ctx, 50)
	require.NoError(t, err)
	var found *Entry
	for i := range entries {
		if entries[i].RunID == "run-ledger-test" {
			found = &entries[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []string{"transcript.txt", "--date", "2026-05-02"}, found.Args)
	assert.Len(t, found.ErrorMessage, maxMessageLen)
	assert.False(t, found.Success)
}
