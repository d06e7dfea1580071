package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/models"
	"github.com/saravenpi/chatdeck/internal/store"
)

func TestPrintHistory(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, db.SaveChat(ctx, store.Chat{ChatSummary: models.ChatSummary{
			ID:        fmt.Sprintf("today-%d", i),
			Title:     fmt.Sprintf("Today %d", i),
			CreatedAt: now.Add(-time.Duration(i+1) * time.Minute),
			UserID:    "u1",
		}}))
	}
	require.NoError(t, db.SaveChat(ctx, store.Chat{ChatSummary: models.ChatSummary{
		ID:        "old",
		Title:     "Old chat",
		CreatedAt: now.AddDate(-1, 0, 0),
		UserID:    "u1",
	}}))

	source := store.HistorySource{Store: db, UserID: "u1"}
	p := history.NewPaginator(source, source, history.WithPageSize(2))

	var out bytes.Buffer
	require.NoError(t, printHistory(ctx, &out, p, now))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Today\n"))
	assert.Contains(t, text, "Older than 30 days\n")
	assert.Equal(t, 6, strings.Count(text, "  20"))
	assert.Less(t, strings.Index(text, "today-4"), strings.Index(text, "Old chat"))
	assert.True(t, p.Snapshot().ReachedEnd)
}

func TestPrintHistory_Empty(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer db.Close()

	source := store.HistorySource{Store: db, UserID: "u1"}
	p := history.NewPaginator(source, source)

	var out bytes.Buffer
	require.NoError(t, printHistory(context.Background(), &out, p, time.Now()))
	assert.Equal(t, "Your conversations will appear here once you start chatting.\n", out.String())
}
