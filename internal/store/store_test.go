package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir() + "/chatdeck.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedChats stores n chats for userID, one minute apart; c1 is the oldest.
func seedChats(t *testing.T, s *Store, userID string, n int) {
	t.Helper()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		require.NoError(t, s.SaveChat(context.Background(), Chat{ChatSummary: models.ChatSummary{
			ID:        fmt.Sprintf("%s-c%02d", userID, i),
			Title:     fmt.Sprintf("chat %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UserID:    userID,
		}}))
	}
}

func ids(chats []models.ChatSummary) []string {
	out := make([]string, len(chats))
	for i, c := range chats {
		out[i] = c.ID
	}
	return out
}

func TestInitSchema_Idempotent(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.InitSchema())
}

func TestChatRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	created := time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.SaveChat(ctx, Chat{
		ChatSummary: models.ChatSummary{ID: "c1", Title: "Hello", CreatedAt: created, UserID: "u1"},
		Model:       "gpt-4o",
	}))

	chat, err := s.GetChatByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", chat.Title)
	assert.Equal(t, models.VisibilityPrivate, chat.Visibility)
	assert.Equal(t, "gpt-4o", chat.Model)
	assert.True(t, created.Equal(chat.CreatedAt))

	require.NoError(t, s.UpdateChatTitle(ctx, "c1", "Renamed"))
	chat, err = s.GetChatByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", chat.Title)

	_, err = s.GetChatByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateChatTitle(ctx, "nope", "x"), ErrNotFound)
}

func TestListChats_Paging(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedChats(t, s, "u1", 25)
	seedChats(t, s, "u2", 3)

	first, err := s.ListChats(ctx, "u1", 20, "")
	require.NoError(t, err)
	assert.True(t, first.HasMore)
	require.Len(t, first.Chats, 20)
	assert.Equal(t, "u1-c25", first.Chats[0].ID)
	assert.Equal(t, "u1-c06", first.Chats[19].ID)

	second, err := s.ListChats(ctx, "u1", 20, first.Chats[19].ID)
	require.NoError(t, err)
	assert.False(t, second.HasMore)
	assert.Equal(t, []string{"u1-c05", "u1-c04", "u1-c03", "u1-c02", "u1-c01"}, ids(second.Chats))

	_, err = s.ListChats(ctx, "u1", 20, "u2-c01")
	assert.ErrorIs(t, err, ErrNotFound, "pivot of another user")
}

func TestListChats_ExactMultipleEndsWithEmptyPage(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedChats(t, s, "u1", 4)

	page, err := s.ListChats(ctx, "u1", 4, "")
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Len(t, page.Chats, 4)

	empty, err := s.ListChats(ctx, "u9", 4, "")
	require.NoError(t, err)
	assert.NotNil(t, empty.Chats)
	assert.Empty(t, empty.Chats)
}

func TestDeleteChatByID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedChats(t, s, "u1", 2)
	require.NoError(t, s.SaveMessage(ctx, models.Message{ID: "m1", ChatID: "u1-c01", Role: models.RoleUser, Content: "hi", CreatedAt: time.Now()}))

	assert.ErrorIs(t, s.DeleteChatByID(ctx, "u2", "u1-c01"), ErrForbidden)
	assert.ErrorIs(t, s.DeleteChatByID(ctx, "u1", "missing"), ErrNotFound)

	require.NoError(t, s.DeleteChatByID(ctx, "u1", "u1-c01"))
	_, err := s.GetChatByID(ctx, "u1-c01")
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := s.GetMessagesByChatID(ctx, "u1-c01")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMessagesOrdered(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedChats(t, s, "u1", 1)
	now := time.Now()
	require.NoError(t, s.SaveMessage(ctx, models.Message{ID: "m2", ChatID: "u1-c01", Role: models.RoleAssistant, Content: "second", CreatedAt: now.Add(time.Second)}))
	require.NoError(t, s.SaveMessage(ctx, models.Message{ID: "m1", ChatID: "u1-c01", Role: models.RoleUser, Content: "first", CreatedAt: now}))

	msgs, err := s.GetMessagesByChatID(ctx, "u1-c01")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func TestHistorySource_DrivesPaginator(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seedChats(t, s, "u1", 23)
	seedChats(t, s, "u2", 1)

	src := HistorySource{Store: s, UserID: "u1"}
	p := history.NewPaginator(src, src)
	for {
		loaded, err := p.LoadNextPage(ctx)
		require.NoError(t, err)
		if !loaded {
			break
		}
	}
	snap := p.Snapshot()
	assert.True(t, snap.ReachedEnd)
	assert.Len(t, snap.Chats, 23)

	require.NoError(t, p.DeleteChat(ctx, "u1-c10"))
	assert.Len(t, p.Snapshot().Chats, 22)

	err := p.DeleteChat(ctx, "u2-c01")
	assert.True(t, history.IsForbidden(err))
	err = p.DeleteChat(ctx, "ghost")
	assert.True(t, history.IsNotFound(err))
	assert.Len(t, p.Snapshot().Chats, 22)
}
