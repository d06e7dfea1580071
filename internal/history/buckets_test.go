package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/chatdeck/internal/models"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBucketByDate_OnePerBucket(t *testing.T) {
	now := at("2024-06-15T12:00:00Z")
	chats := []models.ChatSummary{
		{ID: "today", CreatedAt: at("2024-06-15T08:00:00Z")},
		{ID: "yesterday", CreatedAt: at("2024-06-14T08:00:00Z")},
		{ID: "week", CreatedAt: at("2024-06-10T08:00:00Z")},
		{ID: "month", CreatedAt: at("2024-05-20T08:00:00Z")},
		{ID: "older", CreatedAt: at("2024-01-01T08:00:00Z")},
	}

	g := BucketByDate(chats, now)

	require.Len(t, g.Today, 1)
	require.Len(t, g.Yesterday, 1)
	require.Len(t, g.LastWeek, 1)
	require.Len(t, g.LastMonth, 1)
	require.Len(t, g.Older, 1)
	assert.Equal(t, "today", g.Today[0].ID)
	assert.Equal(t, "yesterday", g.Yesterday[0].ID)
	assert.Equal(t, "week", g.LastWeek[0].ID)
	assert.Equal(t, "month", g.LastMonth[0].ID)
	assert.Equal(t, "older", g.Older[0].ID)
}

func TestClassify_Boundaries(t *testing.T) {
	now := at("2024-06-15T12:00:00Z")
	tests := []struct {
		name    string
		created string
		want    Bucket
	}{
		{"start of today", "2024-06-15T00:00:00Z", BucketToday},
		{"later today", "2024-06-15T23:59:59Z", BucketToday},
		{"end of yesterday", "2024-06-14T23:59:59Z", BucketYesterday},
		{"start of yesterday", "2024-06-14T00:00:00Z", BucketYesterday},
		{"just inside a week", "2024-06-08T12:00:01Z", BucketLastWeek},
		{"exactly a week", "2024-06-08T12:00:00Z", BucketLastMonth},
		{"just inside a month", "2024-05-15T12:00:01Z", BucketLastMonth},
		{"exactly a month", "2024-05-15T12:00:00Z", BucketOlder},
		{"tomorrow", "2024-06-16T09:00:00Z", BucketLastWeek},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(at(tt.created), now))
		})
	}
}

func TestClassify_UsesNowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2024, 6, 15, 1, 0, 0, 0, tokyo)
	// 2024-06-14T17:00Z is 02:00 on June 15 in Tokyo.
	assert.Equal(t, BucketToday, Classify(at("2024-06-14T17:00:00Z"), now))
	assert.Equal(t, BucketYesterday, Classify(at("2024-06-14T14:00:00Z"), now))
}

func TestSubMonths_ClampsDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-31T10:00:00Z", "2024-02-29T10:00:00Z"},
		{"2023-03-31T10:00:00Z", "2023-02-28T10:00:00Z"},
		{"2024-01-15T10:00:00Z", "2023-12-15T10:00:00Z"},
		{"2024-07-31T10:00:00Z", "2024-06-30T10:00:00Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, at(tt.want), subMonths(at(tt.in), 1), tt.in)
	}
}

func TestBucketByDate_TotalPartitionPreservesOrder(t *testing.T) {
	now := at("2024-06-15T12:00:00Z")
	var chats []models.ChatSummary
	start := at("2024-06-15T11:00:00Z")
	for i := 0; i < 120; i++ {
		chats = append(chats, models.ChatSummary{
			ID:        string(rune('A'+i%26)) + time.Duration(i).String(),
			CreatedAt: start.Add(-time.Duration(i) * 9 * time.Hour),
		})
	}

	g := BucketByDate(chats, now)
	assert.Equal(t, len(chats), g.Len())

	var rebuilt []models.ChatSummary
	seen := map[string]int{}
	for _, section := range g.Sections() {
		for _, chat := range section.Chats {
			seen[chat.ID]++
			assert.Equal(t, section.Bucket, Classify(chat.CreatedAt, now))
		}
		rebuilt = append(rebuilt, section.Chats...)
	}
	for _, chat := range chats {
		assert.Equal(t, 1, seen[chat.ID], chat.ID)
	}
	// Input is newest first, so bucket order followed by input order is the input.
	assert.Equal(t, chats, rebuilt)
}

func TestGroups_SectionsSkipEmpty(t *testing.T) {
	now := at("2024-06-15T12:00:00Z")
	g := BucketByDate([]models.ChatSummary{{ID: "a", CreatedAt: at("2023-01-01T00:00:00Z")}}, now)
	sections := g.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, BucketOlder, sections[0].Bucket)
	assert.Equal(t, "Older than 30 days", sections[0].Bucket.Title())
	assert.Equal(t, "older", sections[0].Bucket.String())
}
