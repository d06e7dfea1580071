package history

import (
	"time"

	"github.com/saravenpi/chatdeck/internal/models"
)

type Bucket int

const (
	BucketToday Bucket = iota
	BucketYesterday
	BucketLastWeek
	BucketLastMonth
	BucketOlder
)

// Buckets lists every bucket in classification priority order.
var Buckets = []Bucket{BucketToday, BucketYesterday, BucketLastWeek, BucketLastMonth, BucketOlder}

func (b Bucket) String() string {
	switch b {
	case BucketToday:
		return "today"
	case BucketYesterday:
		return "yesterday"
	case BucketLastWeek:
		return "lastWeek"
	case BucketLastMonth:
		return "lastMonth"
	case BucketOlder:
		return "older"
	}
	return "unknown"
}

// Title is the section heading shown above a bucket.
func (b Bucket) Title() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketLastWeek:
		return "Last 7 days"
	case BucketLastMonth:
		return "Last 30 days"
	case BucketOlder:
		return "Older than 30 days"
	}
	return ""
}

// Groups holds the chats of each bucket in their input order.
type Groups struct {
	Today     []models.ChatSummary
	Yesterday []models.ChatSummary
	LastWeek  []models.ChatSummary
	LastMonth []models.ChatSummary
	Older     []models.ChatSummary
}

type Section struct {
	Bucket Bucket
	Chats  []models.ChatSummary
}

// Get returns the chats in bucket b.
func (g Groups) Get(b Bucket) []models.ChatSummary {
	switch b {
	case BucketToday:
		return g.Today
	case BucketYesterday:
		return g.Yesterday
	case BucketLastWeek:
		return g.LastWeek
	case BucketLastMonth:
		return g.LastMonth
	case BucketOlder:
		return g.Older
	}
	return nil
}

// Sections returns the non-empty buckets in priority order.
func (g Groups) Sections() []Section {
	sections := make([]Section, 0, len(Buckets))
	for _, b := range Buckets {
		if chats := g.Get(b); len(chats) > 0 {
			sections = append(sections, Section{Bucket: b, Chats: chats})
		}
	}
	return sections
}

// Len is the total number of chats across all buckets.
func (g Groups) Len() int {
	return len(g.Today) + len(g.Yesterday) + len(g.LastWeek) + len(g.LastMonth) + len(g.Older)
}

// Classify returns the bucket of a chat created at createdAt, as seen at now.
// Calendar days are taken in now's location.
func Classify(createdAt, now time.Time) Bucket {
	created := createdAt.In(now.Location())
	switch {
	case sameDay(created, now):
		return BucketToday
	case sameDay(created, now.AddDate(0, 0, -1)):
		return BucketYesterday
	case created.After(now.AddDate(0, 0, -7)):
		return BucketLastWeek
	case created.After(subMonths(now, 1)):
		return BucketLastMonth
	default:
		return BucketOlder
	}
}

// BucketByDate partitions chats into date buckets relative to now.
func BucketByDate(chats []models.ChatSummary, now time.Time) Groups {
	var g Groups
	for _, chat := range chats {
		switch Classify(chat.CreatedAt, now) {
		case BucketToday:
			g.Today = append(g.Today, chat)
		case BucketYesterday:
			g.Yesterday = append(g.Yesterday, chat)
		case BucketLastWeek:
			g.LastWeek = append(g.LastWeek, chat)
		case BucketLastMonth:
			g.LastMonth = append(g.LastMonth, chat)
		default:
			g.Older = append(g.Older, chat)
		}
	}
	return g
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// subMonths moves t back n calendar months, clamping the day to the last day
// of the target month (Mar 31 minus one month is Feb 28 or 29).
func subMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return first.AddDate(0, 0, d-1)
}
