package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/saravenpi/chatdeck/internal/models"
)

// PageFetcher loads one page of a user's history.
type PageFetcher interface {
	FetchPage(ctx context.Context, key RequestKey) (models.Page, error)
}

// ChatDeleter removes a chat from the backend.
type ChatDeleter interface {
	DeleteChat(ctx context.Context, id string) error
}

// IDGenerator returns a new globally unique chat identifier.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// Snapshot is a consistent view of the paginator at one instant.
type Snapshot struct {
	Pages      []models.Page
	Chats      []models.ChatSummary
	ReachedEnd bool
	Loading    bool
	Deleting   int
	Empty      bool
	LastErr    error
}

// Groups buckets the flattened chats relative to now.
func (s Snapshot) Groups(now time.Time) Groups {
	return BucketByDate(s.Chats, now)
}

type Option func(*Paginator)

// WithPageSize overrides PageSize.
func WithPageSize(n int) Option {
	return func(p *Paginator) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithIDGenerator replaces the UUID generator used by NewChat.
func WithIDGenerator(gen IDGenerator) Option {
	return func(p *Paginator) {
		if gen != nil {
			p.newID = gen
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(p *Paginator) {
		p.log = log
	}
}

// Paginator incrementally loads a chat history and applies deletes to the
// pages it holds. Held pages are never mutated in place: every change swaps
// in a new slice, so a Snapshot never observes a half-applied update.
// It is safe for concurrent use.
type Paginator struct {
	fetcher  PageFetcher
	deleter  ChatDeleter
	newID    IDGenerator
	pageSize int
	log      zerolog.Logger

	mu       sync.Mutex
	pages    []models.Page
	tailLen  int // chats in the last page as fetched
	gen      int
	loading  bool
	deleting int
	lastErr  error
}

func NewPaginator(fetcher PageFetcher, deleter ChatDeleter, opts ...Option) *Paginator {
	p := &Paginator{
		fetcher:  fetcher,
		deleter:  deleter,
		newID:    NewUUID,
		pageSize: PageSize,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// nextKeyLocked returns the key for the page after the held ones. When
// deletes emptied a last page that arrived non-empty, the oldest chat still
// held stands in as the cursor.
func (p *Paginator) nextKeyLocked() (RequestKey, bool) {
	n := len(p.pages)
	if n == 0 {
		return keyForPage(0, nil, p.pageSize)
	}
	previous := p.pages[n-1]
	if len(previous.Chats) == 0 && p.tailLen > 0 {
		for i := n - 2; i >= 0; i-- {
			if chats := p.pages[i].Chats; len(chats) > 0 {
				previous.Chats = chats[len(chats)-1:]
				break
			}
		}
	}
	return keyForPage(n, &previous, p.pageSize)
}

// LoadNextPage fetches the page after the last held one. It reports false
// without fetching when a load is already in flight or the history is
// exhausted. A failed fetch leaves held pages untouched and may be retried.
func (p *Paginator) LoadNextPage(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return false, nil
	}
	key, ok := p.nextKeyLocked()
	if !ok {
		p.mu.Unlock()
		return false, nil
	}
	p.loading = true
	pageIndex := len(p.pages)
	gen := p.gen
	p.mu.Unlock()

	page, err := p.fetcher.FetchPage(ctx, key)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false, nil
	}
	p.loading = false
	if err != nil {
		p.lastErr = err
		p.log.Warn().Err(err).Int("page", pageIndex).Str("key", key.String()).Msg("history page fetch failed")
		return false, fmt.Errorf("failed to load history page %d: %w", pageIndex, err)
	}

	pages := make([]models.Page, len(p.pages), len(p.pages)+1)
	copy(pages, p.pages)
	p.pages = append(pages, page)
	p.tailLen = len(page.Chats)
	p.lastErr = nil
	p.log.Debug().Int("page", pageIndex).Int("chats", len(page.Chats)).Bool("has_more", page.HasMore).Msg("history page loaded")
	return true, nil
}

// DeleteChat deletes the chat remotely and, only once that succeeds, drops
// it from every held page. On failure the held pages are left as they were.
func (p *Paginator) DeleteChat(ctx context.Context, id string) error {
	p.mu.Lock()
	p.deleting++
	p.mu.Unlock()

	err := p.deleter.DeleteChat(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleting--
	if err != nil {
		p.log.Warn().Err(err).Str("chat_id", id).Msg("chat delete failed")
		return fmt.Errorf("failed to delete chat %s: %w", id, err)
	}

	p.pages = removeChat(p.pages, id)
	p.log.Info().Str("chat_id", id).Msg("chat deleted")
	return nil
}

// NewChat allocates the identifier of a chat that does not exist yet.
func (p *Paginator) NewChat() string {
	return p.newID()
}

// Reset drops every held page so the next load starts from the first page.
// A load still in flight is discarded when it completes and does not hold
// back the next one.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.pages = nil
	p.tailLen = 0
	p.loading = false
	p.lastErr = nil
}

func (p *Paginator) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, more := p.nextKeyLocked()
	s := Snapshot{
		Pages:      p.pages,
		ReachedEnd: !more,
		Loading:    p.loading,
		Deleting:   p.deleting,
		Empty:      len(p.pages) > 0,
		LastErr:    p.lastErr,
	}
	for _, page := range p.pages {
		if len(page.Chats) > 0 {
			s.Empty = false
		}
		s.Chats = append(s.Chats, page.Chats...)
	}
	return s
}

// removeChat returns pages without any chat whose id equals id. Pages that
// did not contain it are shared with the input.
func removeChat(pages []models.Page, id string) []models.Page {
	out := make([]models.Page, len(pages))
	for i, page := range pages {
		out[i] = page
		if !containsChat(page.Chats, id) {
			continue
		}
		chats := make([]models.ChatSummary, 0, len(page.Chats)-1)
		for _, chat := range page.Chats {
			if chat.ID != id {
				chats = append(chats, chat)
			}
		}
		out[i] = models.Page{Chats: chats, HasMore: page.HasMore}
	}
	return out
}

func containsChat(chats []models.ChatSummary, id string) bool {
	for _, chat := range chats {
		if chat.ID == id {
			return true
		}
	}
	return false
}
