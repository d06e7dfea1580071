package history

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/saravenpi/chatdeck/internal/models"
)

// PageSize is the number of chats requested per page.
const PageSize = 20

// RequestKey identifies one page request: how many chats to return and,
// past the first page, the id the page must end before.
type RequestKey struct {
	Limit        int
	EndingBefore string
}

// String encodes the key as a query string, e.g. "ending_before=abc&limit=20".
func (k RequestKey) String() string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(k.Limit))
	if k.EndingBefore != "" {
		q.Set("ending_before", k.EndingBefore)
	}
	return q.Encode()
}

// parseRequestKey decodes a key produced by String.
func parseRequestKey(raw string) (RequestKey, error) {
	q, err := url.ParseQuery(raw)
	if err != nil {
		return RequestKey{}, &ParseError{Err: err}
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		return RequestKey{}, &ParseError{Err: fmt.Errorf("invalid limit %q", q.Get("limit"))}
	}
	return RequestKey{Limit: limit, EndingBefore: q.Get("ending_before")}, nil
}

// KeyForPage derives the request for page pageIndex from the page before it.
// It reports false when paging must stop: the previous page said there is no
// more data, or it came back empty and offers no cursor.
func KeyForPage(pageIndex int, previous *models.Page) (RequestKey, bool) {
	return keyForPage(pageIndex, previous, PageSize)
}

func keyForPage(pageIndex int, previous *models.Page, limit int) (RequestKey, bool) {
	if previous != nil && !previous.HasMore {
		return RequestKey{}, false
	}
	if pageIndex == 0 {
		return RequestKey{Limit: limit}, true
	}
	if previous == nil || len(previous.Chats) == 0 {
		return RequestKey{}, false
	}
	last := previous.Chats[len(previous.Chats)-1]
	return RequestKey{Limit: limit, EndingBefore: last.ID}, true
}
