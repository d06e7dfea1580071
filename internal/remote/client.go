package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/models"
)

const (
	historyPath = "/api/history"
	chatPath    = "/api/chat"
)

// Client talks to a hosted history API.
type Client struct {
	httpClient *resty.Client
	log        zerolog.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "chatdeck/1.0").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if token != "" {
		httpClient.SetAuthToken(token)
	}
	return &Client{httpClient: httpClient, log: log}
}

type pageResponse struct {
	Chats   []models.ChatSummary `json:"chats"`
	HasMore *bool                `json:"hasMore"`
}

func (c *Client) FetchPage(ctx context.Context, key history.RequestKey) (models.Page, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryString(key.String()).
		Get(historyPath)
	if err != nil {
		return models.Page{}, &history.TransportError{Op: "fetch history", Err: err}
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Str("key", key.String()).Msg("history API rejected page request")
		return models.Page{}, rejection("fetch history", resp)
	}

	var body pageResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return models.Page{}, &history.ParseError{Err: err}
	}
	if body.HasMore == nil {
		return models.Page{}, &history.ParseError{Err: fmt.Errorf("missing hasMore field")}
	}
	for i, chat := range body.Chats {
		if chat.ID == "" {
			return models.Page{}, &history.ParseError{Err: fmt.Errorf("chat %d has no id", i)}
		}
	}

	page := models.Page{Chats: body.Chats, HasMore: *body.HasMore}
	if page.Chats == nil {
		page.Chats = []models.ChatSummary{}
	}
	return page, nil
}

func (c *Client) DeleteChat(ctx context.Context, id string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", id).
		Delete(chatPath)
	if err != nil {
		return &history.TransportError{Op: "delete chat", Err: err}
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Str("chat_id", id).Msg("history API rejected delete")
		return rejection("delete chat", resp)
	}
	return nil
}

func rejection(op string, resp *resty.Response) error {
	reason := fmt.Sprintf("status_%d", resp.StatusCode())
	switch resp.StatusCode() {
	case http.StatusNotFound:
		reason = history.ReasonNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		reason = history.ReasonForbidden
	}
	return &history.RemoteRejection{
		Op:     op,
		Reason: reason,
		Status: resp.StatusCode(),
		Detail: strings.TrimSpace(resp.String()),
	}
}
