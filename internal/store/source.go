package store

import (
	"context"
	"errors"

	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/models"
)

// HistorySource serves one user's history from the local database.
type HistorySource struct {
	Store  *Store
	UserID string
}

func (h HistorySource) FetchPage(ctx context.Context, key history.RequestKey) (models.Page, error) {
	page, err := h.Store.ListChats(ctx, h.UserID, key.Limit, key.EndingBefore)
	if err != nil {
		return models.Page{}, translate("fetch history", err)
	}
	return page, nil
}

func (h HistorySource) DeleteChat(ctx context.Context, id string) error {
	if err := h.Store.DeleteChatByID(ctx, h.UserID, id); err != nil {
		return translate("delete chat", err)
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return &history.RemoteRejection{Op: op, Reason: history.ReasonNotFound, Detail: err.Error()}
	case errors.Is(err, ErrForbidden):
		return &history.RemoteRejection{Op: op, Reason: history.ReasonForbidden, Detail: err.Error()}
	default:
		return &history.TransportError{Op: op, Err: err}
	}
}
