package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/llm"
	"github.com/saravenpi/chatdeck/internal/models"
	"github.com/saravenpi/chatdeck/internal/store"
)

var (
	ErrAccessDenied = errors.New("chat is private")
	ErrReadOnly     = errors.New("chat is read-only")
	ErrEmptyMessage = errors.New("message is empty")
)

// Repository is the persistence the chat service needs.
type Repository interface {
	GetChatByID(ctx context.Context, id string) (*store.Chat, error)
	SaveChat(ctx context.Context, chat store.Chat) error
	SaveMessage(ctx context.Context, msg models.Message) error
	GetMessagesByChatID(ctx context.Context, chatID string) ([]models.Message, error)
}

// Completer produces replies and titles.
type Completer interface {
	Complete(ctx context.Context, model string, messages []models.Message) (string, error)
	GenerateTitle(ctx context.Context, firstMessage string) (string, error)
}

// Session is an opened conversation as seen by one viewer.
type Session struct {
	Chat     store.Chat
	Messages []models.Message
	Model    string
	ReadOnly bool
	IsNew    bool
}

type Service struct {
	repo    Repository
	llm     Completer
	catalog llm.Catalog
	newID   history.IDGenerator
	now     func() time.Time
	log     zerolog.Logger
}

func NewService(repo Repository, completer Completer, catalog llm.Catalog, newID history.IDGenerator, log zerolog.Logger) *Service {
	if newID == nil {
		newID = history.NewUUID
	}
	return &Service{
		repo:    repo,
		llm:     completer,
		catalog: catalog,
		newID:   newID,
		now:     time.Now,
		log:     log,
	}
}

// Open loads chat id for viewer. An unknown id opens an empty private chat
// owned by viewer that is stored once the first message is sent.
func (s *Service) Open(ctx context.Context, viewer, id, preferredModel string) (Session, error) {
	session := Session{Model: s.catalog.Pick(preferredModel)}

	chat, err := s.repo.GetChatByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		session.IsNew = true
		session.Chat = store.Chat{
			ChatSummary: models.ChatSummary{
				ID:         id,
				Visibility: models.VisibilityPrivate,
				UserID:     viewer,
			},
			Model: session.Model,
		}
		return session, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to open chat %s: %w", id, err)
	}

	if chat.Visibility == models.VisibilityPrivate && chat.UserID != viewer {
		s.log.Warn().Str("chat_id", id).Str("viewer", viewer).Msg("denied access to private chat")
		return Session{}, ErrAccessDenied
	}

	messages, err := s.repo.GetMessagesByChatID(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load messages of chat %s: %w", id, err)
	}

	session.Chat = *chat
	session.Messages = messages
	session.ReadOnly = chat.UserID != viewer
	return session, nil
}

// Send appends text to the conversation and the model's reply after it.
// When the model fails the user's message stays stored and the returned
// session includes it.
func (s *Service) Send(ctx context.Context, session Session, text string) (Session, error) {
	if session.ReadOnly {
		return session, ErrReadOnly
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return session, ErrEmptyMessage
	}

	next := session
	next.Messages = append([]models.Message(nil), session.Messages...)

	if next.IsNew {
		title, err := s.llm.GenerateTitle(ctx, text)
		if err != nil || title == "" {
			s.log.Warn().Err(err).Str("chat_id", next.Chat.ID).Msg("title generation failed, using message text")
			title = llm.CleanTitle(text)
		}
		next.Chat.Title = title
		next.Chat.CreatedAt = s.now()
		next.Chat.Model = next.Model
		if err := s.repo.SaveChat(ctx, next.Chat); err != nil {
			return session, err
		}
		next.IsNew = false
		s.log.Info().Str("chat_id", next.Chat.ID).Str("title", title).Msg("chat created")
	}

	userMsg := models.Message{
		ID:        s.newID(),
		ChatID:    next.Chat.ID,
		Role:      models.RoleUser,
		Content:   text,
		CreatedAt: s.now(),
	}
	if err := s.repo.SaveMessage(ctx, userMsg); err != nil {
		return next, err
	}
	next.Messages = append(next.Messages, userMsg)

	reply, err := s.llm.Complete(ctx, next.Model, next.Messages)
	if err != nil {
		s.log.Error().Err(err).Str("chat_id", next.Chat.ID).Str("model", next.Model).Msg("completion failed")
		return next, err
	}

	assistantMsg := models.Message{
		ID:        s.newID(),
		ChatID:    next.Chat.ID,
		Role:      models.RoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	if err := s.repo.SaveMessage(ctx, assistantMsg); err != nil {
		return next, err
	}
	next.Messages = append(next.Messages, assistantMsg)
	return next, nil
}
