package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/saravenpi/chatdeck/internal/models"
)

// TitleModel is the logical model that names new chats.
const TitleModel = "title-model"

const maxTitleRunes = 80

// Provider produces a completion for a conversation.
type Provider interface {
	Complete(ctx context.Context, model string, messages []models.Message) (string, error)
}

// Registry maps logical and catalog model names onto concrete provider models.
type Registry struct {
	provider Provider
	models   map[string]string
	log      zerolog.Logger
}

// NewRegistry builds the mapping for catalog plus the logical title model.
func NewRegistry(provider Provider, catalog Catalog, log zerolog.Logger) *Registry {
	m := map[string]string{
		TitleModel: "gpt-4o-mini",
	}
	for _, cm := range catalog.Models {
		m[cm.ID] = cm.ID
	}
	return &Registry{provider: provider, models: m, log: log}
}

// NewTestRegistry wires the mock provider under the names used in tests.
func NewTestRegistry(catalog Catalog) *Registry {
	r := NewRegistry(MockProvider{}, catalog, zerolog.Nop())
	for name := range r.models {
		r.models[name] = "mock-" + name
	}
	return r
}

// Resolve returns the provider model behind name.
func (r *Registry) Resolve(name string) (string, error) {
	id, ok := r.models[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownModel)
	}
	return id, nil
}

func (r *Registry) Complete(ctx context.Context, name string, messages []models.Message) (string, error) {
	id, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	r.log.Debug().Str("model", name).Str("provider_model", id).Int("messages", len(messages)).Msg("requesting completion")
	reply, err := r.provider.Complete(ctx, id, messages)
	if err != nil {
		return "", fmt.Errorf("completion with %s failed: %w", name, err)
	}
	return reply, nil
}

// GenerateTitle asks the title model for a short title for a chat that
// starts with firstMessage.
func (r *Registry) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	prompt := []models.Message{
		{Role: models.RoleSystem, Content: "Generate a short title (max 80 characters) summarising the user's message. Reply with the title only, no quotes or punctuation at the end."},
		{Role: models.RoleUser, Content: firstMessage},
	}
	title, err := r.Complete(ctx, TitleModel, prompt)
	if err != nil {
		return "", err
	}
	return CleanTitle(title), nil
}

// CleanTitle reduces s to a single line of at most 80 runes without
// surrounding quotes.
func CleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'` ")
	if utf8.RuneCountInString(s) > maxTitleRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxTitleRunes-3])) + "..."
	}
	return s
}
