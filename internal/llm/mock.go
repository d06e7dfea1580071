package llm

import (
	"context"
	"strings"

	"github.com/saravenpi/chatdeck/internal/models"
)

// MockProvider answers deterministically without network access.
type MockProvider struct{}

func (MockProvider) Complete(ctx context.Context, model string, messages []models.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			last = messages[i].Content
			break
		}
	}
	if strings.HasSuffix(model, TitleModel) {
		return last, nil
	}
	return "Echo: " + last, nil
}
