package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/chatdeck/internal/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		c, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultChatModel, c.Default)
		assert.Len(t, c.Models, 2)
	})

	t.Run("custom models", func(t *testing.T) {
		path := writeFile(t, `
models:
  - id: llama3
    name: Llama 3
    description: Local model
  - id: gpt-4o
    name: GPT-4o
default: llama3
`)
		c, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, "llama3", c.Default)
		m, ok := c.Find("llama3")
		require.True(t, ok)
		assert.Equal(t, "Local model", m.Description)
	})

	t.Run("default must exist", func(t *testing.T) {
		path := writeFile(t, "models:\n  - id: a\ndefault: b\n")
		_, err := LoadCatalog(path)
		assert.ErrorIs(t, err, ErrUnknownModel)
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := LoadCatalog(writeFile(t, "models: []\n"))
		assert.Error(t, err)
	})
}

func TestCatalog_Pick(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, "gpt-4o-mini", c.Pick("gpt-4o-mini"))
	assert.Equal(t, DefaultChatModel, c.Pick("claude"))
	assert.Equal(t, DefaultChatModel, c.Pick(""))
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(MockProvider{}, DefaultCatalog(), zerolog.Nop())

	id, err := r.Resolve(TitleModel)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", id)

	id, err = r.Resolve("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", id)

	_, err = r.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestTestRegistry_EchoesAndTitles(t *testing.T) {
	r := NewTestRegistry(DefaultCatalog())
	ctx := context.Background()

	reply, err := r.Complete(ctx, "gpt-4o", []models.Message{{Role: models.RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "Echo: hello", reply)

	title, err := r.GenerateTitle(ctx, "Plan a trip to Lisbon\nwith kids")
	require.NoError(t, err)
	assert.Equal(t, "Plan a trip to Lisbon", title)
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  \"Quoted title\"  ", "Quoted title"},
		{"first line\nsecond", "first line"},
		{strings.Repeat("é", 100), strings.Repeat("é", 77) + "..."},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanTitle(tt.in))
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL)
	reply, err := p.Complete(context.Background(), "gpt-4o", []models.Message{
		{Role: models.RoleSystem, Content: "be nice"},
		{Role: models.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("k", srv.URL).Complete(context.Background(), "gpt-4o", nil)
	assert.Error(t, err)
}
