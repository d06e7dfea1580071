package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHATDECK_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chatdeck.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "chatdeck.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "models.yml"), cfg.ModelsFile)
	assert.Equal(t, filepath.Join(dir, "preferences.yml"), cfg.PreferencesPath())
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, "local", cfg.UserID)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.RemoteHistory())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHATDECK_DATA_DIR", t.TempDir())
	t.Setenv("CHATDECK_API_URL", "https://chat.example.com")
	t.Setenv("CHATDECK_PAGE_SIZE", "50")
	t.Setenv("CHATDECK_LOG_FORMAT", "json")
	t.Setenv("CHATDECK_TEST_ENVIRONMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.RemoteHistory())
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.TestEnvironment)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero page size", "CHATDECK_PAGE_SIZE", "0"},
		{"bad log format", "CHATDECK_LOG_FORMAT", "xml"},
		{"unparsable page size", "CHATDECK_PAGE_SIZE", "many"},
		{"blank user", "CHATDECK_USER_ID", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CHATDECK_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
