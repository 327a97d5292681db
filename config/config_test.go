package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SLOT_BACKEND", "")
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "nanogen_users", cfg.Slot.Key)
	assert.Equal(t, 5<<20, cfg.Slot.QuotaBytes)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Gemini.FlashModel)
	assert.Equal(t, "gemini-3-pro-image-preview", cfg.Gemini.ProModel)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SLOT_BACKEND", "redis")
	t.Setenv("SLOT_QUOTA_BYTES", "1024")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("GEMINI_API_KEY", "  k-123 ")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "redis", cfg.Slot.Backend)
	assert.Equal(t, 1024, cfg.Slot.QuotaBytes)
	assert.True(t, cfg.Minio.UseSSL)
	assert.Equal(t, "k-123", cfg.Gemini.APIKey)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("NANOGEN_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("NANOGEN_TEST_INT", 7))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("NANOGEN_TEST_BOOL", "off")
	assert.False(t, getEnvBool("NANOGEN_TEST_BOOL", true))
	t.Setenv("NANOGEN_TEST_BOOL", "garbage")
	assert.True(t, getEnvBool("NANOGEN_TEST_BOOL", true))
}
