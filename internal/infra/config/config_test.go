package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.HTTP.Address)
	require.Equal(t, 900, cfg.LLM.MaxTokens)
	require.Equal(t, 1600, cfg.Notification.MaxLength)
	require.Equal(t, QueueImmediate, cfg.Notification.Queue)
	require.Equal(t, 4*time.Second, cfg.Diagnosis.EnrichmentTimeout)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: file-model\n  maxTokens: 500\nclassifier:\n  baseUrl: http://model:8080\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("LLM_MAX_TOKENS", "700")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "file-model", cfg.LLM.Model)
	require.Equal(t, 700, cfg.LLM.MaxTokens)
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.Equal(t, "http://model:8080", cfg.Classifier.BaseURL)
	require.Equal(t, ":9090", cfg.HTTP.Address)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TWILIO_WHATSAPP_NUMBER=whatsapp:+14155238886\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("TWILIO_WHATSAPP_NUMBER", "")
	os.Unsetenv("TWILIO_WHATSAPP_NUMBER")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "whatsapp:+14155238886", cfg.Notification.Twilio.From)
}

func TestValidateRejectsValkeyWithoutAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.Notification.Queue = QueueValkey

	require.ErrorContains(t, cfg.Validate(), "notification.valkey.addr")
}

func TestValidateRejectsUnknownQueue(t *testing.T) {
	cfg := defaultConfig()
	cfg.Notification.Queue = "kafka"

	require.Error(t, cfg.Validate())
}

func TestLoadUploadRateLimit(t *testing.T) {
	t.Setenv("HTTP_RATE_LIMIT_UPLOAD_RPM", "4")
	t.Setenv("HTTP_RATE_LIMIT_UPLOAD_BURST", "2")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4, cfg.HTTP.RateLimit.UploadRequestsPerMinute)
	require.Equal(t, 2, cfg.HTTP.RateLimit.UploadBurst)
	require.Equal(t, 30, cfg.HTTP.RateLimit.RequestsPerMinute)
}

func TestValidateRejectsEmptyUploadBudget(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTP.RateLimit.UploadBurst = 0

	require.ErrorContains(t, cfg.Validate(), "upload budget")
}
