package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 45*time.Second, cfg.Extractor.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Mailbox.PollInterval)
	assert.Equal(t, []string{"PO", "OA", "Acknowledgement", "Shipping", "Invoice"}, cfg.Mailbox.SubjectKeywords)
	assert.False(t, cfg.Mailbox.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("MAILBOX_POLL_INTERVAL", "5s")
	t.Setenv("MAILBOX_SUBJECT_KEYWORDS", " PO , Invoice ,,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreDriverMySQL, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Mailbox.PollInterval)
	assert.Equal(t, []string{"PO", "Invoice"}, cfg.Mailbox.SubjectKeywords)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("EXTRACTOR_TIMEOUT", "forever")

	_, err := Load()
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080, UploadMaxBytes: 1024},
		Store:     StoreConfig{Driver: StoreDriverMemory},
		Extractor: ExtractorConfig{BaseURL: "http://localhost:9999", Timeout: time.Second},
		Mailbox:   MailboxConfig{Enabled: true, SpoolDir: "./mailbox", PollInterval: time.Second},
		Order:     OrderConfig{MaxRetryAttempts: 3},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Store.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Extractor.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Mailbox.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Order.MaxRetryAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Mailbox.SpoolDir = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Extractor.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	assert.Error(t, cfg.Validate())
	cfg.Extractor.APIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_OnlyExplicitVariables(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 7070},
		Store:   StoreConfig{Driver: StoreDriverMemory},
		Mailbox: MailboxConfig{PollInterval: 15 * time.Second},
	}
	t.Setenv("STORE_DRIVER", "MYSQL")
	t.Setenv("MAILBOX_ENABLED", "true")

	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, StoreDriverMySQL, cfg.Store.Driver)
	assert.True(t, cfg.Mailbox.Enabled)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Mailbox.PollInterval)
}
