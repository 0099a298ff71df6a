package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverMySQL  = "mysql"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Mailbox   MailboxConfig   `yaml:"mailbox"`
	Order     OrderConfig     `yaml:"order"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	UploadMaxBytes  int64         `yaml:"uploadMaxBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ExtractorConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	APIKey  string        `yaml:"apiKey"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type OrderConfig struct {
	MaxRetryAttempts int `yaml:"maxRetryAttempts"`
}

type MailboxConfig struct {
	Enabled         bool          `yaml:"enabled"`
	SpoolDir        string        `yaml:"spoolDir"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	SubjectKeywords []string      `yaml:"subjectKeywords"`
	Watch           bool          `yaml:"watch"`
}

type envBinding struct {
	key   string
	apply func(c *Config) error
}

var envBindings = []envBinding{
	intEnv("SERVER_PORT", func(c *Config) *int { return &c.Server.Port }),
	int64Env("UPLOAD_MAX_BYTES", func(c *Config) *int64 { return &c.Server.UploadMaxBytes }),
	durationEnv("SHUTDOWN_TIMEOUT", func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout }),
	lowerStringEnv("STORE_DRIVER", func(c *Config) *string { return &c.Store.Driver }),
	stringEnv("DB_HOST", func(c *Config) *string { return &c.Database.Host }),
	intEnv("DB_PORT", func(c *Config) *int { return &c.Database.Port }),
	stringEnv("DB_USER", func(c *Config) *string { return &c.Database.User }),
	stringEnv("DB_PASSWORD", func(c *Config) *string { return &c.Database.Password }),
	stringEnv("DB_NAME", func(c *Config) *string { return &c.Database.Name }),
	intEnv("DB_MAX_OPEN_CONNS", func(c *Config) *int { return &c.Database.MaxOpenConns }),
	intEnv("DB_MAX_IDLE_CONNS", func(c *Config) *int { return &c.Database.MaxIdleConns }),
	durationEnv("DB_CONN_MAX_LIFETIME", func(c *Config) *time.Duration { return &c.Database.ConnMaxLifetime }),
	stringEnv("LOG_LEVEL", func(c *Config) *string { return &c.Log.Level }),
	stringEnv("EXTRACTOR_BASE_URL", func(c *Config) *string { return &c.Extractor.BaseURL }),
	stringEnv("EXTRACTOR_API_KEY", func(c *Config) *string { return &c.Extractor.APIKey }),
	stringEnv("EXTRACTOR_MODEL", func(c *Config) *string { return &c.Extractor.Model }),
	durationEnv("EXTRACTOR_TIMEOUT", func(c *Config) *time.Duration { return &c.Extractor.Timeout }),
	boolEnv("MAILBOX_ENABLED", func(c *Config) *bool { return &c.Mailbox.Enabled }),
	stringEnv("MAILBOX_SPOOL_DIR", func(c *Config) *string { return &c.Mailbox.SpoolDir }),
	durationEnv("MAILBOX_POLL_INTERVAL", func(c *Config) *time.Duration { return &c.Mailbox.PollInterval }),
	listEnv("MAILBOX_SUBJECT_KEYWORDS", func(c *Config) *[]string { return &c.Mailbox.SubjectKeywords }),
	boolEnv("MAILBOX_WATCH", func(c *Config) *bool { return &c.Mailbox.Watch }),
	intEnv("ORDER_MAX_RETRY_ATTEMPTS", func(c *Config) *int { return &c.Order.MaxRetryAttempts }),
}

func setDefaults() {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("UPLOAD_MAX_BYTES", 20<<20)
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	viper.SetDefault("STORE_DRIVER", StoreDriverMemory)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "potracker")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "potracker")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("EXTRACTOR_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("EXTRACTOR_API_KEY", "")
	viper.SetDefault("EXTRACTOR_MODEL", "gemini-1.5-flash")
	viper.SetDefault("EXTRACTOR_TIMEOUT", "45s")
	viper.SetDefault("MAILBOX_ENABLED", false)
	viper.SetDefault("MAILBOX_SPOOL_DIR", "./mailbox")
	viper.SetDefault("MAILBOX_POLL_INTERVAL", "30s")
	viper.SetDefault("MAILBOX_SUBJECT_KEYWORDS", "PO,OA,Acknowledgement,Shipping,Invoice")
	viper.SetDefault("MAILBOX_WATCH", true)
	viper.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
}

// Load builds the configuration from defaults and the environment.
func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{}
	for _, b := range envBindings {
		if err := b.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyEnv overwrites cfg with every variable explicitly set in the
// environment. Used after a file overlay so the environment keeps the last word.
func ApplyEnv(cfg *Config) error {
	setDefaults()

	for _, b := range envBindings {
		if _, ok := os.LookupEnv(b.key); !ok {
			continue
		}
		if err := b.apply(cfg); err != nil {
			return err
		}
	}
	return nil
}

func stringEnv(key string, field func(*Config) *string) envBinding {
	return envBinding{key: key, apply: func(c *Config) error {
		*field(c) = viper.GetString(key)
		return nil
	}}
}

func lowerStringEnv(key string, field func(*Config) *string) envBinding {
	return envBinding{key: key, apply: func(c *Config) error {
		*field(c) = strings.ToLower(viper.GetString(key))
		return nil
	}}
}

func intEnv(key string, field func(*Config) *int) envBinding {
	return envBinding{key: key, apply: func(c *Config) error {
		*field(c) = viper.GetInt(key)
		return nil
	}}
}

func int64Env(key string, field func(*Config) *int64) envBinding {
	return envBinding{key: key, apply: func(c *Config) error {
		*field(c) = viper.GetInt64(key)
		return nil
	}}
}

func boolEnv(key string, field func(*Config) *bool) envBinding {
	return envBinding{key: key, apply: func(c *Config) error {
		*field(c) = viper.GetBool(key)
		return nil
	}}
}

func durationEnv(key string, field func(*Config) *time.Duration) envBinding {
	return envBinding{key: key, apply: func(c *Config) error {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		*field(c) = d
		return nil
	}}
}

func listEnv(key string, field func(*Config) *[]string) envBinding {
	return envBinding{key: key, apply: func(c *Config) error {
		*field(c) = splitList(viper.GetString(key))
		return nil
	}}
}

// Validate checks the values the process cannot start without.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverMySQL:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive, got %d", c.Server.Port)
	}
	if c.Server.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive, got %d", c.Server.UploadMaxBytes)
	}
	if c.Extractor.Timeout <= 0 {
		return fmt.Errorf("extractor timeout must be positive, got %s", c.Extractor.Timeout)
	}
	if c.Extractor.APIKey == "" && strings.Contains(c.Extractor.BaseURL, "googleapis.com") {
		return fmt.Errorf("EXTRACTOR_API_KEY is required for %s", c.Extractor.BaseURL)
	}
	if c.Order.MaxRetryAttempts < 1 {
		return fmt.Errorf("order max retry attempts must be at least 1, got %d", c.Order.MaxRetryAttempts)
	}
	if c.Mailbox.Enabled {
		if c.Mailbox.PollInterval <= 0 {
			return fmt.Errorf("mailbox poll interval must be positive, got %s", c.Mailbox.PollInterval)
		}
		if c.Mailbox.SpoolDir == "" {
			return fmt.Errorf("mailbox spool dir is required when the mailbox is enabled")
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
