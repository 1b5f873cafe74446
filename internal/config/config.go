// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Scout     ScoutConfig     `yaml:"scout" mapstructure:"scout"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for the classifier.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig configures page rendering.
type FetchConfig struct {
	BrowserBin  string `yaml:"browser_bin" mapstructure:"browser_bin"`
	Headless    bool   `yaml:"headless" mapstructure:"headless"`
	NoSandbox   bool   `yaml:"no_sandbox" mapstructure:"no_sandbox"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ScoutConfig configures the pipeline pass itself.
type ScoutConfig struct {
	// CompetitorsFile points at a YAML registry of competitor sites.
	// Empty means the built-in default set.
	CompetitorsFile string `yaml:"competitors_file" mapstructure:"competitors_file"`

	// PacingSecs is the fixed delay between classifier calls, chosen to
	// stay under the provider's requests-per-minute ceiling.
	PacingSecs int `yaml:"pacing_secs" mapstructure:"pacing_secs"`

	// ConnectRetries is the number of store connection attempts at startup.
	ConnectRetries int `yaml:"connect_retries" mapstructure:"connect_retries"`
}

// ServerConfig configures the search API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("fetch.headless", true)
	v.SetDefault("fetch.no_sandbox", true)
	v.SetDefault("fetch.timeout_secs", 45)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("scout.pacing_secs", 6)
	v.SetDefault("scout.connect_retries", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration required for the given mode is
// present. Modes: "scout" (full pipeline pass), "serve" (search API),
// "store" (store access only).
func (c *Config) Validate(mode string) error {
	switch mode {
	case "scout":
		if c.Anthropic.Key == "" {
			return eris.New("config: anthropic key is required (SCOUT_ANTHROPIC_KEY)")
		}
		return c.validateStore()
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return eris.Errorf("config: invalid server port %d", c.Server.Port)
		}
		return c.validateStore()
	case "store":
		return c.validateStore()
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: database URL is required (SCOUT_STORE_DATABASE_URL)")
		}
		return nil
	case "sqlite":
		return nil
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
