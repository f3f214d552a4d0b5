package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/straider911/9whales/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Digest   DigestConfig   `mapstructure:"digest"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig covers the inbound HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// WebhookConfig governs ingestion: the provider path served, the USD
// threshold, and the shared secret the provider presents. An empty
// shared secret disables authorization entirely; that mode exists for
// local debugging only and must not be used facing the internet.
type WebhookConfig struct {
	Provider     string `mapstructure:"provider"`
	ThresholdUSD string `mapstructure:"threshold_usd"`
	SharedSecret string `mapstructure:"shared_secret"`
}

// TelegramConfig 描述 Telegram 告警参数。BotToken 与 ChatID 同时配置时
// 通道才会启用,否则派发器为静默空操作。
type TelegramConfig struct {
	BotToken    string        `mapstructure:"bot_token"`
	ChatID      string        `mapstructure:"chat_id"`
	APIBase     string        `mapstructure:"api_base"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// DispatchConfig tunes the background delivery workers.
type DispatchConfig struct {
	Workers    int `mapstructure:"workers"`
	QueueSize  int `mapstructure:"queue_size"`
	RatePerSec int `mapstructure:"rate_per_sec"`
}

// DigestConfig controls the optional periodic summary message.
type DigestConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WHALERELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "whalerelay")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.max_body_bytes", int64(1<<20))

	v.SetDefault("webhook.provider", "moralis")
	v.SetDefault("webhook.threshold_usd", "100000")

	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.send_timeout", "10s")

	v.SetDefault("dispatch.workers", 4)
	v.SetDefault("dispatch.queue_size", 256)
	v.SetDefault("dispatch.rate_per_sec", 3)

	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.interval", "1h")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Webhook.Provider) == "" {
		return fmt.Errorf("webhook.provider must not be empty")
	}
	threshold, err := c.Threshold()
	if err != nil {
		return err
	}
	if threshold.IsNegative() {
		return fmt.Errorf("webhook.threshold_usd cannot be negative")
	}
	if c.Dispatch.Workers <= 0 {
		return fmt.Errorf("dispatch.workers must be greater than zero")
	}
	if c.Dispatch.QueueSize <= 0 {
		return fmt.Errorf("dispatch.queue_size must be greater than zero")
	}
	if c.Digest.Enabled && c.Digest.Interval <= 0 {
		return fmt.Errorf("digest.interval must be greater than zero")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token 与 telegram.chat_id 必须同时配置")
	}
	return nil
}

// Threshold parses the configured USD threshold as an exact decimal.
func (c *Config) Threshold() (decimal.Decimal, error) {
	threshold, err := decimal.NewFromString(strings.TrimSpace(c.Webhook.ThresholdUSD))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse webhook.threshold_usd %q: %w", c.Webhook.ThresholdUSD, err)
	}
	return threshold, nil
}

// TelegramEnabled reports whether the chat sink is fully configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
