// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Router   RouterConfig   `mapstructure:"router"`
	State    StateConfig    `mapstructure:"state"`
	Database DatabaseConfig `mapstructure:"database"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// TelegramConfig selects polling or webhook delivery.
type TelegramConfig struct {
	BotToken    string        `mapstructure:"bot_token"`
	ChatID      int64         `mapstructure:"chat_id"`
	Mode        string        `mapstructure:"mode"`         // polling | webhook
	PollTimeout int           `mapstructure:"poll_timeout"` // seconds
	Webhook     WebhookConfig `mapstructure:"webhook"`
}

type WebhookConfig struct {
	Domain      string `mapstructure:"domain"`
	Path        string `mapstructure:"path"`
	Port        int    `mapstructure:"port"`
	SecretToken string `mapstructure:"secret_token"`
}

// URL is the public address registered with Telegram.
func (w WebhookConfig) URL() string {
	return fmt.Sprintf("https://%s%s", w.Domain, w.Path)
}

type BackendConfig struct {
	URL           string `mapstructure:"url"`
	APIKey        string `mapstructure:"api_key"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	RetryAttempts int    `mapstructure:"retry_attempts"`
	RetryDelay    int    `mapstructure:"retry_delay"` // milliseconds
}

type CacheConfig struct {
	TTL             int `mapstructure:"ttl"` // milliseconds
	Capacity        int `mapstructure:"capacity"`
	CleanupInterval int `mapstructure:"cleanup_interval"` // milliseconds, 0 disables the sweep
}

type RouterConfig struct {
	EditTimeout      int    `mapstructure:"edit_timeout"` // milliseconds
	SweepInterval    int    `mapstructure:"sweep_interval"`
	Workers          int    `mapstructure:"workers"`
	QueueSize        int    `mapstructure:"queue_size"`
	ContractsPerPage int    `mapstructure:"contracts_per_page"`
	MaxSearchResults int    `mapstructure:"max_search_results"`
	MaxExportRecords int    `mapstructure:"max_export_records"`
	FormURL          string `mapstructure:"form_url"`
	DriveFolderID    string `mapstructure:"drive_folder_id"`
}

// StateConfig picks where pending edits live.
type StateConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
	Prefix  string `mapstructure:"prefix"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
