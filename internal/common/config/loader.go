// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads a single YAML file, used by tools and tests.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the flat variable names used by existing deployments.
func overrideEmptyConfig(cfg *Config) {
	setString := func(dst *string, name string) {
		if *dst == "" {
			if val := os.Getenv(name); val != "" {
				*dst = val
			}
		}
	}

	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.Webhook.Domain, "WEBHOOK_DOMAIN")
	setString(&cfg.Telegram.Webhook.Path, "WEBHOOK_PATH")
	setString(&cfg.Telegram.Webhook.SecretToken, "WEBHOOK_SECRET_TOKEN")
	setString(&cfg.Backend.URL, "GOOGLE_SCRIPT_URL")
	setString(&cfg.Backend.APIKey, "API_KEY")
	setString(&cfg.Router.FormURL, "GOOGLE_FORM_URL")
	setString(&cfg.Router.DriveFolderID, "GOOGLE_DRIVE_FOLDER_ID")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Database.Postgres.User, "DB_USER")
	setString(&cfg.Database.Postgres.Password, "DB_PASSWORD")

	if cfg.Telegram.ChatID == 0 {
		if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
			if id, err := strconv.ParseInt(val, 10, 64); err == nil {
				cfg.Telegram.ChatID = id
			}
		}
	}
	if cfg.Telegram.Webhook.Port == 0 {
		if val := os.Getenv("WEBHOOK_PORT"); val != "" {
			if port, err := strconv.Atoi(val); err == nil {
				cfg.Telegram.Webhook.Port = port
			}
		}
	}
	if cfg.Telegram.Mode == "" && cfg.Telegram.Webhook.Domain != "" {
		cfg.Telegram.Mode = "webhook"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "contract-bot"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Telegram.Mode == "" {
		cfg.Telegram.Mode = "polling"
	}
	if cfg.Telegram.PollTimeout == 0 {
		cfg.Telegram.PollTimeout = 30
	}
	if cfg.Telegram.Webhook.Path == "" {
		cfg.Telegram.Webhook.Path = "/telegram/webhook"
	}
	if cfg.Telegram.Webhook.Port == 0 {
		cfg.Telegram.Webhook.Port = 3000
	}

	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30000
	}
	if cfg.Backend.RetryAttempts == 0 {
		cfg.Backend.RetryAttempts = 3
	}
	if cfg.Backend.RetryDelay == 0 {
		cfg.Backend.RetryDelay = 2000
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * 60 * 1000
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = 100
	}

	if cfg.Router.EditTimeout == 0 {
		cfg.Router.EditTimeout = 5 * 60 * 1000
	}
	if cfg.Router.SweepInterval == 0 {
		cfg.Router.SweepInterval = 30000
	}
	if cfg.Router.Workers == 0 {
		cfg.Router.Workers = 4
	}
	if cfg.Router.QueueSize == 0 {
		cfg.Router.QueueSize = 64
	}
	if cfg.Router.ContractsPerPage == 0 {
		cfg.Router.ContractsPerPage = 10
	}
	if cfg.Router.MaxSearchResults == 0 {
		cfg.Router.MaxSearchResults = 20
	}
	if cfg.Router.MaxExportRecords == 0 {
		cfg.Router.MaxExportRecords = 1000
	}

	if cfg.State.Backend == "" {
		cfg.State.Backend = "memory"
	}
	if cfg.State.Prefix == "" {
		cfg.State.Prefix = "contract-bot:pending:"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if cfg.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if cfg.Backend.APIKey == "" {
		return fmt.Errorf("backend.api_key is required")
	}

	switch cfg.Telegram.Mode {
	case "polling":
	case "webhook":
		if cfg.Telegram.Webhook.Domain == "" {
			return fmt.Errorf("telegram.webhook.domain is required in webhook mode")
		}
	default:
		return fmt.Errorf("telegram.mode must be polling or webhook, got %q", cfg.Telegram.Mode)
	}

	switch cfg.State.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when state.backend is redis")
		}
	default:
		return fmt.Errorf("state.backend must be memory or redis, got %q", cfg.State.Backend)
	}

	if cfg.Audit.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when audit is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when audit is enabled")
		}
	}

	if cfg.Backend.RetryAttempts < 1 {
		return fmt.Errorf("backend.retry_attempts must be at least 1")
	}
	if cfg.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be at least 1")
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
