package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by the service.
const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvBotToken     = "BOT_TOKEN"
	EnvAIAPIKey     = "AI_API_KEY"
	EnvAdminChatID  = "ADMIN_CHAT_ID"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"

	EnvAdminUsername = "ADMIN_USERNAME"
	EnvAdminPassword = "ADMIN_PASSWORD"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// DefaultSQLiteDSN is used when no database DSN is configured anywhere.
const DefaultSQLiteDSN = "file:postforge.db"

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// LoadDatabaseDSN reads the database DSN from the YAML config file.
// The DB_CONNECTION environment variable takes precedence.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
// Environment variables override file values.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// BotConfig holds Telegram and upstream generation settings.
type BotConfig struct {
	Token        string  `yaml:"token"`
	AdminChatIDs []int64 `yaml:"admin-chat-ids"`

	AIAPIKey  string `yaml:"-"`
	AIBaseURL string `yaml:"-"`
}

// ErrMissingBotToken indicates no bot token is configured.
var ErrMissingBotToken = errors.New("missing bot token (set BOT_TOKEN or `telegram.token` in config file)")

// LoadBotConfig loads Telegram and generation settings from the YAML
// config file. Environment variables override file values.
func LoadBotConfig(configPath string) (BotConfig, error) {
	// fileConfig maps the YAML fields needed for bot settings.
	type fileConfig struct {
		Telegram struct {
			Token        string  `yaml:"token"`
			AdminChatIDs []int64 `yaml:"admin-chat-ids"`
		} `yaml:"telegram"`
		OpenRouter struct {
			APIKey  string `yaml:"api-key"`
			BaseURL string `yaml:"base-url"`
		} `yaml:"openrouter"`
	}

	var result BotConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result.Token = strings.TrimSpace(cfg.Telegram.Token)
			result.AdminChatIDs = cfg.Telegram.AdminChatIDs
			result.AIAPIKey = strings.TrimSpace(cfg.OpenRouter.APIKey)
			result.AIBaseURL = strings.TrimSpace(cfg.OpenRouter.BaseURL)
		}
	}

	if token := strings.TrimSpace(os.Getenv(EnvBotToken)); token != "" {
		result.Token = token
	}
	if key := strings.TrimSpace(os.Getenv(EnvAIAPIKey)); key != "" {
		result.AIAPIKey = key
	}
	if rawID := strings.TrimSpace(os.Getenv(EnvAdminChatID)); rawID != "" {
		if chatID, errParse := strconv.ParseInt(rawID, 10, 64); errParse == nil {
			result.AdminChatIDs = append(result.AdminChatIDs, chatID)
		}
	}

	if result.Token == "" {
		return BotConfig{}, ErrMissingBotToken
	}
	return result, nil
}
