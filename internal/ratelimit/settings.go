package ratelimit

import (
	"strings"

	internalsettings "github.com/postforge/postforge/internal/settings"
)

// SettingsConfig captures rate limit settings stored in DB config.
type SettingsConfig struct {
	Limit         int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsProvider supplies the latest settings snapshot.
type SettingsProvider func() SettingsConfig

// ProviderFromStore builds a SettingsProvider reading the settings
// snapshot store.
func ProviderFromStore(store *internalsettings.Store) SettingsProvider {
	return func() SettingsConfig {
		cfg := SettingsConfig{
			Limit:       internalsettings.DefaultRateLimit,
			RedisPrefix: internalsettings.DefaultRateLimitRedisPrefix,
		}
		if store == nil {
			return cfg
		}
		cfg.Limit = store.Int(internalsettings.RateLimitKey, internalsettings.DefaultRateLimit)
		cfg.RedisEnabled = store.Bool(internalsettings.RateLimitRedisEnabledKey, false)
		cfg.RedisAddr = strings.TrimSpace(store.String(internalsettings.RateLimitRedisAddrKey, ""))
		cfg.RedisPassword = store.String(internalsettings.RateLimitRedisPasswordKey, "")
		cfg.RedisDB = store.Int(internalsettings.RateLimitRedisDBKey, 0)
		cfg.RedisPrefix = store.String(internalsettings.RateLimitRedisPrefixKey, internalsettings.DefaultRateLimitRedisPrefix)

		if cfg.Limit < 0 {
			cfg.Limit = 0
		}
		if cfg.RedisDB < 0 {
			cfg.RedisDB = 0
		}
		if strings.TrimSpace(cfg.RedisPrefix) == "" {
			cfg.RedisPrefix = internalsettings.DefaultRateLimitRedisPrefix
		}
		return cfg
	}
}
