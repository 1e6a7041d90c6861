package settings

// DB config keys and defaults for settings.
const (
	// RateLimitKey controls the per-chat message rate limit per second.
	RateLimitKey = "RATE_LIMIT"
	// RateLimitRedisEnabledKey toggles Redis-backed rate limiting.
	RateLimitRedisEnabledKey = "RATE_LIMIT_REDIS_ENABLED"
	// RateLimitRedisAddrKey defines the Redis address for rate limiting.
	RateLimitRedisAddrKey = "RATE_LIMIT_REDIS_ADDR"
	// RateLimitRedisPasswordKey defines the Redis password for rate limiting.
	RateLimitRedisPasswordKey = "RATE_LIMIT_REDIS_PASSWORD"
	// RateLimitRedisDBKey defines the Redis DB index for rate limiting.
	RateLimitRedisDBKey = "RATE_LIMIT_REDIS_DB"
	// RateLimitRedisPrefixKey defines the Redis key prefix for rate limiting.
	RateLimitRedisPrefixKey = "RATE_LIMIT_REDIS_PREFIX"
	// LockTTLSecondsKey controls the reservation lock expiry in seconds.
	LockTTLSecondsKey = "RESERVATION_LOCK_TTL_SECONDS"
	// GenerationModelKey overrides the upstream generation model.
	GenerationModelKey = "GENERATION_MODEL"

	// DefaultRateLimit is the fallback rate limit (0 means unlimited).
	DefaultRateLimit = 0
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "pf:rl"
	// DefaultLockTTLSeconds is the fallback reservation lock expiry.
	DefaultLockTTLSeconds = 120
	// DefaultGenerationModel is the fallback upstream model.
	DefaultGenerationModel = "mistralai/mistral-7b-instruct"
)
