package config

import (
	"time"

	"github.com/spf13/viper"
)

// Session record backends
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

const (
	sessionStoreKey          = "session.store"
	sessionFileKey           = "session.file"
	sessionKeyKey            = "session.key"
	sessionRefreshTimeoutKey = "session.refresh_timeout"

	redisAddrKey     = "redis.addr"
	redisPasswordKey = "redis.password"
	redisDBKey       = "redis.db"
	redisPrefixKey   = "redis.prefix"
	redisTTLKey      = "redis.ttl"
)

type SessionConfig interface {
	GetSessionStore() string
	GetSessionFile() string
	GetSessionKey() string
	GetRefreshTimeout() time.Duration
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

// GetSessionStore returns the persisted record backend: memory, file or redis
func (s Session) GetSessionStore() string {
	return s.v.GetString(sessionStoreKey)
}

func (s Session) GetSessionFile() string {
	return s.v.GetString(sessionFileKey)
}

// GetSessionKey returns the well-known key the session record is stored under
func (s Session) GetSessionKey() string {
	return s.v.GetString(sessionKeyKey)
}

// GetRefreshTimeout bounds a single refresh call. Zero means wait indefinitely.
func (s Session) GetRefreshTimeout() time.Duration {
	return s.v.GetDuration(sessionRefreshTimeoutKey)
}

type RedisConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetRedisTTL() time.Duration
}

type Redis struct {
	v *viper.Viper
}

var _ RedisConfig = Redis{}

func (r Redis) GetRedisAddr() string {
	return r.v.GetString(redisAddrKey)
}

func (r Redis) GetRedisPassword() string {
	return r.v.GetString(redisPasswordKey)
}

func (r Redis) GetRedisDB() int {
	return r.v.GetInt(redisDBKey)
}

func (r Redis) GetRedisPrefix() string {
	return r.v.GetString(redisPrefixKey)
}

func (r Redis) GetRedisTTL() time.Duration {
	return r.v.GetDuration(redisTTLKey)
}
