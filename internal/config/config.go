package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "TASKCLIENT"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	RedisConfig
	DevAPIConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Redis
	DevAPI
	Cors
}

// New returns a Config that reads TASKCLIENT_* environment variables.
func New() Config {
	return newMainConfig(newViper())
}

// NewFromFile reads the given config file (yaml, json or toml) with
// environment variables taking precedence over file values.
func NewFromFile(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("[config.NewFromFile] failed to read %s: %w", path, err)
	}
	return newMainConfig(v), nil
}

func newMainConfig(v *viper.Viper) Config {
	return mainConfig{
		EnvVars: EnvVars{v: v},
		API:     API{v: v},
		Session: Session{v: v},
		Redis:   Redis{v: v},
		DevAPI:  DevAPI{v: v},
		Cors:    Cors{v: v},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameKey, "Task Client")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(logLevelKey, "info")

	v.SetDefault(apiBaseURLKey, "http://localhost:5000")
	v.SetDefault(apiRefreshPathKey, "/api/auth/refresh")
	v.SetDefault(apiTimeoutKey, "30s")

	v.SetDefault(sessionStoreKey, StoreFile)
	v.SetDefault(sessionFileKey, "./data/session.json")
	v.SetDefault(sessionKeyKey, "auth")
	v.SetDefault(sessionRefreshTimeoutKey, "0s")

	v.SetDefault(redisAddrKey, "localhost:6379")
	v.SetDefault(redisDBKey, 0)
	v.SetDefault(redisPrefixKey, "taskclient")
	v.SetDefault(redisTTLKey, "168h")

	v.SetDefault(devAPIPortKey, "5000")
	v.SetDefault(devAPIJWTSecretKey, "dev-secret-change-me")
	v.SetDefault(devAPIAccessTokenExpiryKey, "15m")
	v.SetDefault(devAPIRefreshTokenExpiryKey, "168h")
	v.SetDefault(devAPIAdminEmailKey, "admin@example.com")
	v.SetDefault(devAPIAdminPasswordKey, "Admin1234")

	v.SetDefault(corsAllowedOriginsKey, []string{"http://localhost:5173"})
}
