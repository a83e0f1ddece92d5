package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	appNameKey  = "app_name"
	envKey      = "env"
	logLevelKey = "log_level"

	apiBaseURLKey     = "api.base_url"
	apiRefreshPathKey = "api.refresh_path"
	apiTimeoutKey     = "api.timeout"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameKey)
}

func (e EnvVars) GetEnv() string {
	env := e.v.GetString(envKey)
	if env == "" {
		return "DEV"
	}
	return env
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelKey)
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRefreshPath() string
	GetRequestTimeout() time.Duration
}

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the REST API origin (e.g., "http://localhost:5000")
func (a API) GetAPIBaseURL() string {
	return a.v.GetString(apiBaseURLKey)
}

// GetRefreshPath returns the path of the refresh endpoint. Calls to it are
// never intercepted by the request pipeline.
func (a API) GetRefreshPath() string {
	return a.v.GetString(apiRefreshPathKey)
}

func (a API) GetRequestTimeout() time.Duration {
	return a.v.GetDuration(apiTimeoutKey)
}
