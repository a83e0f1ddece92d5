package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	devAPIPortKey               = "devapi.port"
	devAPIJWTSecretKey          = "devapi.jwt_secret"
	devAPIAccessTokenExpiryKey  = "devapi.access_token_expiry"
	devAPIRefreshTokenExpiryKey = "devapi.refresh_token_expiry"
	devAPIAdminEmailKey         = "devapi.admin_email"
	devAPIAdminPasswordKey      = "devapi.admin_password"
)

// DevAPIConfig configures the in-memory development API server.
type DevAPIConfig interface {
	GetPort() string
	GetJWTSecret() []byte
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetAdminEmail() string
	GetAdminPassword() string
}

type DevAPI struct {
	v *viper.Viper
}

var _ DevAPIConfig = DevAPI{}

func (d DevAPI) GetPort() string {
	port := d.v.GetString(devAPIPortKey)
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (d DevAPI) GetJWTSecret() []byte {
	return []byte(d.v.GetString(devAPIJWTSecretKey))
}

func (d DevAPI) GetAccessTokenExpiry() time.Duration {
	return d.v.GetDuration(devAPIAccessTokenExpiryKey)
}

func (d DevAPI) GetRefreshTokenExpiry() time.Duration {
	return d.v.GetDuration(devAPIRefreshTokenExpiryKey)
}

func (d DevAPI) GetAdminEmail() string {
	return d.v.GetString(devAPIAdminEmailKey)
}

func (d DevAPI) GetAdminPassword() string {
	return d.v.GetString(devAPIAdminPasswordKey)
}
