package config

import (
	"os"
	"time"
)

type EnvVars struct {
	AppName    string `yaml:"app_name" env:"APP_NAME" env-default:"Zenomi Health"`
	Env        string `yaml:"env" env:"ENV" env-default:"DEV"`
	LogLevel   string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	DataFolder string `yaml:"data_dir" env:"PORTAL_DATA_DIR"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetDataFolder is where the persisted session record lives.
func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

type API struct {
	BaseURL string        `yaml:"base_url" env:"PORTAL_API_URL" env-default:"http://localhost:3000"`
	Timeout time.Duration `yaml:"timeout" env:"PORTAL_HTTP_TIMEOUT" env-default:"15s"`
}

var _ APIConfig = API{}

func (a API) GetAPIBaseURL() string {
	return a.BaseURL
}

func (a API) GetHTTPTimeout() time.Duration {
	return a.Timeout
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
