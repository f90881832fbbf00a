package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	configPathEnvVar = "PORTAL_CONFIG"
	dotEnvFile       = ".env"
)

type Config interface {
	EnvConfig
	APIConfig
	CatalogConfig
	PricingConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
}

type mainConfig struct {
	EnvVars `yaml:",inline"`
	API     `yaml:"api"`
	Catalog `yaml:"catalog"`
	Pricing `yaml:"pricing"`
}

var _ Config = (*mainConfig)(nil)

// Load reads configuration in order of precedence: an explicit file path,
// the file named by PORTAL_CONFIG, then environment variables alone.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win over it.
func Load(path string) (Config, error) {
	if _, err := os.Stat(dotEnvFile); err == nil {
		if err := godotenv.Load(dotEnvFile); err != nil {
			return nil, fmt.Errorf("[config.Load] failed to read %s: %w", dotEnvFile, err)
		}
	}

	if path == "" {
		path = os.Getenv(configPathEnvVar)
	}

	var c mainConfig
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("[config.Load] config file %q stat failed: %w", path, err)
		}
		// ReadConfig overlays the environment on top of the file.
		if err := cleanenv.ReadConfig(path, &c); err != nil {
			return nil, fmt.Errorf("[config.Load] failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("[config.Load] failed to read env: %w", err)
	}

	c.EnvVars.DataFolder = resolveDataFolder(c.EnvVars.DataFolder)
	return &c, nil
}

func resolveDataFolder(folder string) string {
	if folder != "" {
		return folder
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "clinician-portal"
	}
	return "./data"
}
