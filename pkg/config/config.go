package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds everything the client needs to talk to the remote API.
type Config struct {
	Env         string
	APIBaseURL  string
	HTTPTimeout time.Duration
	SessionFile string

	Log LogConfig
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if _, statErr := os.Stat(".env"); !os.IsNotExist(statErr) {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.APIBaseURL = strings.TrimRight(v.GetString("API_BASE_URL"), "/")
	cfg.HTTPTimeout = parseDuration(v.GetString("HTTP_TIMEOUT"), 15*time.Second)

	cfg.SessionFile = v.GetString("SESSION_FILE")
	if cfg.SessionFile == "" {
		cfg.SessionFile = defaultSessionFile()
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("API_BASE_URL", "http://localhost:3000")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("SESSION_FILE", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".eventctl-session.yaml"
	}
	return filepath.Join(dir, "eventctl", "session.yaml")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
