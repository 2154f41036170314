package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"linkmcp/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "linkmcp.yaml"

// Load builds the effective configuration: defaults, then the YAML file,
// then environment variables (the strongest layer). A .env file in the
// working directory is read into the environment first, matching how the
// OAuth application credentials are usually distributed.
//
// configFilePath selects an explicit YAML file; it must exist when set.
// When empty, linkmcp.yaml in the working directory is used if present.
func Load(configFilePath string) (Config, error) {
	// Missing .env is fine; real deployments often use actual env vars.
	_ = godotenv.Load()

	cfg := Default()

	path := configFilePath
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		logging.Debug("ConfigLoader", "No %s found, using defaults", defaultConfigFile)
	default:
		return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides configuration fields from the environment.
func applyEnv(cfg *Config) {
	cfg.LinkedIn.ClientID = getEnv("LINKEDIN_CLIENT_ID", cfg.LinkedIn.ClientID)
	cfg.LinkedIn.ClientSecret = getEnv("LINKEDIN_CLIENT_SECRET", cfg.LinkedIn.ClientSecret)
	cfg.LinkedIn.RedirectURI = getEnv("LINKEDIN_REDIRECT_URI", cfg.LinkedIn.RedirectURI)

	cfg.Server.Host = getEnv("LINKMCP_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("LINKMCP_PORT", cfg.Server.Port)
	cfg.Server.Transport = getEnv("LINKMCP_TRANSPORT", cfg.Server.Transport)

	cfg.Database.Path = getEnv("LINKMCP_DB_PATH", cfg.Database.Path)
	cfg.Logging.Level = getEnv("LINKMCP_LOG_LEVEL", cfg.Logging.Level)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logging.Warn("ConfigLoader", "Ignoring non-numeric value for %s: %q", key, value)
	}
	return defaultValue
}
