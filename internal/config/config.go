package config

import (
	"os"
	"strconv"
	"strings"

	"gocuts/domain/core"
	"gocuts/internal/errors"
)

// Config represents the complete process configuration
type Config struct {
	Cache    CacheConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

// CacheConfig selects the compute cache backend
type CacheConfig struct {
	Driver string // memory, sqlite3 or postgres
	DSN    string
}

// AnalysisConfig locates the analysis configuration and describes the run
type AnalysisConfig struct {
	Path    string
	RunType core.RunType
	DUTName string
	Lenient bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Cache:    loadCacheConfig(),
		Log:      LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
		Analysis: AnalysisConfig{},
	}

	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}
	config.Analysis = *analysis

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadCacheConfig() CacheConfig {
	dsn := getEnvOrDefault("GOCUTS_CACHE_DSN", "")
	driver := getEnvOrDefault("GOCUTS_CACHE_DRIVER", "")
	if driver == "" {
		driver = inferDriver(dsn)
	}
	return CacheConfig{Driver: driver, DSN: dsn}
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	runType, err := core.ParseRunType(getEnvOrDefault("GOCUTS_RUN_TYPE", string(core.RunTypePad)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	return &AnalysisConfig{
		Path:    getEnvOrDefault("GOCUTS_ANALYSIS_CONFIG", "analysis.yaml"),
		RunType: runType,
		DUTName: getEnvOrDefault("GOCUTS_DUT", ""),
		Lenient: getEnvBoolOrDefault("GOCUTS_LENIENT_CUTS", false),
	}, nil
}

func validateConfig(config *Config) error {
	switch config.Cache.Driver {
	case "memory":
	case "sqlite3", "postgres":
		if config.Cache.DSN == "" {
			return errors.ConfigInvalid("GOCUTS_CACHE_DSN is required for driver " + config.Cache.Driver)
		}
	default:
		return errors.ConfigInvalid("unsupported cache driver: " + config.Cache.Driver)
	}
	if config.Analysis.Path == "" {
		return errors.ConfigInvalid("analysis configuration path is required")
	}
	return nil
}

// inferDriver picks a cache driver from the shape of the DSN
func inferDriver(dsn string) string {
	switch {
	case dsn == "":
		return "memory"
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	default:
		return "sqlite3"
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
