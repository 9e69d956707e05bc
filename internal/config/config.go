package config

import (
	"os"
	"strconv"
	"strings"

	"gosurv/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Plot     PlotConfig
	Fitting  FittingConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// DataConfig holds dataset location and column bindings
type DataConfig struct {
	File        string
	Sheet       string
	DurationCol string
	EventCol    string
}

// PlotConfig holds figure output settings
type PlotConfig struct {
	OutputDir string
	Format    string
	WidthCM   float64
	HeightCM  float64
}

// FittingConfig holds survival model parameters
type FittingConfig struct {
	CoxPenalizer     float64
	CoxMaxIterations int
	CoxTolerance     float64
	AalenPenalizer   float64
}

// DatabaseConfig holds the optional SQL dataset source
type DatabaseConfig struct {
	URL   string
	Query string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

var supportedFormats = map[string]bool{"png": true, "svg": true, "pdf": true, "eps": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:     *loadDataConfig(),
		Plot:     *loadPlotConfig(),
		Fitting:  *loadFittingConfig(),
		Database: *loadDatabaseConfig(),
		Server:   *loadServerConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:        getEnvOrDefault("SURV_DATA_FILE", ""),
		Sheet:       getEnvOrDefault("SURV_EXCEL_SHEET", "Sheet1"),
		DurationCol: getEnvOrDefault("SURV_DURATION_COL", "duration"),
		EventCol:    getEnvOrDefault("SURV_EVENT_COL", "event"),
	}
}

func loadPlotConfig() *PlotConfig {
	return &PlotConfig{
		OutputDir: getEnvOrDefault("SURV_OUTPUT_DIR", "plots"),
		Format:    strings.ToLower(getEnvOrDefault("SURV_PLOT_FORMAT", "png")),
		WidthCM:   getEnvFloatOrDefault("SURV_PLOT_WIDTH_CM", 16),
		HeightCM:  getEnvFloatOrDefault("SURV_PLOT_HEIGHT_CM", 10),
	}
}

func loadFittingConfig() *FittingConfig {
	return &FittingConfig{
		CoxPenalizer:     getEnvFloatOrDefault("SURV_COX_PENALIZER", 0),
		CoxMaxIterations: getEnvIntOrDefault("SURV_COX_MAX_ITER", 50),
		CoxTolerance:     getEnvFloatOrDefault("SURV_COX_TOLERANCE", 1e-7),
		AalenPenalizer:   getEnvFloatOrDefault("SURV_AALEN_PENALIZER", 0),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:   getEnvOrDefault("DATABASE_URL", ""),
		Query: getEnvOrDefault("SURV_SQL_QUERY", ""),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func validateConfig(config *Config) error {
	if config.Data.DurationCol == config.Data.EventCol {
		return errors.ConfigInvalid("SURV_DURATION_COL and SURV_EVENT_COL must differ")
	}
	if !supportedFormats[config.Plot.Format] {
		return errors.ConfigInvalid("unsupported SURV_PLOT_FORMAT " + config.Plot.Format)
	}
	if config.Plot.WidthCM <= 0 || config.Plot.HeightCM <= 0 {
		return errors.ConfigInvalid("plot dimensions must be positive")
	}
	if config.Fitting.CoxPenalizer < 0 || config.Fitting.AalenPenalizer < 0 {
		return errors.ConfigInvalid("penalizers must be non-negative")
	}
	if config.Fitting.CoxMaxIterations <= 0 {
		return errors.ConfigInvalid("SURV_COX_MAX_ITER must be positive")
	}
	if config.Fitting.CoxTolerance <= 0 {
		return errors.ConfigInvalid("SURV_COX_TOLERANCE must be positive")
	}
	if config.Database.Query != "" && config.Database.URL == "" {
		return errors.ConfigInvalid("SURV_SQL_QUERY requires DATABASE_URL")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
