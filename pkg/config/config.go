package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// Dataset formats
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	Environment      string
	LogLevel         string
	LogFormat        string
	Port             string
	DatasetPath      string
	DatasetFormat    string
	DatasetName      string
	PolicyPath       string
	ClusterCount     int
	UnseenCategory   models.UnseenCategoryPolicy
	ReloadSchedule   string
	MaxReferenceSize int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		Port:             getEnv("PORT", "8080"),
		DatasetPath:      getEnv("DATASET_PATH", ""),
		DatasetFormat:    strings.ToLower(getEnv("DATASET_FORMAT", "")),
		DatasetName:      getEnv("DATASET_NAME", "reference"),
		PolicyPath:       getEnv("POLICY_PATH", ""),
		ClusterCount:     getEnvAsInt("CLUSTER_COUNT", 0),
		UnseenCategory:   models.UnseenCategoryPolicy(getEnv("UNSEEN_CATEGORY", "")),
		ReloadSchedule:   getEnv("RELOAD_SCHEDULE", ""),
		MaxReferenceSize: getEnvAsInt("MAX_REFERENCE_SIZE", 2000),
		CORSOrigins:      getEnvAsList("CORS_ORIGINS", []string{"*"}),
	}

	// Validate required configuration
	if config.DatasetPath == "" {
		return nil, fmt.Errorf("DATASET_PATH is required")
	}

	if config.DatasetFormat == "" {
		config.DatasetFormat = InferFormat(config.DatasetPath)
	}
	if config.DatasetFormat != FormatCSV && config.DatasetFormat != FormatSQLite {
		return nil, fmt.Errorf("DATASET_FORMAT must be %s or %s, got %q", FormatCSV, FormatSQLite, config.DatasetFormat)
	}

	if config.ClusterCount < 0 {
		return nil, fmt.Errorf("CLUSTER_COUNT must be positive, got %d", config.ClusterCount)
	}

	if config.UnseenCategory != "" && !config.UnseenCategory.Valid() {
		return nil, fmt.Errorf("UNSEEN_CATEGORY must be one of %s, %s, %s",
			models.UnseenFirstCode, models.UnseenSentinel, models.UnseenOutOfVocabulary)
	}

	return config, nil
}

// InferFormat guesses the dataset format from the file extension
func InferFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
