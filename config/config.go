package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vastai-scraper/models"
)

const DefaultBaseURL = "https://cloud.vast.ai/api/v0/bundles/"

// Config holds all application configuration loaded from environment variables.
// It is built once at startup and never mutated afterwards.
type Config struct {
	DataDir      string
	Schedule     string
	ListingTypes []models.ListingType

	BaseURL         string
	UserAgent       string
	RequestTimeout  time.Duration
	MaxRetries      int
	RetryBackoffCap time.Duration
	RateLimit       time.Duration
	QueryFile       string
	Query           Query

	HealthcheckURL     string
	HealthcheckTimeout time.Duration

	DatabaseURL string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DataDir:      getEnv("DATA_DIR", "./data"),
		Schedule:     getEnv("SCHEDULE", "*/5 * * * *"),
		ListingTypes: getEnvListingTypes("LISTING_TYPES", []models.ListingType{models.ListingAsk, models.ListingBid}),

		BaseURL:            getEnv("VAST_BASE_URL", DefaultBaseURL),
		UserAgent:          getEnv("USER_AGENT", "vastai-scraper/1.0"),
		RequestTimeout:     getEnvMillis("REQUEST_TIMEOUT_MS", 30000),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		RetryBackoffCap:    getEnvMillis("RETRY_BACKOFF_CAP_MS", 10000),
		RateLimit:          getEnvMillis("RATE_LIMIT_MS", 0),
		QueryFile:          getEnv("QUERY_FILE", ""),
		Query:              DefaultQuery(),
		HealthcheckURL:     getEnv("HEALTHCHECK_URL", ""),
		HealthcheckTimeout: getEnvMillis("HEALTHCHECK_TIMEOUT_MS", 10000),

		DatabaseURL: getEnv("OFFERS_DATABASE_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if cfg.QueryFile != "" {
		q, err := LoadQuery(cfg.QueryFile)
		if err != nil {
			return nil, err
		}
		cfg.Query = q
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the scraper cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: DATA_DIR must not be empty")
	}
	if len(c.ListingTypes) == 0 {
		return errors.New("config: at least one listing type is required")
	}
	if c.MaxRetries < 0 {
		return errors.New("config: MAX_RETRIES must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvMillis(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}

func getEnvListingTypes(key string, fallback []models.ListingType) []models.ListingType {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var types []models.ListingType
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			types = append(types, models.ListingType(p))
		}
	}
	return types
}
