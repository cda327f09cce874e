package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	PagesToScrape  int
	RequestTimeout time.Duration

	RateAPIURL      string
	IncludeML       bool
	IncludeKavak    bool
	IncludeKavakWeb bool
	MercadoLibreURL string
	KavakAPIURL     string
	KavakWebURL     string
	SourcesFile     string

	CSVOutputPath string
	ChromeBin     string

	LogLevel  string
	LogFormat string
}

// Load reads the .env file and returns a populated Config struct. When
// SOURCES_FILE is set, its per-source settings override the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := FromEnv()
	if cfg.SourcesFile != "" {
		sources, err := LoadSources(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		sources.Apply(cfg)
	}
	return cfg, nil
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "autovalor"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "autovalor"),
		PostgresDB:       getEnv("POSTGRES_DB", "autovalor"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 0),
		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		PagesToScrape:  getEnvInt("PAGES_TO_SCRAPE", 3),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 15)) * time.Second,

		RateAPIURL:      getEnv("RATE_API_URL", "https://api.bluelytics.com.ar/v2/latest"),
		IncludeML:       getEnvBool("INCLUDE_ML", true),
		IncludeKavak:    getEnvBool("INCLUDE_KAVAK", false),
		IncludeKavakWeb: getEnvBool("INCLUDE_KAVAK_WEB", false),
		MercadoLibreURL: getEnv("MERCADOLIBRE_URL", ""),
		KavakAPIURL:     getEnv("KAVAK_API_URL", ""),
		KavakWebURL:     getEnv("KAVAK_WEB_URL", ""),
		SourcesFile:     getEnv("SOURCES_FILE", ""),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/cars.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
