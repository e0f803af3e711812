package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all pipeline configuration loaded from environment variables.
// Every stage receives it explicitly.
type Config struct {
	InputPath        string
	OutputPath       string
	ConcurrencyLimit int
	RetryBound       int
	RequestTimeout   time.Duration
	RetryDelay       time.Duration
	RateLimitMs      int

	AvailablePath   string
	PredictionsPath string
	RevenueXLSXPath string

	PropertyNameColumn string
	EndpointColumn     string
	UnitPrefixes       []string

	BrowserFallback bool
	ChromeBin       string

	MirrorDriver string
	MirrorDSN    string

	LogLevel  string
	LogFormat string

	ForestTrees     int
	ForestSeed      int64
	HoldoutFraction float64
}

// Load reads envFile (if present) and returns a populated Config.
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("[config] No %s file found, falling back to system env vars", envFile)
	}

	return &Config{
		InputPath:        getEnv("INPUT_PATH", "./data/property_urls.csv"),
		OutputPath:       getEnv("OUTPUT_PATH", "./data/complete_portfolio.csv"),
		ConcurrencyLimit: getEnvInt("CONCURRENCY_LIMIT", 10),
		RetryBound:       getEnvInt("RETRY_BOUND", 3),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RetryDelay:       getEnvDuration("RETRY_DELAY", 2*time.Second),
		RateLimitMs:      getEnvInt("RATE_LIMIT_MS", 0),

		AvailablePath:   getEnv("AVAILABLE_PATH", "./data/currently_available.csv"),
		PredictionsPath: getEnv("PREDICTIONS_PATH", "./data/missing_properties_predictions.csv"),
		RevenueXLSXPath: getEnv("REVENUE_XLSX_PATH", ""),

		PropertyNameColumn: getEnv("PROPERTY_NAME_COLUMN", "property_name"),
		EndpointColumn:     getEnv("ENDPOINT_COLUMN", "Sitemap Url"),
		UnitPrefixes:       getEnvList("UNIT_PREFIXES"),

		BrowserFallback: getEnvBool("BROWSER_FALLBACK", false),
		ChromeBin:       getEnv("CHROME_BIN", ""),

		MirrorDriver: getEnv("MIRROR_DRIVER", ""),
		MirrorDSN:    getEnv("MIRROR_DSN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		ForestTrees:     getEnvInt("FOREST_TREES", 100),
		ForestSeed:      int64(getEnvInt("FOREST_SEED", 1)),
		HoldoutFraction: getEnvFloat("HOLDOUT_FRACTION", 0.2),
	}
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

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("30s") or plain seconds ("30").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
