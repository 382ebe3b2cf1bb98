package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              int
	Headless          bool
	BaseURL           string
	SearchURL         string
	NavTimeout        time.Duration
	NavRetries        int
	RunTimeout        time.Duration
	MinDelay          time.Duration
	MaxDelay          time.Duration
	MaxScrolls        int
	ScrollSettle      time.Duration
	DefaultMaxResults int
	MinMaxResults     int
	MaxMaxResults     int
	MaxConcurrentJobs int
	JobRetention      time.Duration
	SweepInterval     time.Duration
	ScreenshotDir     string
	CSVDir            string
}

func DefaultConfig() *Config {
	return &Config{
		Port:              8080,
		Headless:          true,
		BaseURL:           "https://www.google.com",
		SearchURL:         "https://www.google.com/maps/search/",
		NavTimeout:        30 * time.Second,
		NavRetries:        3,
		RunTimeout:        10 * time.Minute,
		MinDelay:          1 * time.Second,
		MaxDelay:          4 * time.Second,
		MaxScrolls:        40,
		ScrollSettle:      3 * time.Second,
		DefaultMaxResults: 20,
		MinMaxResults:     1,
		MaxMaxResults:     200,
		MaxConcurrentJobs: 4,
		JobRetention:      2 * time.Hour,
		SweepInterval:     10 * time.Minute,
		ScreenshotDir:     "output/screenshots",
		CSVDir:            "output/csv",
	}
}

// Load returns the defaults overridden by environment variables.
func Load() *Config {
	cfg := DefaultConfig()
	cfg.Port = intEnv("PORT", cfg.Port)
	cfg.Headless = boolEnv("HEADLESS", cfg.Headless)
	cfg.NavRetries = intEnv("NAV_RETRIES", cfg.NavRetries)
	cfg.MaxScrolls = intEnv("MAX_SCROLLS", cfg.MaxScrolls)
	cfg.DefaultMaxResults = intEnv("DEFAULT_MAX_RESULTS", cfg.DefaultMaxResults)
	cfg.MaxConcurrentJobs = intEnv("MAX_CONCURRENT_JOBS", cfg.MaxConcurrentJobs)
	cfg.RunTimeout = durationEnv("RUN_TIMEOUT_MS", cfg.RunTimeout)
	cfg.JobRetention = durationEnv("JOB_RETENTION_MS", cfg.JobRetention)
	cfg.SweepInterval = durationEnv("SWEEP_INTERVAL_MS", cfg.SweepInterval)
	cfg.ScreenshotDir = strEnv("SCREENSHOT_DIR", cfg.ScreenshotDir)
	cfg.CSVDir = strEnv("CSV_DIR", cfg.CSVDir)
	return cfg
}

func strEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func intEnv(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	ms, err := strconv.Atoi(value)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
