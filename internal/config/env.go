package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "ACTIVITY_TRACKER_"

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment win over the file.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := getenv("DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Tracker configuration
	if pollInterval := getenv("POLL_INTERVAL"); pollInterval != "" {
		if seconds, err := strconv.Atoi(pollInterval); err == nil && seconds > 0 {
			interval := time.Duration(seconds) * time.Second
			if interval >= cfg.Tracker.MinPollInterval && interval <= cfg.Tracker.MaxPollInterval {
				cfg.Tracker.PollInterval = interval
			}
		}
	}

	if idleThreshold := getenv("IDLE_THRESHOLD"); idleThreshold != "" {
		if seconds, err := strconv.Atoi(idleThreshold); err == nil && seconds > 0 {
			cfg.Tracker.IdleThreshold = time.Duration(seconds) * time.Second
		}
	}

	if maxGap := getenv("MAX_GAP"); maxGap != "" {
		if seconds, err := strconv.Atoi(maxGap); err == nil && seconds > 0 {
			cfg.Tracker.MaxGap = time.Duration(seconds) * time.Second
		}
	}

	// Daemon configuration
	if pidFile := getenv("PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := getenv("LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	// Report configuration
	if timeZone := getenv("TIMEZONE"); timeZone != "" {
		cfg.Report.TimeZone = timeZone
	}

	if goal := getenv("DAILY_GOAL"); goal != "" {
		if minutes, err := strconv.ParseInt(goal, 10, 64); err == nil && minutes >= 0 {
			cfg.Report.DailyGoalMinutes = minutes
		}
	}

	if seed := getenv("SEED_CATEGORIES"); seed != "" {
		if val, err := strconv.ParseBool(seed); err == nil {
			cfg.Categories.SeedDefaults = val
		}
	}

	// Web configuration
	if webHost := getenv("WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := getenv("WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// New creates a new Config with default values, an optional .env overlay and
// the process environment.
func New() *Config {
	envFile := os.Getenv(envPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := LoadDotEnv(envFile); err != nil {
		log.Printf("Ignoring env file %s: %v", envFile, err)
	}

	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}

func getenv(key string) string {
	return os.Getenv(envPrefix + key)
}
