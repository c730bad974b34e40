package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

const appDirName = "activity-tracker"

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Tracker configuration
	Tracker TrackerConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Report configuration
	Report ReportConfig

	// Category configuration
	Categories CategoryConfig

	// Web server configuration
	Web WebConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// TrackerConfig holds sampling and merging behavior
type TrackerConfig struct {
	PollInterval    time.Duration // How often to sample the foreground window
	MinPollInterval time.Duration // Minimum allowed poll interval
	MaxPollInterval time.Duration // Maximum allowed poll interval
	IdleThreshold   time.Duration // Input inactivity before a sample counts as idle
	MaxGap          time.Duration // Largest gap between samples still merged into one activity
	FlushTimeout    time.Duration // Budget for persisting the open interval at shutdown
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
	LogFile string // Where the detached daemon writes its log
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	TimeZone         string // IANA zone used for day buckets and period ranges
	DailyGoalMinutes int64  // Initial daily productive goal, stored in settings on first run
}

// CategoryConfig controls category bootstrap
type CategoryConfig struct {
	SeedDefaults bool // Install the default categories into an empty table
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to (loopback only)
	Port int    // Port for web server
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/activity-tracker/activity.db
		},
		Tracker: TrackerConfig{
			PollInterval:    15 * time.Second,
			MinPollInterval: 1 * time.Second,
			MaxPollInterval: 300 * time.Second,
			IdleThreshold:   300 * time.Second,
			MaxGap:          5 * time.Minute,
			FlushTimeout:    5 * time.Second,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/activity-tracker-%d.pid", os.Getuid()),
			LogFile: filepath.Join(os.TempDir(), "activity-tracker.log"),
		},
		Report: ReportConfig{
			TimeZone:         "Local",
			DailyGoalMinutes: 480,
		},
		Categories: CategoryConfig{
			SeedDefaults: true,
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 10000 + os.Getuid()%50000,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	if c.Tracker.IdleThreshold < 0 {
		return fmt.Errorf("idle threshold cannot be negative")
	}

	// A max gap below the poll interval would split every pair of samples.
	if c.Tracker.MaxGap < c.Tracker.PollInterval {
		return fmt.Errorf("max gap (%v) cannot be less than poll interval (%v)",
			c.Tracker.MaxGap, c.Tracker.PollInterval)
	}

	if c.Tracker.FlushTimeout <= 0 {
		return fmt.Errorf("flush timeout must be positive")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Report.DailyGoalMinutes < 0 {
		return fmt.Errorf("daily goal cannot be negative")
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if !isLoopback(c.Web.Host) {
		return fmt.Errorf("web host must be a loopback address, got %q", c.Web.Host)
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// Location resolves Report.TimeZone
func (c *Config) Location() (*time.Location, error) {
	switch c.Report.TimeZone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Report.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.Report.TimeZone, err)
	}
	return loc, nil
}

// MustLocation is Location for already validated configs.
func (c *Config) MustLocation() *time.Location {
	loc, err := c.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// GetPollIntervalSeconds returns the poll interval in seconds
func (c *Config) GetPollIntervalSeconds() int64 {
	return int64(c.Tracker.PollInterval.Seconds())
}

// GetIdleThresholdSeconds returns the idle threshold in seconds
func (c *Config) GetIdleThresholdSeconds() int64 {
	return int64(c.Tracker.IdleThreshold.Seconds())
}

// Address returns host:port for the web server
func (c *Config) Address() string {
	return net.JoinHostPort(c.Web.Host, fmt.Sprintf("%d", c.Web.Port))
}

// DefaultDataDir returns ~/.config/activity-tracker, creating it if needed.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Tracker:
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
    Idle Threshold: %v
    Max Gap: %v
  Daemon:
    PID File: %s
    Log File: %s
  Report:
    Time Zone: %s
    Daily Goal: %dm
  Categories:
    Seed Defaults: %v
  Web:
    Host: %s
    Port: %d`,
		c.Database.Path,
		c.Tracker.PollInterval,
		c.Tracker.MinPollInterval,
		c.Tracker.MaxPollInterval,
		c.Tracker.IdleThreshold,
		c.Tracker.MaxGap,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Report.TimeZone,
		c.Report.DailyGoalMinutes,
		c.Categories.SeedDefaults,
		c.Web.Host,
		c.Web.Port,
	)
}
