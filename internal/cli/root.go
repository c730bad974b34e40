// Package cli implements the activity-tracker CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kodustech/activity-tracker/internal/category"
	"github.com/kodustech/activity-tracker/internal/config"
	"github.com/kodustech/activity-tracker/internal/database"
	"github.com/kodustech/activity-tracker/internal/engine"
	"github.com/kodustech/activity-tracker/internal/reporter"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

var (
	dbPath   string
	timeZone string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "activity-tracker",
	Short: "Local desktop usage tracker",
	Long: `activity-tracker samples the foreground application, merges samples into
activity intervals stored in a local SQLite database, and reports time per
application, productive time and idle time by day, week or month.

Environment Variables:
  ACTIVITY_TRACKER_DB_PATH          Database file path
  ACTIVITY_TRACKER_POLL_INTERVAL    Poll interval in seconds (1-300)
  ACTIVITY_TRACKER_IDLE_THRESHOLD   Idle threshold in seconds
  ACTIVITY_TRACKER_MAX_GAP          Longest gap in seconds merged into one activity
  ACTIVITY_TRACKER_PID_FILE         PID file path
  ACTIVITY_TRACKER_LOG_FILE         Daemon log file
  ACTIVITY_TRACKER_TIMEZONE         IANA zone for day boundaries (default Local)
  ACTIVITY_TRACKER_DAILY_GOAL       Initial daily productive goal in minutes
  ACTIVITY_TRACKER_WEB_PORT         Port of the loopback HTTP API
  ACTIVITY_TRACKER_ENV_FILE         Optional .env file (default ./.env)`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $ACTIVITY_TRACKER_DB_PATH or ~/.config/activity-tracker/activity.db)")
	RootCmd.PersistentFlags().StringVar(&timeZone, "tz", "", "Time zone for day boundaries (default: $ACTIVITY_TRACKER_TIMEZONE or Local)")
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads defaults, the .env overlay and the environment, then the
// persistent flags.
func loadConfig() *config.Config {
	cfg := config.New()
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if timeZone != "" {
		cfg.Report.TimeZone = timeZone
	}
	if err := cfg.Validate(); err != nil {
		exitErr("invalid configuration", err)
	}
	return cfg
}

// app bundles the open database with the services built on it.
type app struct {
	cfg        *config.Config
	db         *database.DB
	repo       *database.Repository
	categories *category.Service
	engine     *engine.Engine
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	repo := database.NewRepository(db)
	categories := category.NewService(repo, cfg.Report.DailyGoalMinutes)
	if cfg.Categories.SeedDefaults {
		if _, err := categories.SeedDefaults(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &app{
		cfg:        cfg,
		db:         db,
		repo:       repo,
		categories: categories,
		engine:     engine.New(repo, categories, cfg.MustLocation()),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// mustOpen loads the configuration and opens the database or exits.
func mustOpen(cmd *cobra.Command) *app {
	a, err := openApp(cmd.Context(), loadConfig())
	if err != nil {
		exitErr("open database", err)
	}
	return a
}

// parseDateFlag reads a YYYY-MM-DD or RFC 3339 flag; empty means now.
func parseDateFlag(cmd *cobra.Command, a *app, name string) time.Time {
	value, _ := cmd.Flags().GetString(name)
	t, err := reporter.ParseDate(value, a.engine.Location(), a.engine.Now())
	if err != nil {
		exitErr("--"+name, err)
	}
	return t
}

func printJSON(w io.Writer, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("marshal json", err)
	}
	fmt.Fprintln(w, string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
