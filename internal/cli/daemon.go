package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kodustech/activity-tracker/internal/config"
	"github.com/kodustech/activity-tracker/internal/daemon"
	"github.com/kodustech/activity-tracker/internal/tracker"
	"github.com/kodustech/activity-tracker/internal/web"
	"github.com/kodustech/activity-tracker/pkg/detector"
	"github.com/kodustech/activity-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	start := &cobra.Command{
		Use:   "start",
		Short: "Start the tracking daemon",
		Run: func(cmd *cobra.Command, args []string) {
			runDaemon(cmd, false)
		},
	}
	start.Flags().BoolP("foreground", "F", false, "Run in the foreground instead of detaching")
	start.Flags().DurationP("interval", "i", 0, "Poll interval, e.g. 10s (default: $ACTIVITY_TRACKER_POLL_INTERVAL or 15s)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the tracking daemon with the loopback HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			runDaemon(cmd, true)
		},
	}
	serve.Flags().BoolP("foreground", "F", false, "Run in the foreground instead of detaching")
	serve.Flags().IntP("port", "p", 0, "HTTP port (default: $ACTIVITY_TRACKER_WEB_PORT)")
	serve.Flags().DurationP("interval", "i", 0, "Poll interval, e.g. 10s (default: $ACTIVITY_TRACKER_POLL_INTERVAL or 15s)")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the tracking daemon",
		Run:   runStop,
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status, today's totals and the focused window",
		Run:   runStatus,
	}

	RootCmd.AddCommand(start, serve, stop, status)
}

func runDaemon(cmd *cobra.Command, withWeb bool) {
	cfg := loadConfig()
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		if err := cfg.SetWebPort(port); err != nil {
			exitErr("--port", err)
		}
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval != 0 {
		if err := cfg.SetPollInterval(interval); err != nil {
			exitErr("--interval", err)
		}
		if err := cfg.Validate(); err != nil {
			exitErr("--interval", err)
		}
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		exitErr("check daemon status", err)
	}
	if running {
		exitErr("start", fmt.Errorf("daemon is already running (PID: %d)", pid))
	}

	foreground, _ := cmd.Flags().GetBool("foreground")
	if !foreground && !daemon.IsChild() {
		pid, err := daemon.Daemonize()
		if err != nil {
			exitErr("daemonize", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Daemon started successfully (PID: %d)\n", pid)
		if withWeb {
			fmt.Fprintf(out, "Web API available at: http://%s\n", cfg.Address())
		}
		fmt.Fprintf(out, "Logs: %s\n", cfg.Daemon.LogFile)
		return
	}

	if daemon.IsChild() {
		logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		}
	}

	if err := runTracker(cmd.Context(), cfg, dm, withWeb); err != nil {
		log.Printf("Tracker error: %v", err)
		exitErr("tracker", err)
	}
	log.Println("Daemon stopped successfully")
}

// runTracker owns the sampler and, with withWeb, the HTTP server until
// SIGINT or SIGTERM. Either component failing stops the other.
func runTracker(ctx context.Context, cfg *config.Config, dm *daemon.Daemon, withWeb bool) error {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	p := detector.New()
	defer p.Close()
	log.Printf("Window probe initialized: %s", p.GetDisplayServer())

	if err := dm.WritePID(); err != nil {
		return err
	}
	defer dm.RemovePID()

	trackerSvc := tracker.NewService(cfg, a.repo, p)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return trackerSvc.Start(gctx)
	})

	if withWeb {
		gin.SetMode(gin.ReleaseMode)
		webServer := web.NewServer(cfg, a.engine, trackerSvc)
		log.Printf("Web API available at: http://%s", webServer.GetAddress())

		g.Go(webServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return webServer.Shutdown(shutdownCtx)
		})
	}

	log.Println("Starting activity-tracker daemon...")
	log.Printf("Configuration:\n%s", cfg.String())

	return g.Wait()
}

func runStop(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)
	out := cmd.OutOrStdout()

	running, pid, err := dm.IsRunning()
	if err != nil {
		exitErr("check daemon status", err)
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return
	}

	fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(cfg.Tracker.FlushTimeout + 5*time.Second); err != nil {
		exitErr("stop daemon", err)
	}

	fmt.Fprintln(out, "Daemon stopped successfully")
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)
	out := cmd.OutOrStdout()

	running, pid, err := dm.IsRunning()
	if err != nil {
		exitErr("check daemon status", err)
	}

	if !running {
		fmt.Fprintln(out, "Status: Not running")
	} else {
		fmt.Fprintf(out, "Status: Running (PID: %d)\n", pid)
		fmt.Fprintf(out, "Poll Interval: %v\n", cfg.Tracker.PollInterval)
	}

	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		exitErr("open database", err)
	}
	defer a.Close()

	summary, err := a.engine.GetTodaySummary(cmd.Context())
	if err != nil {
		exitErr("today summary", err)
	}
	fmt.Fprintf(out, "\nToday (%s):\n", summary.Date)
	fmt.Fprintf(out, "  Total:      %s\n", utils.FormatDuration(summary.TotalTime))
	fmt.Fprintf(out, "  Productive: %s (%d%%)\n", utils.FormatDuration(summary.ProductiveTime), summary.GoalPercentage)
	fmt.Fprintf(out, "  Goal:       %d%% of %s\n", summary.GoalProgress, utils.FormatDuration(summary.DailyGoalMinutes*60))

	if latest, err := a.repo.LatestActivity(cmd.Context()); err == nil && latest != nil {
		fmt.Fprintf(out, "  Last:       %s at %s\n", latest.Application,
			latest.EndTime.In(a.engine.Location()).Format("2006-01-02 15:04:05"))
	}

	errorLogs, err := a.repo.RecentErrors(cmd.Context(), 3)
	if err == nil && len(errorLogs) > 0 {
		fmt.Fprintf(out, "\nRecent Errors:\n")
		for _, e := range errorLogs {
			fmt.Fprintf(out, "  %s [%s] %s\n", e.Timestamp.In(a.engine.Location()).Format("15:04:05"), e.Source, e.ErrorMsg)
		}
	}

	p := detector.New()
	defer p.Close()

	windowInfo, err := p.GetFocusedWindow()
	if err != nil {
		fmt.Fprintf(out, "\nCould not detect current window: %v\n", err)
		return
	}
	fmt.Fprintf(out, "\nCurrent Window:\n")
	fmt.Fprintf(out, "  App: %s\n", windowInfo.AppName)
	fmt.Fprintf(out, "  Title: %s\n", windowInfo.WindowTitle)
	fmt.Fprintf(out, "  Display: %s\n", windowInfo.DisplayServer)

	idleInfo, err := p.GetIdleInfo()
	if err == nil && idleInfo != nil {
		fmt.Fprintf(out, "\nSystem State:\n")
		fmt.Fprintf(out, "  Idle: %v\n", idleInfo.IsIdle(cfg.Tracker.IdleThreshold))
		fmt.Fprintf(out, "  Locked: %v\n", idleInfo.IsLocked)
		fmt.Fprintf(out, "  Since Last Input: %s\n", idleInfo.IdleTime.Truncate(time.Second))
	}
}
