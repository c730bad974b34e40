package x11

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/kodustech/activity-tracker/pkg/probe"

	"github.com/pkg/errors"
)

// Detector implements probe.Probe for X11 over a persistent xgb connection.
// A broken connection is dropped and re-dialed on the next query.
type Detector struct {
	mu     sync.Mutex
	client *client
}

// NewDetector connects to the X server named by $DISPLAY.
func NewDetector() (*Detector, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, errors.Wrap(probe.ErrUnavailable, "DISPLAY is not set")
	}
	c, err := newClient()
	if err != nil {
		return nil, errors.Wrap(probe.ErrUnavailable, err.Error())
	}
	return &Detector{client: c}, nil
}

// IsAvailable checks if X11 detection is available
func (d *Detector) IsAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client != nil || os.Getenv("DISPLAY") != ""
}

// GetDisplayServer returns "x11"
func (d *Detector) GetDisplayServer() string {
	return "x11"
}

func (d *Detector) conn() (*client, error) {
	if d.client != nil {
		return d.client, nil
	}
	c, err := newClient()
	if err != nil {
		return nil, errors.Wrap(probe.ErrUnavailable, err.Error())
	}
	d.client = c
	return c, nil
}

func (d *Detector) reset() {
	if d.client != nil {
		d.client.close()
		d.client = nil
	}
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*probe.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.conn()
	if err != nil {
		return nil, err
	}

	windowID, err := c.activeWindow()
	if err != nil {
		return nil, errors.Wrap(probe.ErrUnavailable, err.Error())
	}

	instance, class := c.windowClass(windowID)
	processName := processName(c.windowPID(windowID))

	appName := class
	if appName == "" {
		appName = instance
	}
	if appName == "" {
		appName = processName
	}

	return &probe.WindowInfo{
		AppName:       appName,
		WindowTitle:   c.windowName(windowID),
		ProcessName:   processName,
		DisplayServer: "x11",
	}, nil
}

// GetIdleInfo returns system idle/lock information
func (d *Detector) GetIdleInfo() (*probe.IdleInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, err := d.conn()
	if err != nil {
		return nil, err
	}

	idle, saverOn, err := c.idle()
	if err != nil {
		if c.screensaver {
			// The extension worked before, so the connection is suspect.
			d.reset()
		}
		return nil, errors.Wrap(probe.ErrUnavailable, err.Error())
	}

	return &probe.IdleInfo{
		IsLocked: saverOn || isScreenLocked(),
		IdleTime: idle,
	}, nil
}

// Close cleans up resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
	return nil
}

// processName reads /proc/<pid>/comm.
func processName(pid uint32) string {
	if pid == 0 {
		return ""
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%s/comm", strconv.FormatUint(uint64(pid), 10)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

var lockers = []string{
	"gnome-screensaver-dialog",
	"kscreenlocker",
	"i3lock",
	"slock",
	"xscreensaver",
	"xsecurelock",
}

// isScreenLocked checks for a running screen locker process
func isScreenLocked() bool {
	for _, locker := range lockers {
		cmd := exec.Command("pgrep", "-x", locker)
		if err := cmd.Run(); err == nil {
			return true
		}
	}
	return false
}
