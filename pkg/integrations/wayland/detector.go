// Package wayland queries the focused window through compositor IPC tools.
// Wayland has no common protocol for this, so each supported compositor is
// asked through its own CLI: swaymsg, hyprctl or gdbus for GNOME Shell.
package wayland

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kodustech/activity-tracker/pkg/probe"

	"github.com/pkg/errors"
)

const commandTimeout = 2 * time.Second

// runner executes a command and returns its stdout.
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Output()
}

// Detector implements probe.Probe for sway, Hyprland and GNOME Shell.
type Detector struct {
	compositor string
	run        runner
	lookPath   func(string) (string, error)
	now        func() time.Time
}

// NewDetector detects the running compositor. It fails with
// probe.ErrUnavailable when the compositor is not supported or its IPC tool
// is missing.
func NewDetector() (*Detector, error) {
	d := &Detector{
		compositor: detectCompositor(),
		run:        execRunner,
		lookPath:   exec.LookPath,
		now:        time.Now,
	}
	if !d.IsAvailable() {
		return nil, errors.Wrapf(probe.ErrUnavailable, "unsupported wayland compositor %q", d.compositor)
	}
	return d, nil
}

// detectCompositor prefers the session environment and falls back to
// looking for the compositor process.
func detectCompositor() string {
	if os.Getenv("SWAYSOCK") != "" {
		return "sway"
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return "hyprland"
	}
	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "gnome"):
		return "gnome"
	case strings.Contains(desktop, "kde"):
		return "kde"
	}

	compositors := []struct{ process, name string }{
		{"sway", "sway"},
		{"Hyprland", "hyprland"},
		{"gnome-shell", "gnome"},
		{"kwin_wayland", "kde"},
	}
	for _, c := range compositors {
		if err := exec.Command("pgrep", "-x", c.process).Run(); err == nil {
			return c.name
		}
	}
	return "unknown"
}

// IsAvailable reports whether the compositor is supported and its tool is installed.
func (d *Detector) IsAvailable() bool {
	tool := ""
	switch d.compositor {
	case "sway":
		tool = "swaymsg"
	case "hyprland":
		tool = "hyprctl"
	case "gnome":
		tool = "gdbus"
	default:
		return false
	}
	_, err := d.lookPath(tool)
	return err == nil
}

// GetDisplayServer returns "wayland"
func (d *Detector) GetDisplayServer() string {
	return "wayland"
}

// Compositor returns the detected compositor name.
func (d *Detector) Compositor() string {
	return d.compositor
}

// GetFocusedWindow returns information about the currently focused window
func (d *Detector) GetFocusedWindow() (*probe.WindowInfo, error) {
	var (
		info *probe.WindowInfo
		err  error
	)
	switch d.compositor {
	case "sway":
		info, err = d.focusedSway()
	case "hyprland":
		info, err = d.focusedHyprland()
	case "gnome":
		info, err = d.focusedGnome()
	default:
		return nil, errors.Wrapf(probe.ErrUnavailable, "unsupported wayland compositor %q", d.compositor)
	}
	if err != nil {
		return nil, errors.Wrap(probe.ErrUnavailable, err.Error())
	}
	info.DisplayServer = "wayland"
	return info, nil
}

func (d *Detector) focusedSway() (*probe.WindowInfo, error) {
	out, err := d.run("swaymsg", "-t", "get_tree", "-r")
	if err != nil {
		return nil, errors.Wrap(err, "swaymsg get_tree")
	}
	return parseSwayTree(out)
}

type swayNode struct {
	Name             string                `json:"name"`
	Focused          bool                  `json:"focused"`
	AppID            string                `json:"app_id"`
	PID              int                   `json:"pid"`
	WindowProperties *swayWindowProperties `json:"window_properties"`
	Nodes            []swayNode            `json:"nodes"`
	FloatingNodes    []swayNode            `json:"floating_nodes"`
}

type swayWindowProperties struct {
	Class    string `json:"class"`
	Instance string `json:"instance"`
}

// parseSwayTree finds the focused leaf of a `swaymsg -t get_tree` document.
// Native windows carry app_id; XWayland windows carry window_properties.class.
func parseSwayTree(data []byte) (*probe.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "decode sway tree")
	}
	node := findFocused(&root)
	if node == nil {
		return nil, errors.New("no focused window")
	}

	appName := node.AppID
	if appName == "" && node.WindowProperties != nil {
		appName = node.WindowProperties.Class
		if appName == "" {
			appName = node.WindowProperties.Instance
		}
	}
	procName := processName(node.PID)
	if appName == "" {
		appName = procName
	}
	return &probe.WindowInfo{
		AppName:     appName,
		WindowTitle: node.Name,
		ProcessName: procName,
	}, nil
}

func findFocused(n *swayNode) *swayNode {
	if n.Focused {
		return n
	}
	for i := range n.Nodes {
		if f := findFocused(&n.Nodes[i]); f != nil {
			return f
		}
	}
	for i := range n.FloatingNodes {
		if f := findFocused(&n.FloatingNodes[i]); f != nil {
			return f
		}
	}
	return nil
}

func (d *Detector) focusedHyprland() (*probe.WindowInfo, error) {
	out, err := d.run("hyprctl", "activewindow", "-j")
	if err != nil {
		return nil, errors.Wrap(err, "hyprctl activewindow")
	}
	return parseHyprlandWindow(out)
}

// parseHyprlandWindow decodes `hyprctl activewindow -j`. With no focused
// window hyprctl prints an empty object.
func parseHyprlandWindow(data []byte) (*probe.WindowInfo, error) {
	var w struct {
		Class        string `json:"class"`
		InitialClass string `json:"initialClass"`
		Title        string `json:"title"`
		PID          int    `json:"pid"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "decode hyprland window")
	}
	appName := w.Class
	if appName == "" {
		appName = w.InitialClass
	}
	procName := processName(w.PID)
	if appName == "" {
		appName = procName
	}
	if appName == "" && w.Title == "" {
		return nil, errors.New("no focused window")
	}
	return &probe.WindowInfo{
		AppName:     appName,
		WindowTitle: w.Title,
		ProcessName: procName,
	}, nil
}

// Shell.Eval JSON-encodes the value of the expression.
const gnomeFocusScript = `(() => {
	const w = global.display.focus_window;
	return w ? {class: w.get_wm_class() || '', title: w.get_title() || '', pid: w.get_pid()} : null;
})()`

var gvariantUnescaper = strings.NewReplacer(`\\`, `\`, `\'`, `'`)

func (d *Detector) focusedGnome() (*probe.WindowInfo, error) {
	out, err := d.run("gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell",
		"--method", "org.gnome.Shell.Eval",
		gnomeFocusScript)
	if err != nil {
		return nil, errors.Wrap(err, "gdbus org.gnome.Shell.Eval")
	}
	return parseGnomeEval(string(out))
}

// parseGnomeEval reads the GVariant text `(true, '{"class":...}')`. Shell.Eval
// answers `(false, '')` when unsafe mode is off, which is the GNOME default.
func parseGnomeEval(output string) (*probe.WindowInfo, error) {
	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "(true, ") || !strings.HasSuffix(output, ")") {
		return nil, errors.New("org.gnome.Shell.Eval is disabled")
	}
	payload := strings.TrimSuffix(strings.TrimPrefix(output, "(true, "), ")")
	switch {
	case len(payload) >= 2 && payload[0] == '\'' && payload[len(payload)-1] == '\'':
		payload = gvariantUnescaper.Replace(payload[1 : len(payload)-1])
	case strings.HasPrefix(payload, `"`):
		unquoted, err := strconv.Unquote(payload)
		if err != nil {
			return nil, errors.Wrap(err, "decode gnome reply")
		}
		payload = unquoted
	}
	if payload == "" || payload == "null" {
		return nil, errors.New("no focused window")
	}

	var w struct {
		Class string `json:"class"`
		Title string `json:"title"`
		PID   int    `json:"pid"`
	}
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, errors.Wrap(err, "decode gnome window")
	}
	procName := processName(w.PID)
	appName := w.Class
	if appName == "" {
		appName = procName
	}
	return &probe.WindowInfo{
		AppName:     appName,
		WindowTitle: w.Title,
		ProcessName: procName,
	}, nil
}

// GetIdleInfo asks Mutter's idle monitor on GNOME and the logind session
// hints elsewhere.
func (d *Detector) GetIdleInfo() (*probe.IdleInfo, error) {
	hints, err := d.sessionHints()
	if err != nil && d.compositor != "gnome" {
		return nil, errors.Wrap(probe.ErrUnavailable, err.Error())
	}

	info := &probe.IdleInfo{
		IsLocked: hints.locked || isScreenLocked(),
	}

	if d.compositor == "gnome" {
		idle, gErr := d.mutterIdle()
		if gErr == nil {
			info.IdleTime = idle
			return info, nil
		}
		if err != nil {
			return nil, errors.Wrap(probe.ErrUnavailable, gErr.Error())
		}
	}

	if hints.idle && !hints.idleSince.IsZero() {
		if idle := d.now().Sub(hints.idleSince); idle > 0 {
			info.IdleTime = idle
		}
	}
	return info, nil
}

func (d *Detector) mutterIdle() (time.Duration, error) {
	out, err := d.run("gdbus", "call", "--session",
		"--dest", "org.gnome.Mutter.IdleMonitor",
		"--object-path", "/org/gnome/Mutter/IdleMonitor/Core",
		"--method", "org.gnome.Mutter.IdleMonitor.GetIdletime")
	if err != nil {
		return 0, errors.Wrap(err, "gdbus GetIdletime")
	}
	return parseMutterIdle(string(out))
}

// parseMutterIdle reads `(uint64 12345,)`, milliseconds since the last input.
func parseMutterIdle(output string) (time.Duration, error) {
	s := strings.TrimSpace(output)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSuffix(s, ",")
	s = strings.TrimSpace(strings.TrimPrefix(s, "uint64"))
	ms, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Errorf("unexpected idle monitor reply %q", output)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

type sessionHints struct {
	idle      bool
	locked    bool
	idleSince time.Time
}

func (d *Detector) sessionHints() (sessionHints, error) {
	session := os.Getenv("XDG_SESSION_ID")
	if session == "" {
		session = "auto"
	}
	out, err := d.run("loginctl", "show-session", session,
		"-p", "IdleHint", "-p", "IdleSinceHint", "-p", "LockedHint")
	if err != nil {
		return sessionHints{}, errors.Wrap(err, "loginctl show-session")
	}
	return parseSessionHints(string(out)), nil
}

// parseSessionHints reads loginctl KEY=VALUE lines. IdleSinceHint is in
// microseconds since the epoch.
func parseSessionHints(output string) sessionHints {
	var h sessionHints
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "IdleHint":
			h.idle = value == "yes"
		case "LockedHint":
			h.locked = value == "yes"
		case "IdleSinceHint":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us > 0 {
				h.idleSince = time.UnixMicro(us)
			}
		}
	}
	return h
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}

// processName reads /proc/<pid>/comm.
func processName(pid int) string {
	if pid <= 0 {
		return ""
	}
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/comm")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

var lockers = []string{
	"swaylock",
	"waylock",
	"gtklock",
	"hyprlock",
	"gnome-screensaver-dialog",
}

// isScreenLocked checks for a running screen locker process
func isScreenLocked() bool {
	for _, locker := range lockers {
		if err := exec.Command("pgrep", "-x", locker).Run(); err == nil {
			return true
		}
	}
	return false
}
