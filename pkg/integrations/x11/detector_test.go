package x11

import (
	"os"
	"testing"

	"github.com/kodustech/activity-tracker/pkg/probe"

	"github.com/pkg/errors"
)

func TestParseWMClass(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantInstance string
		wantClass    string
	}{
		{"instance and class", "navigator\x00firefox\x00", "navigator", "firefox"},
		{"instance only", "xterm\x00", "xterm", ""},
		{"code", "code\x00Code\x00", "code", "Code"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, class := parseWMClass([]byte(tt.raw))
			if instance != tt.wantInstance || class != tt.wantClass {
				t.Errorf("parseWMClass(%q) = %q, %q, want %q, %q",
					tt.raw, instance, class, tt.wantInstance, tt.wantClass)
			}
		})
	}
}

func TestNewDetectorWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")

	_, err := NewDetector()
	if !errors.Is(err, probe.ErrUnavailable) {
		t.Fatalf("NewDetector() error = %v, want ErrUnavailable", err)
	}
}

func TestProcessName(t *testing.T) {
	if processName(0) != "" {
		t.Error("pid 0 should have no name")
	}
	if _, err := os.Stat("/proc/self/comm"); err != nil {
		t.Skip("/proc not available")
	}
	if name := processName(uint32(os.Getpid())); name == "" {
		t.Error("expected a process name for the test binary")
	}
}

func TestGetFocusedWindow(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("X11 display not available")
	}

	detector, err := NewDetector()
	if err != nil {
		t.Skipf("X11 detector not available: %v", err)
	}
	defer detector.Close()

	if detector.GetDisplayServer() != "x11" {
		t.Errorf("GetDisplayServer() = %s, want x11", detector.GetDisplayServer())
	}

	windowInfo, err := detector.GetFocusedWindow()
	if err != nil {
		t.Logf("GetFocusedWindow() error (may be expected): %v", err)
		return
	}
	t.Logf("App Name: %s", windowInfo.AppName)
	t.Logf("Window Title: %s", windowInfo.WindowTitle)

	idleInfo, err := detector.GetIdleInfo()
	if err != nil {
		t.Logf("GetIdleInfo() error (may be expected): %v", err)
		return
	}
	t.Logf("Idle: %v, Locked: %v", idleInfo.IdleTime, idleInfo.IsLocked)
}
