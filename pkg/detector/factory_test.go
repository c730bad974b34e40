package detector

import (
	"testing"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil probe")
	}
	defer p.Close()

	displayServer := p.GetDisplayServer()
	t.Logf("Detected display server: %s", displayServer)

	switch displayServer {
	case "x11", "wayland", "none":
	default:
		t.Errorf("GetDisplayServer() = %s, want x11, wayland or none", displayServer)
	}

	windowInfo, err := p.GetFocusedWindow()
	if err != nil {
		t.Logf("GetFocusedWindow() error: %v", err)
	} else if windowInfo != nil {
		t.Logf("Current window: %s - %s", windowInfo.AppName, windowInfo.WindowTitle)
	}

	idleInfo, err := p.GetIdleInfo()
	if err != nil {
		t.Logf("GetIdleInfo() error: %v", err)
	} else if idleInfo != nil {
		t.Logf("Idle state: idle=%v, locked=%v", idleInfo.IdleTime, idleInfo.IsLocked)
	}
}

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{
			name:           "Wayland session",
			sessionType:    "wayland",
			waylandDisplay: "wayland-0",
			expected:       "wayland",
		},
		{
			name:        "X11 session",
			sessionType: "x11",
			x11Display:  ":0",
			expected:    "x11",
		},
		{
			name:     "Unknown session",
			expected: "unknown",
		},
		{
			name:           "Wayland display set",
			waylandDisplay: "wayland-1",
			expected:       "wayland",
		},
		{
			name:       "X11 display set",
			x11Display: ":1",
			expected:   "x11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			if result := DetectDisplayServer(); result != tt.expected {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestNewWithUnsupportedSystem(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	p := New()
	if p.IsAvailable() {
		t.Error("probe should be unavailable without a display server")
	}
	if p.GetDisplayServer() != "none" {
		t.Errorf("GetDisplayServer() = %s, want none", p.GetDisplayServer())
	}
	if _, err := p.GetFocusedWindow(); err == nil {
		t.Error("GetFocusedWindow() should fail without a display server")
	}
}
