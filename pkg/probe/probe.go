// Package probe defines the OS capability the sampler polls: which window is
// in the foreground and how long the user has been away from the input devices.
package probe

import (
	"time"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned when the OS cannot be queried (no display,
// permission denied, no focused window).
var ErrUnavailable = errors.New("probe unavailable")

// WindowInfo represents information about the currently focused window
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	DisplayServer string // "x11", "wayland" or "none"
}

// IdleInfo represents system idle/lock state
type IdleInfo struct {
	IsLocked bool
	IdleTime time.Duration // Time since the last keyboard or pointer input
}

// IsIdle reports whether the user counts as away: the screen is locked or no
// input arrived for longer than threshold.
func (i *IdleInfo) IsIdle(threshold time.Duration) bool {
	return i.IsLocked || i.IdleTime > threshold
}

// Probe is the interface every OS integration must satisfy
type Probe interface {
	// GetFocusedWindow returns information about the currently focused window
	GetFocusedWindow() (*WindowInfo, error)

	// GetIdleInfo returns information about system idle/lock state
	GetIdleInfo() (*IdleInfo, error)

	// IsAvailable checks if this probe can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type
	GetDisplayServer() string

	// Close cleans up any resources used by the probe
	Close() error
}

// Unavailable is a Probe for sessions no integration supports. Every query
// fails with ErrUnavailable, which the sampler records as an unknown sample.
type Unavailable struct {
	Reason string
}

func (u Unavailable) GetFocusedWindow() (*WindowInfo, error) {
	return nil, errors.Wrap(ErrUnavailable, u.Reason)
}

func (u Unavailable) GetIdleInfo() (*IdleInfo, error) {
	return nil, errors.Wrap(ErrUnavailable, u.Reason)
}

func (u Unavailable) IsAvailable() bool { return false }

func (u Unavailable) GetDisplayServer() string { return "none" }

func (u Unavailable) Close() error { return nil }
