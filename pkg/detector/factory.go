package detector

import (
	"log"
	"os"

	"github.com/kodustech/activity-tracker/pkg/integrations/wayland"
	"github.com/kodustech/activity-tracker/pkg/integrations/x11"
	"github.com/kodustech/activity-tracker/pkg/probe"
)

// New returns the probe for the current session. When no supported display
// server is reachable the returned probe reports probe.ErrUnavailable on every
// call, so the sampler keeps running and records unknown samples.
func New() probe.Probe {
	switch DetectDisplayServer() {
	case "x11":
		d, err := x11.NewDetector()
		if err == nil {
			return d
		}
		log.Printf("X11 probe unavailable: %v", err)
		return probe.Unavailable{Reason: err.Error()}
	case "wayland":
		d, err := wayland.NewDetector()
		if err == nil {
			return d
		}
		log.Printf("Wayland probe unavailable: %v", err)
		// XWayland exposes DISPLAY; focused native Wayland windows are invisible to it.
		if os.Getenv("DISPLAY") != "" {
			if d, err := x11.NewDetector(); err == nil {
				return d
			}
		}
		return probe.Unavailable{Reason: "unsupported wayland compositor and no XWayland"}
	}
	return probe.Unavailable{Reason: "no display server detected"}
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
