package merger

import "strings"

var browsers = []string{
	"firefox",
	"google-chrome",
	"chrome",
	"chromium",
	"chromium-browser",
	"brave-browser",
	"brave",
	"microsoft-edge",
	"opera",
	"vivaldi",
	"librewolf",
	"safari",
	"epiphany",
	"qutebrowser",
	"zen",
}

// IsBrowser reports whether application names a known web browser.
// WM_CLASS values vary in case ("Firefox", "firefox"), so the match ignores it.
func IsBrowser(application string) bool {
	name := strings.ToLower(strings.TrimSpace(application))
	for _, b := range browsers {
		if name == b {
			return true
		}
	}
	return false
}
