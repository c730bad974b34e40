package x11

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// client wraps one X connection with the atoms the probe needs.
type client struct {
	conn        *xgb.Conn
	root        xproto.Window
	atoms       map[string]xproto.Atom
	screensaver bool // MIT-SCREEN-SAVER extension present
}

func newClient() (*client, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	c := &client{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		c.atoms[name] = reply.Atom
	}

	c.screensaver = screensaver.Init(conn) == nil
	return c, nil
}

func (c *client) close() {
	c.conn.Close()
}

func (c *client) getProperty(window xproto.Window, atom xproto.Atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *client) activeWindowFromProperty() xproto.Window {
	data, err := c.getProperty(c.root, c.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return xproto.Window(binary.LittleEndian.Uint32(data))
}

func (c *client) activeWindowFromInputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(c.conn).Reply()
	if err != nil {
		return 0
	}
	return reply.Focus
}

func (c *client) topLevelParent(window xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(c.conn, window).Reply()
		if err != nil || reply.Parent == c.root || reply.Parent == 0 {
			return window
		}
		window = reply.Parent
	}
}

func (c *client) hasName(window xproto.Window) bool {
	data, _ := c.getProperty(window, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 1)
	if len(data) > 0 {
		return true
	}
	data, _ = c.getProperty(window, c.atoms["WM_NAME"], xproto.AtomString, 1)
	return len(data) > 0
}

// activeWindow prefers the EWMH property and falls back to the input focus
// walked up to its top-level frame. Window managers update the property
// asynchronously, so a few short retries cover a focus change in flight.
func (c *client) activeWindow() (xproto.Window, error) {
	for i := 0; i < 3; i++ {
		if w := c.activeWindowFromProperty(); w != 0 && c.hasName(w) {
			return w, nil
		}

		if w := c.activeWindowFromInputFocus(); w != 0 && w != c.root {
			if top := c.topLevelParent(w); top != 0 && c.hasName(top) {
				return top, nil
			}
		}

		time.Sleep(20 * time.Millisecond)
	}
	return 0, errors.New("no active window found")
}

func (c *client) windowName(window xproto.Window) string {
	data, err := c.getProperty(window, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = c.getProperty(window, c.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (c *client) windowClass(window xproto.Window) (instance, class string) {
	data, err := c.getProperty(window, c.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return "", ""
	}
	return parseWMClass(data)
}

func (c *client) windowPID(window xproto.Window) uint32 {
	data, err := c.getProperty(window, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// idle queries MIT-SCREEN-SAVER for the time since the last input event and
// whether the screen saver is currently active.
func (c *client) idle() (time.Duration, bool, error) {
	if !c.screensaver {
		return 0, false, errors.New("MIT-SCREEN-SAVER extension not available")
	}
	reply, err := screensaver.QueryInfo(c.conn, xproto.Drawable(c.root)).Reply()
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to query screen saver info")
	}
	return time.Duration(reply.MsSinceUserInput) * time.Millisecond, reply.State == screensaver.StateOn, nil
}

// parseWMClass splits the raw WM_CLASS property, two NUL-terminated strings.
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}
