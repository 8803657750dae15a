package browser

import (
	"fmt"
	"log"
	"strings"

	"github.com/godbus/dbus/v5"
)

var debugLogger = log.New(log.Writer(), "[BROWSER-DEBUG] ", log.LstdFlags|log.Lmicroseconds)

const (
	portalDest    = "org.freedesktop.portal.Desktop"
	portalPath    = "/org/freedesktop/portal/desktop"
	portalOpenURI = "org.freedesktop.portal.OpenURI.OpenURI"
)

// usePortal reports whether target goes through the desktop portal. The
// portal only opens remote URIs; local files keep using the opener command.
func usePortal(goos, target string) bool {
	if goos == "darwin" || goos == "windows" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(target), "file:")
}

// openWithPortal asks xdg-desktop-portal to open target in the default handler.
func openWithPortal(target string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	obj := conn.Object(portalDest, dbus.ObjectPath(portalPath))
	call := obj.Call(portalOpenURI, 0, "", target, map[string]dbus.Variant{})
	if call.Err != nil {
		return fmt.Errorf("portal OpenURI failed: %w", call.Err)
	}
	return nil
}
