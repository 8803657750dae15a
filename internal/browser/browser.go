// Package browser hands URLs to the user's default application.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// allowedSchemes are the schemes passed to the desktop opener. Anything else
// (javascript:, data:, ...) is refused.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"file":   true,
}

// Command returns the opener invocation for goos.
func Command(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// Check validates rawURL and returns it normalised.
func Check(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return u.String(), nil
}

// Open opens rawURL with the platform's opener without waiting for it. On
// freedesktop systems remote URLs go through the OpenURI portal first.
func Open(rawURL string) error {
	target, err := Check(rawURL)
	if err != nil {
		return err
	}

	if usePortal(runtime.GOOS, target) {
		err := openWithPortal(target)
		if err == nil {
			return nil
		}
		debugLogger.Printf("Falling back to opener command: %v", err)
	}

	name, args := Command(runtime.GOOS, target)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}
