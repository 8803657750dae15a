package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const usage = `Usage:
  $ shiba [--detach|--version] [--config FILE] [--log-file FILE] [{directory/file to watch}]`

// BuildInfo describes the running binary for the version banner.
type BuildInfo struct {
	Version    string
	GOOS       string
	GOARCH     string
	GoVersion  string
	GTKVersion string
}

// Banner is the text printed by --version.
func Banner(info BuildInfo) string {
	return fmt.Sprintf(`Shiba v%s: Rich markdown previewer

%s

Environment:
  OS:       %s-%s
  Go:       %s
  GTK:      %s
`, info.Version, usage, info.GOOS, info.GOARCH, info.GoVersion, info.GTKVersion)
}

// Usage is the command line synopsis.
func Usage() string {
	return usage
}

// WantsVersion reports whether args request the version banner. The flag
// package stops at the first positional argument, so the flag is also
// honoured after the watch target. Scanning ends at "--".
func WantsVersion(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "version" {
			continue
		}
		if !hasValue {
			return true
		}
		if on, err := strconv.ParseBool(value); err == nil && on {
			return true
		}
	}
	return false
}

// IsPackaged reports whether exe runs from inside a macOS application bundle.
func IsPackaged(exe string) bool {
	return strings.Contains(filepath.ToSlash(exe), ".app/Contents/MacOS/")
}

// DevMode reports whether SHIBA_ENV selects the development environment.
func DevMode() bool {
	return os.Getenv("SHIBA_ENV") == "development"
}
