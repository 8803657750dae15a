package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// MaxLength is the width/height value meaning "use the whole work area".
const MaxLength = "max"

// Length is a configured window dimension exactly as it was written in the
// config file: a number, the string "max", or something unusable.
type Length struct {
	value any
}

// LengthOf wraps a decoded config value.
func LengthOf(v any) Length {
	return Length{value: v}
}

func (l Length) IsSet() bool {
	return l.value != nil
}

func (l Length) IsMax() bool {
	s, ok := l.value.(string)
	return ok && s == MaxLength
}

// Number reports the value as a float when it is a finite number.
func (l Length) Number() (float64, bool) {
	var f float64
	switch v := l.value.(type) {
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int reports the value truncated toward zero and clamped to the int32
// range, which is what toolkits accept for sizes.
func (l Length) Int() (int, bool) {
	f, ok := l.Number()
	if !ok {
		return 0, false
	}
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32, true
	case f <= math.MinInt32:
		return math.MinInt32, true
	}
	return int(f), true
}

// Value returns the raw decoded value.
func (l Length) Value() any {
	return l.value
}

func (l Length) String() string {
	if l.value == nil {
		return "<unset>"
	}
	return fmt.Sprint(l.value)
}

type Config struct {
	Width              Length
	Height             Length
	RestoreWindowState bool
	HideMenuBar        bool
	HideTitleBar       bool
	Path               string
	FileExt            FileExtConfig
	IgnorePathPattern  string
	Markdown           MarkdownConfig

	// Source is the file the config was read from, empty for built-in defaults.
	Source string
	// Degraded lists the keys whose values were unusable and replaced by defaults.
	Degraded []string
	// Unknown lists keys the file sets that Shiba does not read.
	Unknown []string
}

type FileExtConfig struct {
	Markdown []string
	HTML     []string
}

type MarkdownConfig struct {
	FontFamily string
	FontSize   int
}

// DefaultConfig returns a fresh copy of the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Width:              LengthOf(int64(920)),
		Height:             LengthOf(MaxLength),
		RestoreWindowState: true,
		HideMenuBar:        false,
		HideTitleBar:       false,
		Path:               "",
		FileExt: FileExtConfig{
			Markdown: []string{"md", "markdown", "mkd", "mdown", "mkdn"},
			HTML:     []string{"html", "htm"},
		},
		IgnorePathPattern: `[\\/]\.`,
		Markdown: MarkdownConfig{
			FontFamily: "",
			FontSize:   0,
		},
	}
}

// Validate fails when any field had to fall back to its default while loading.
func (c *Config) Validate() error {
	if len(c.Degraded) == 0 {
		return nil
	}
	return fmt.Errorf("invalid values for %s (defaults used)", strings.Join(c.Degraded, ", "))
}

// IgnoreRegexp compiles IgnorePathPattern. An empty pattern ignores nothing.
func (c *Config) IgnoreRegexp() *regexp.Regexp {
	if c.IgnorePathPattern == "" {
		return nil
	}
	re, err := regexp.Compile(c.IgnorePathPattern)
	if err != nil {
		return nil
	}
	return re
}

func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// toMap is the inverse of fromMap and is what SaveConfig serializes.
func (c *Config) toMap() map[string]any {
	m := map[string]any{
		"restore_window_state": c.RestoreWindowState,
		"hide_menu_bar":        c.HideMenuBar,
		"hide_title_bar":       c.HideTitleBar,
		"ignore_path_pattern":  c.IgnorePathPattern,
		"file_ext": map[string]any{
			"markdown": c.FileExt.Markdown,
			"html":     c.FileExt.HTML,
		},
		"markdown": map[string]any{
			"font_family": c.Markdown.FontFamily,
			"font_size":   c.Markdown.FontSize,
		},
	}
	if c.Width.IsSet() {
		m["width"] = c.Width.Value()
	}
	if c.Height.IsSet() {
		m["height"] = c.Height.Value()
	}
	if c.Path != "" {
		m["path"] = c.Path
	}
	return m
}

func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg.toMap())
	if err != nil {
		return err
	}

	return os.WriteFile(expandedPath, data, 0644)
}

// Describe renders the effective configuration one key per line, sorted.
func (c *Config) Describe() string {
	lines := []string{
		fmt.Sprintf("width = %s", c.Width),
		fmt.Sprintf("height = %s", c.Height),
		fmt.Sprintf("restore_window_state = %t", c.RestoreWindowState),
		fmt.Sprintf("hide_menu_bar = %t", c.HideMenuBar),
		fmt.Sprintf("hide_title_bar = %t", c.HideTitleBar),
		fmt.Sprintf("path = %s", c.Path),
		fmt.Sprintf("file_ext.markdown = %s", strings.Join(c.FileExt.Markdown, ",")),
		fmt.Sprintf("file_ext.html = %s", strings.Join(c.FileExt.HTML, ",")),
		fmt.Sprintf("ignore_path_pattern = %s", c.IgnorePathPattern),
		fmt.Sprintf("markdown.font_family = %s", c.Markdown.FontFamily),
		fmt.Sprintf("markdown.font_size = %d", c.Markdown.FontSize),
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
