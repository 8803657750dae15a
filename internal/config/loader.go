package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var debugLogger = log.New(log.Writer(), "[CONFIG-DEBUG] ", log.LstdFlags|log.Lmicroseconds)

const appDirName = "shiba"

// fileNames are tried in order inside Dir(). config.yml is the layout older
// releases wrote.
var fileNames = []string{"config.toml", "config.yml", "config.yaml"}

type Options struct {
	// ConfigPath forces a specific file. Empty means search Dir().
	ConfigPath string
	// WatchTarget is the path given on the command line, if any.
	WatchTarget string
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	return expandPath(filepath.Join("~", ".config", appDirName))
}

// WindowStatePath is where the last window placement is persisted.
func WindowStatePath() string {
	return filepath.Join(Dir(), "window-state.json")
}

// FindConfigFile returns the first existing config file in dir, or "".
func FindConfigFile(dir string) string {
	for _, name := range fileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the configuration and applies defaults. Finding no file in Dir()
// is not an error. An explicit ConfigPath must exist, and an unreadable or
// syntactically broken file always fails.
func Load(ctx context.Context, opts Options) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := opts.ConfigPath
	if path == "" {
		path = FindConfigFile(Dir())
	} else {
		path = expandPath(path)
	}

	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		raw, err = decode(path, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg := fromMap(raw)
	cfg.Source = path

	if opts.WatchTarget != "" {
		cfg.Path = opts.WatchTarget
	}
	if cfg.Path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.Path = wd
	}
	cfg.Path = expandPath(cfg.Path)

	for _, key := range cfg.Degraded {
		debugLogger.Printf("%s: unusable value for %q, using default", path, key)
	}
	for _, key := range cfg.Unknown {
		debugLogger.Printf("%s: unknown key %q", path, key)
	}
	return cfg, nil
}

func decode(path string, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// fromMap copies every recognised key onto the defaults. Values of the wrong
// type are recorded in Degraded and left at their default.
func fromMap(raw map[string]any) *Config {
	cfg := DefaultConfig()
	d := &decoder{}

	if v, ok := raw["width"]; ok {
		cfg.Width = LengthOf(v)
	}
	if v, ok := raw["height"]; ok {
		cfg.Height = LengthOf(v)
	}
	cfg.RestoreWindowState = d.boolean(raw, "restore_window_state", cfg.RestoreWindowState)
	cfg.HideMenuBar = d.boolean(raw, "hide_menu_bar", cfg.HideMenuBar)
	cfg.HideTitleBar = d.boolean(raw, "hide_title_bar", cfg.HideTitleBar)
	cfg.Path = d.str(raw, "path", cfg.Path)

	if pattern := d.str(raw, "ignore_path_pattern", cfg.IgnorePathPattern); pattern != cfg.IgnorePathPattern {
		if _, err := regexp.Compile(pattern); err != nil {
			d.degrade("ignore_path_pattern")
		} else {
			cfg.IgnorePathPattern = pattern
		}
	}

	d.unknownKeys(raw)

	if exts := d.table(raw, "file_ext"); exts != nil {
		d.prefix = "file_ext."
		cfg.FileExt.Markdown = d.strs(exts, "markdown", cfg.FileExt.Markdown)
		cfg.FileExt.HTML = d.strs(exts, "html", cfg.FileExt.HTML)
		d.unknownKeys(exts)
		d.prefix = ""
	}

	if md := d.table(raw, "markdown"); md != nil {
		d.prefix = "markdown."
		cfg.Markdown.FontFamily = d.str(md, "font_family", cfg.Markdown.FontFamily)
		if size := d.integer(md, "font_size", cfg.Markdown.FontSize); size >= 0 {
			cfg.Markdown.FontSize = size
		} else {
			d.degrade("font_size")
		}
		d.unknownKeys(md)
		d.prefix = ""
	}

	cfg.Degraded = d.degraded
	cfg.Unknown = d.unknown
	return cfg
}

// decoder reads typed values out of a decoded document. Keys are reported
// relative to the root, prefix holds the table being read.
type decoder struct {
	prefix   string
	degraded []string
	unknown  []string
}

func (d *decoder) degrade(key string) {
	d.degraded = append(d.degraded, d.prefix+key)
}

func (d *decoder) unknownKeys(m map[string]any) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if full := d.prefix + key; !isKnownKey(full) {
			d.unknown = append(d.unknown, full)
		}
	}
}

func (d *decoder) boolean(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		d.degrade(key)
		return def
	}
	return b
}

func (d *decoder) str(m map[string]any, key string, def string) string {
	v, ok := m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		d.degrade(key)
		return def
	}
	return s
}

func (d *decoder) integer(m map[string]any, key string, def int) int {
	v, ok := m[key]
	if !ok {
		return def
	}
	n, ok := LengthOf(v).Int()
	if !ok {
		d.degrade(key)
		return def
	}
	return n
}

func (d *decoder) table(m map[string]any, key string) map[string]any {
	v, ok := m[key]
	if !ok {
		return nil
	}
	t, ok := v.(map[string]any)
	if !ok {
		d.degrade(key)
		return nil
	}
	return t
}

func (d *decoder) strs(m map[string]any, key string, def []string) []string {
	v, ok := m[key]
	if !ok {
		return def
	}
	items, ok := v.([]any)
	if !ok {
		d.degrade(key)
		return def
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			d.degrade(key)
			return def
		}
		out = append(out, strings.TrimPrefix(s, "."))
	}
	return out
}
