package config

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	target := t.TempDir()

	cfg, err := Load(context.Background(), Options{WatchTarget: target})
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Source)
	assert.True(t, cfg.RestoreWindowState)
	assert.False(t, cfg.HideMenuBar)
	assert.False(t, cfg.HideTitleBar)
	assert.True(t, cfg.Height.IsMax())
	n, ok := cfg.Width.Number()
	require.True(t, ok)
	assert.Equal(t, 920.0, n)
	assert.Equal(t, target, cfg.Path)
	assert.Empty(t, cfg.Degraded)
}

func TestLoadDefaultsPathToWorkingDirectory(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(context.Background(), Options{})
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.Path)
}

func TestLoadTOML(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "shiba")
	require.NoError(t, os.MkdirAll(dir, 0755))
	p := writeFile(t, dir, "config.toml", `
width = 1200
height = 700.5
restore_window_state = false
hide_menu_bar = true
hide_title_bar = true
ignore_path_pattern = "node_modules"

[file_ext]
markdown = [".md", "txt"]

[markdown]
font_family = "Iosevka"
font_size = 14
`)

	cfg, err := Load(context.Background(), Options{WatchTarget: "/tmp"})
	require.NoError(t, err)

	assert.Equal(t, p, cfg.Source)
	w, ok := cfg.Width.Number()
	require.True(t, ok)
	assert.Equal(t, 1200.0, w)
	h, ok := cfg.Height.Number()
	require.True(t, ok)
	assert.Equal(t, 700.5, h)
	assert.False(t, cfg.RestoreWindowState)
	assert.True(t, cfg.HideMenuBar)
	assert.True(t, cfg.HideTitleBar)
	assert.Equal(t, "node_modules", cfg.IgnorePathPattern)
	assert.Equal(t, []string{"md", "txt"}, cfg.FileExt.Markdown)
	assert.Equal(t, []string{"html", "htm"}, cfg.FileExt.HTML)
	assert.Equal(t, "Iosevka", cfg.Markdown.FontFamily)
	assert.Equal(t, 14, cfg.Markdown.FontSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLegacyYAML(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "shiba")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeFile(t, dir, "config.yml", "width: max\nheight: 600\nhide_menu_bar: true\n")

	cfg, err := Load(context.Background(), Options{WatchTarget: "/tmp"})
	require.NoError(t, err)

	assert.True(t, cfg.Width.IsMax())
	h, ok := cfg.Height.Number()
	require.True(t, ok)
	assert.Equal(t, 600.0, h)
	assert.True(t, cfg.HideMenuBar)
}

func TestLoadPrefersTOMLOverYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yml", "width: 1\n")
	toml := writeFile(t, dir, "config.toml", "width = 2\n")

	assert.Equal(t, toml, FindConfigFile(dir))
}

func TestLoadMalformedFieldsDegrade(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "custom.toml", `
width = "wide"
height = true
restore_window_state = "yes"
hide_menu_bar = 1
ignore_path_pattern = "(["
file_ext = "md"

[markdown]
font_size = -3
`)

	cfg, err := Load(context.Background(), Options{ConfigPath: p, WatchTarget: "/tmp"})
	require.NoError(t, err)

	// width/height keep the raw value; the geometry resolver degrades them.
	assert.Equal(t, "wide", cfg.Width.Value())
	assert.Equal(t, true, cfg.Height.Value())

	def := DefaultConfig()
	assert.Equal(t, def.RestoreWindowState, cfg.RestoreWindowState)
	assert.Equal(t, def.HideMenuBar, cfg.HideMenuBar)
	assert.Equal(t, def.IgnorePathPattern, cfg.IgnorePathPattern)
	assert.Equal(t, def.FileExt, cfg.FileExt)
	assert.Equal(t, 0, cfg.Markdown.FontSize)
	assert.ElementsMatch(t, []string{
		"restore_window_state",
		"hide_menu_bar",
		"ignore_path_pattern",
		"file_ext",
		"markdown.font_size",
	}, cfg.Degraded)
	assert.Error(t, cfg.Validate())
}

func TestLoadSyntaxErrorFails(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.toml", "width = = 3\n")

	_, err := Load(context.Background(), Options{ConfigPath: p})
	assert.Error(t, err)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "typo.toml")

	cfg, err := Load(context.Background(), Options{ConfigPath: p})

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), p)
}

func TestLoadSaturatesHugeFontSize(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.toml", "[markdown]\nfont_size = 1e300\n")

	cfg, err := Load(context.Background(), Options{ConfigPath: p, WatchTarget: "/tmp"})
	require.NoError(t, err)

	assert.Equal(t, math.MaxInt32, cfg.Markdown.FontSize)
	assert.Empty(t, cfg.Degraded)
}

func TestLengthInt(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  int
		ok    bool
	}{
		{"int", 800, 800, true},
		{"float truncates", -2.7, -2, true},
		{"huge", 1e300, math.MaxInt32, true},
		{"huge negative", -1e300, math.MinInt32, true},
		{"max uint64", uint64(math.MaxUint64), math.MaxInt32, true},
		{"string", "max", 0, false},
		{"inf", math.Inf(-1), 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := LengthOf(tc.value).Int()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLengthNumber(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  float64
		ok    bool
	}{
		{"int", 800, 800, true},
		{"int64", int64(-20), -20, true},
		{"float", 1.5, 1.5, true},
		{"string", "800", 0, false},
		{"max", "max", 0, false},
		{"nil", nil, 0, false},
		{"nan", nan(), 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := LengthOf(tc.value).Number()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.HideTitleBar = true
	cfg.Width = LengthOf(int64(1000))
	require.NoError(t, SaveConfig(cfg, p))

	loaded, err := Load(context.Background(), Options{ConfigPath: p, WatchTarget: "/tmp"})
	require.NoError(t, err)
	assert.True(t, loaded.HideTitleBar)
	assert.True(t, loaded.Height.IsMax())
	w, ok := loaded.Width.Number()
	require.True(t, ok)
	assert.Equal(t, 1000.0, w)
	assert.Empty(t, loaded.Degraded)
}

func nan() float64 {
	return math.NaN()
}

func TestLoadReportsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.toml", `
width = 800
restore = false
linter = "remark"

[markdown]
font_size = 12
fontsize = 14

[file_ext]
html = ["html"]
`)

	cfg, err := Load(context.Background(), Options{ConfigPath: p})
	require.NoError(t, err)

	assert.Equal(t, []string{"linter", "restore", "markdown.fontsize"}, cfg.Unknown)
	assert.Empty(t, cfg.Degraded)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 12, cfg.Markdown.FontSize)
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "restore_window_state", Suggest("restore"))
	assert.Equal(t, "markdown.font_size", Suggest("font_size"))
	assert.Equal(t, "hide_menu_bar", Suggest("hide_menu_bar_always"))
	assert.Empty(t, Suggest("zzz"))
}

func TestDirFollowsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "shiba"), Dir())
	assert.Equal(t, filepath.Join("/xdg", "shiba", "window-state.json"), WindowStatePath())
}
