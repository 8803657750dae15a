// Package menu describes the application menu independently of the toolkit.
package menu

import (
	"log"
	"net/url"
	"path/filepath"

	"github.com/chess10kp/shiba/internal/config"
)

const (
	ProjectURL = "https://github.com/rhysd/Shiba"
	IssuesURL  = ProjectURL + "/issues"
)

type Item struct {
	Label string
	// Accel is a GTK accelerator such as "<Control>r". Empty means none.
	Accel     string
	Separator bool
	Action    func()
}

type Menu struct {
	Label string
	Items []Item
}

// Target is the window the menu acts on.
type Target interface {
	Reload()
	ToggleMenuBar()
	ToggleFullScreen()
	OpenDevTools()
	Close()
}

// Opener opens a URL outside the application.
type Opener func(rawURL string) error

func separator() Item {
	return Item{Separator: true}
}

// Build returns the menu bar for target. cfg decides which config file the
// "Open Config File" entry points at.
func Build(target Target, cfg *config.Config, open Opener) []Menu {
	openURL := func(u string) func() {
		return func() {
			if err := open(u); err != nil {
				log.Printf("[MENU] Failed to open %s: %v", u, err)
			}
		}
	}

	return []Menu{
		{
			Label: "_File",
			Items: []Item{
				{Label: "Reload", Accel: "<Control>r", Action: target.Reload},
				{Label: "Open Config File", Action: openURL(ConfigURL(cfg))},
				separator(),
				{Label: "Quit", Accel: "<Control>q", Action: target.Close},
			},
		},
		{
			Label: "_View",
			Items: []Item{
				{Label: "Toggle Menu Bar", Action: target.ToggleMenuBar},
				{Label: "Toggle Full Screen", Accel: "F11", Action: target.ToggleFullScreen},
				separator(),
				{Label: "Open DevTools", Accel: "<Control><Shift>i", Action: target.OpenDevTools},
			},
		},
		{
			Label: "_Help",
			Items: []Item{
				{Label: "Project Page", Action: openURL(ProjectURL)},
				{Label: "Report Issue", Action: openURL(IssuesURL)},
			},
		},
	}
}

// ConfigURL is a file:// URL for the config in use, or the config directory
// when running on defaults.
func ConfigURL(cfg *config.Config) string {
	path := cfg.Source
	if path == "" {
		path = config.Dir()
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// Find returns the item with label under the menu with menuLabel.
func Find(menus []Menu, menuLabel, label string) (Item, bool) {
	for _, m := range menus {
		if m.Label != menuLabel {
			continue
		}
		for _, item := range m.Items {
			if item.Label == label {
				return item, true
			}
		}
	}
	return Item{}, false
}
