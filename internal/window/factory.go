package window

import (
	"fmt"
	"log"

	"github.com/chess10kp/shiba/internal/config"
	"github.com/chess10kp/shiba/internal/geometry"
)

var debugLogger = log.New(log.Writer(), "[WINDOW-DEBUG] ", log.LstdFlags|log.Lmicroseconds)

type Factory struct {
	toolkit Toolkit
	states  StateStore
	display geometry.Rect
}

// NewFactory returns a factory creating windows on toolkit. display is the
// work area read once at startup.
func NewFactory(toolkit Toolkit, states StateStore, display geometry.Rect) *Factory {
	return &Factory{
		toolkit: toolkit,
		states:  states,
		display: display,
	}
}

// resolveOptions computes the construction options for cfg. When state
// restoration is on, the returned state is non-nil.
func (f *Factory) resolveOptions(cfg *config.Config, iconPath string) (Options, *restored) {
	width, height := geometry.ResolveSize(cfg, f.display)

	var opts Options
	var state *restored
	if cfg.RestoreWindowState {
		s := f.states.ResolveOrCreate(width, height)
		opts = Options{
			Position: s.Position(),
			Width:    s.Width,
			Height:   s.Height,
		}
		state = &restored{fullScreen: s.IsFullScreen, maximized: s.IsMaximized}
	} else {
		opts = Options{
			Width:  width,
			Height: height,
		}
	}

	opts.IconPath = iconPath
	opts.AutoHideMenuBar = cfg.HideMenuBar
	opts.FontFamily = cfg.Markdown.FontFamily
	opts.FontSize = cfg.Markdown.FontSize
	if cfg.HideTitleBar {
		opts.TitleBarStyle = TitleBarHiddenInset
	}

	return opts, state
}

type restored struct {
	fullScreen bool
	maximized  bool
}

// Create builds the application window.
func (f *Factory) Create(cfg *config.Config, iconPath string) (Window, error) {
	opts, state := f.resolveOptions(cfg, iconPath)
	debugLogger.Printf("Creating window %dx%d position=%v titlebar=%s autohide=%v",
		opts.Width, opts.Height, opts.Position, opts.TitleBarStyle, opts.AutoHideMenuBar)

	win, err := f.toolkit.NewWindow(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if state != nil {
		if state.fullScreen {
			win.SetFullScreen(true)
		} else if state.maximized {
			win.Maximize()
		}
		f.states.Attach(win)
	}

	return win, nil
}
