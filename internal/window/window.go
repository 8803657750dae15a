// Package window builds the single preview window from configuration and
// persisted placement.
package window

import (
	"github.com/chess10kp/shiba/internal/geometry"
	"github.com/chess10kp/shiba/internal/menu"
	"github.com/chess10kp/shiba/internal/watcher"
	"github.com/chess10kp/shiba/internal/winstate"
)

type TitleBarStyle int

const (
	TitleBarDefault TitleBarStyle = iota
	// TitleBarHiddenInset drops the title text and keeps only the window
	// controls inset in a slim header.
	TitleBarHiddenInset
)

func (s TitleBarStyle) String() string {
	if s == TitleBarHiddenInset {
		return "hidden-inset"
	}
	return "default"
}

// Options are the construction parameters of a window. A nil Position
// leaves placement to the window manager.
type Options struct {
	Position        *geometry.Point
	Width           int
	Height          int
	IconPath        string
	AutoHideMenuBar bool
	TitleBarStyle   TitleBarStyle
	// FontFamily and FontSize style the document view. Zero values keep
	// the toolkit theme.
	FontFamily string
	FontSize   int
}

// Window is a toolkit window. All methods must be called on the UI thread
// except Content().Push, which may be called from any goroutine.
type Window interface {
	winstate.Tracked
	menu.Target

	SetFullScreen(on bool)
	Maximize()
	Focus()
	Show()

	// LoadViewer shows the built-in viewer page until the first document arrives.
	LoadViewer() error
	// Content is the document surface the watcher pushes into.
	Content() watcher.Sink
	SetMenu(menus []menu.Menu)

	// OnNavigate runs when content asks to open url. Returning true cancels
	// the in-window navigation.
	OnNavigate(fn func(url string) bool) (unsubscribe func())
	OnDevToolsOpened(fn func()) (unsubscribe func())
}

// Toolkit creates windows and owns the main loop.
type Toolkit interface {
	Init() error
	// DisplayBounds is the work area of the primary monitor.
	DisplayBounds() (geometry.Rect, error)
	// Monitors lists the work areas of all connected monitors, primary first.
	Monitors() ([]geometry.Rect, error)
	NewWindow(opts Options) (Window, error)
	SetDockIcon(path string) error
	Run()
	Quit()
}

// StateStore is the persisted placement consulted when restoring.
type StateStore interface {
	ResolveOrCreate(defaultWidth, defaultHeight int) winstate.State
	Attach(t winstate.Tracked)
}
