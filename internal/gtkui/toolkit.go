// Package gtkui implements the window toolkit on GTK 3.
package gtkui

import (
	"errors"
	"fmt"
	"log"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/chess10kp/shiba/internal/geometry"
	"github.com/chess10kp/shiba/internal/render"
	"github.com/chess10kp/shiba/internal/window"
)

var debugLogger = log.New(log.Writer(), "[GTKUI-DEBUG] ", log.LstdFlags|log.Lmicroseconds)

var errNotInitialized = errors.New("gtk is not initialized")

// Toolkit is the GTK implementation of window.Toolkit. Every method except
// Version must be called from the thread that called Init.
type Toolkit struct {
	renderer    *render.Renderer
	initialized bool
}

func New(renderer *render.Renderer) *Toolkit {
	return &Toolkit{renderer: renderer}
}

func (t *Toolkit) Init() error {
	if t.initialized {
		return nil
	}
	if err := gtk.InitCheck(nil); err != nil {
		return fmt.Errorf("failed to initialize gtk: %w", err)
	}
	t.initialized = true
	setupStyles()
	return nil
}

// DisplayBounds returns the work area of the primary monitor, falling back
// to the first monitor when none is marked primary.
func (t *Toolkit) DisplayBounds() (geometry.Rect, error) {
	if !t.initialized {
		return geometry.Rect{}, errNotInitialized
	}

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("failed to get default display: %w", err)
	}

	monitor, err := display.GetPrimaryMonitor()
	if err != nil || monitor == nil {
		monitor, err = display.GetMonitor(0)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("failed to get monitor: %w", err)
		}
	}

	bounds := workarea(monitor)
	debugLogger.Printf("Display work area %+v", bounds)
	return bounds, nil
}

// Monitors returns the work area of every monitor, with the primary one first.
func (t *Toolkit) Monitors() ([]geometry.Rect, error) {
	primary, err := t.DisplayBounds()
	if err != nil {
		return nil, err
	}

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to get default display: %w", err)
	}

	areas := []geometry.Rect{primary}
	for i := 0; i < display.GetNMonitors(); i++ {
		monitor, err := display.GetMonitor(i)
		if err != nil || monitor == nil {
			continue
		}
		if area := workarea(monitor); area != primary {
			areas = append(areas, area)
		}
	}
	debugLogger.Printf("Monitor work areas %+v", areas)
	return areas, nil
}

func workarea(monitor *gdk.Monitor) geometry.Rect {
	area := monitor.GetWorkarea()
	return geometry.Rect{
		X:      area.GetX(),
		Y:      area.GetY(),
		Width:  area.GetWidth(),
		Height: area.GetHeight(),
	}
}

func (t *Toolkit) NewWindow(opts window.Options) (window.Window, error) {
	if !t.initialized {
		return nil, errNotInitialized
	}
	return newWindow(opts, t.renderer)
}

// SetDockIcon sets the default icon used by every window of the process.
func (t *Toolkit) SetDockIcon(path string) error {
	pixbuf, err := gdk.PixbufNewFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load icon %s: %w", path, err)
	}
	gtk.WindowSetDefaultIcon(pixbuf)
	return nil
}

func (t *Toolkit) Run() {
	gtk.Main()
}

func (t *Toolkit) Quit() {
	gtk.MainQuit()
}

// Invoke runs fn on the GTK main loop.
func Invoke(fn func()) {
	glib.IdleAdd(fn)
}

// Version is the GTK runtime version, such as "3.24.41".
func Version() string {
	return fmt.Sprintf("%d.%d.%d", gtk.GetMajorVersion(), gtk.GetMinorVersion(), gtk.GetMicroVersion())
}

var _ window.Toolkit = (*Toolkit)(nil)
