// Package windowtest provides in-memory implementations of the window
// interfaces for tests.
package windowtest

import (
	"errors"
	"sync"

	"github.com/chess10kp/shiba/internal/geometry"
	"github.com/chess10kp/shiba/internal/menu"
	"github.com/chess10kp/shiba/internal/watcher"
	"github.com/chess10kp/shiba/internal/window"
	"github.com/chess10kp/shiba/internal/winstate"
)

type handlers[F any] struct {
	next int
	fns  map[int]F
}

func (h *handlers[F]) add(fn F) func() {
	if h.fns == nil {
		h.fns = make(map[int]F)
	}
	id := h.next
	h.next++
	h.fns[id] = fn
	return func() { delete(h.fns, id) }
}

func (h *handlers[F]) len() int {
	return len(h.fns)
}

// Window records every call made on it.
type Window struct {
	Opts window.Options

	bounds     geometry.Rect
	maximized  bool
	fullScreen bool

	Calls        []string
	ViewerLoaded bool
	Menus        []menu.Menu
	Closed       bool

	mu      sync.Mutex
	Updates []watcher.Update

	changed  handlers[func()]
	closed   handlers[func()]
	navigate handlers[func(string) bool]
	devtools handlers[func()]
}

func NewWindow(opts window.Options) *Window {
	w := &Window{Opts: opts, bounds: geometry.Rect{Width: opts.Width, Height: opts.Height}}
	if opts.Position != nil {
		w.bounds.X, w.bounds.Y = opts.Position.X, opts.Position.Y
	}
	return w
}

func (w *Window) record(call string) {
	w.Calls = append(w.Calls, call)
}

func (w *Window) Bounds() geometry.Rect { return w.bounds }
func (w *Window) IsMaximized() bool     { return w.maximized }
func (w *Window) IsFullScreen() bool    { return w.fullScreen }

func (w *Window) OnStateChanged(fn func()) func() { return w.changed.add(fn) }
func (w *Window) OnClosed(fn func()) func()       { return w.closed.add(fn) }
func (w *Window) OnNavigate(fn func(string) bool) func() {
	return w.navigate.add(fn)
}
func (w *Window) OnDevToolsOpened(fn func()) func() { return w.devtools.add(fn) }

func (w *Window) SetFullScreen(on bool) {
	w.record("fullscreen")
	w.fullScreen = on
	w.emitChanged()
}

func (w *Window) Maximize() {
	w.record("maximize")
	w.maximized = true
	w.emitChanged()
}

func (w *Window) Focus()            { w.record("focus") }
func (w *Window) Show()             { w.record("show") }
func (w *Window) Reload()           { w.record("reload") }
func (w *Window) ToggleMenuBar()    { w.record("toggle-menubar") }
func (w *Window) ToggleFullScreen() { w.SetFullScreen(!w.fullScreen) }

func (w *Window) OpenDevTools() {
	w.record("devtools")
	for _, fn := range w.devtools.fns {
		fn()
	}
}

func (w *Window) Close() {
	if w.Closed {
		return
	}
	w.Closed = true
	w.record("close")
	for _, fn := range w.closed.fns {
		fn()
	}
}

func (w *Window) LoadViewer() error {
	w.ViewerLoaded = true
	return nil
}

func (w *Window) Content() watcher.Sink {
	return watcher.SinkFunc(func(u watcher.Update) {
		w.mu.Lock()
		w.Updates = append(w.Updates, u)
		w.mu.Unlock()
	})
}

func (w *Window) SetMenu(menus []menu.Menu) {
	w.Menus = menus
}

// Move simulates the user dragging the window.
func (w *Window) Move(b geometry.Rect) {
	w.bounds = b
	w.emitChanged()
}

// Navigate simulates the content requesting url and reports whether any
// handler cancelled it.
func (w *Window) Navigate(url string) bool {
	cancelled := false
	for _, fn := range w.navigate.fns {
		if fn(url) {
			cancelled = true
		}
	}
	return cancelled
}

func (w *Window) emitChanged() {
	for _, fn := range w.changed.fns {
		fn()
	}
}

// Subscriptions reports the live handler count per event.
func (w *Window) Subscriptions() map[string]int {
	return map[string]int{
		"changed":  w.changed.len(),
		"closed":   w.closed.len(),
		"navigate": w.navigate.len(),
		"devtools": w.devtools.len(),
	}
}

func (w *Window) ReceivedUpdates() []watcher.Update {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]watcher.Update(nil), w.Updates...)
}

var _ window.Window = (*Window)(nil)

// Toolkit creates Windows and records lifecycle calls.
type Toolkit struct {
	Display geometry.Rect
	// Screens are reported by Monitors. It defaults to Display alone.
	Screens    []geometry.Rect
	MonitorErr error
	InitErr error
	// OnRun stands in for the main loop. Run returns when it does.
	OnRun func()

	Inited   bool
	Running  bool
	Quitted  bool
	DockIcon string
	Windows  []*Window
}

func (t *Toolkit) Init() error {
	t.Inited = true
	return t.InitErr
}

func (t *Toolkit) DisplayBounds() (geometry.Rect, error) {
	if !t.Inited {
		return geometry.Rect{}, errors.New("toolkit not initialised")
	}
	return t.Display, nil
}

func (t *Toolkit) Monitors() ([]geometry.Rect, error) {
	if !t.Inited {
		return nil, errors.New("toolkit not initialised")
	}
	if t.MonitorErr != nil {
		return nil, t.MonitorErr
	}
	if len(t.Screens) == 0 {
		return []geometry.Rect{t.Display}, nil
	}
	return t.Screens, nil
}

func (t *Toolkit) NewWindow(opts window.Options) (window.Window, error) {
	w := NewWindow(opts)
	t.Windows = append(t.Windows, w)
	return w, nil
}

func (t *Toolkit) SetDockIcon(path string) error {
	t.DockIcon = path
	return nil
}

func (t *Toolkit) Run() {
	t.Running = true
	if t.OnRun != nil {
		t.OnRun()
	}
}

func (t *Toolkit) Quit() { t.Quitted = true }

var _ window.Toolkit = (*Toolkit)(nil)

// StateStore is an in-memory window.StateStore.
type StateStore struct {
	State    winstate.State
	Found    bool
	Resolved int
	Attached []winstate.Tracked
}

func (s *StateStore) ResolveOrCreate(defaultWidth, defaultHeight int) winstate.State {
	s.Resolved++
	if s.Found {
		return s.State
	}
	return winstate.State{Width: defaultWidth, Height: defaultHeight}
}

func (s *StateStore) Attach(t winstate.Tracked) {
	s.Attached = append(s.Attached, t)
}

var _ window.StateStore = (*StateStore)(nil)
