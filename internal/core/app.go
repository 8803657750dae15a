// Package core boots the previewer: it loads configuration and the watcher,
// creates the window and wires them together.
package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chess10kp/shiba/internal/config"
	"github.com/chess10kp/shiba/internal/geometry"
	"github.com/chess10kp/shiba/internal/menu"
	"github.com/chess10kp/shiba/internal/watcher"
	"github.com/chess10kp/shiba/internal/window"
)

var debugLogger = log.New(log.Writer(), "[CORE-DEBUG] ", log.LstdFlags|log.Lmicroseconds)

var (
	ErrConfigLoad  = errors.New("failed to load config")
	ErrWatcherInit = errors.New("failed to initialize watcher")
)

type State int

const (
	StateBooting State = iota
	StateLoading
	StateWindowCreated
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateLoading:
		return "loading"
	case StateWindowCreated:
		return "window-created"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Watcher pushes document updates into a window.
type Watcher interface {
	Wakeup(sink watcher.Sink) error
	Close() error
}

// Deps are the collaborators of App.
type Deps struct {
	LoadConfig    func(ctx context.Context) (*config.Config, error)
	NewWatcher    func(cfg *config.Config) (Watcher, error)
	Toolkit       window.Toolkit
	// NewStateStore receives the work areas of all monitors, primary first.
	NewStateStore func(monitors []geometry.Rect) window.StateStore
	// Open shows a URL in the user's browser.
	Open menu.Opener

	IconPath string
	// DevMode opens devtools on startup and focuses the window when they open.
	DevMode bool
	// GOOS and Packaged decide whether the dock icon is replaced.
	GOOS     string
	Packaged bool
}

// App is the startup state machine of the previewer.
type App struct {
	deps Deps

	mu       sync.Mutex
	state    State
	onChange []func(State)

	config      *config.Config
	watcher     Watcher
	win         window.Window
	unsubscribe []func()
	released    bool
}

func NewApp(deps Deps) *App {
	return &App{deps: deps, state: StateBooting}
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OnStateChange registers fn to run after every transition.
func (a *App) OnStateChange(fn func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = append(a.onChange, fn)
}

func (a *App) setState(s State) {
	a.mu.Lock()
	a.state = s
	fns := append([]func(State){}, a.onChange...)
	a.mu.Unlock()

	debugLogger.Printf("State -> %s", s)
	for _, fn := range fns {
		fn(s)
	}
}

// Config is the configuration resolved during boot. It is nil before the
// window is created.
func (a *App) Config() *config.Config {
	return a.config
}

// Window is the application window, or nil before creation and after close.
func (a *App) Window() window.Window {
	return a.win
}

// Run boots the application and blocks in the toolkit main loop until the
// window is closed. It must be called on the UI thread.
func (a *App) Run(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.setState(StateFailed)
		log.Printf("[CORE] Unknown error: %v", err)
		return err
	}

	a.deps.Toolkit.Run()
	a.release()
	return nil
}

func (a *App) start(ctx context.Context) error {
	a.setState(StateLoading)

	cfg, w, err := a.boot(ctx)
	if err != nil {
		return err
	}
	a.config = cfg
	a.watcher = w

	win, err := a.createWindow(cfg)
	if err != nil {
		w.Close()
		return err
	}
	a.win = win
	a.setState(StateWindowCreated)

	a.wire(cfg, win, w)
	a.setState(StateReady)
	return nil
}

// boot loads the configuration and constructs the watcher from it while the
// toolkit initialises on the calling thread.
func (a *App) boot(ctx context.Context) (*config.Config, Watcher, error) {
	g, gctx := errgroup.WithContext(ctx)
	loaded := make(chan *config.Config, 1)

	var cfg *config.Config
	var w Watcher

	g.Go(func() error {
		c, err := a.deps.LoadConfig(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfigLoad, err)
		}
		cfg = c
		loaded <- c
		return nil
	})

	g.Go(func() error {
		var c *config.Config
		select {
		case c = <-loaded:
		case <-gctx.Done():
			return gctx.Err()
		}
		nw, err := a.deps.NewWatcher(c)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWatcherInit, err)
		}
		w = nw
		return nil
	})

	initErr := a.deps.Toolkit.Init()
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if initErr != nil {
		w.Close()
		return nil, nil, initErr
	}

	debugLogger.Printf("Boot complete, watching %s", cfg.Path)
	return cfg, w, nil
}

func (a *App) createWindow(cfg *config.Config) (window.Window, error) {
	display, err := a.deps.Toolkit.DisplayBounds()
	if err != nil {
		log.Printf("[CORE] Failed to read display bounds: %v", err)
		display = geometry.Rect{Width: geometry.DefaultWidth, Height: geometry.DefaultHeight}
	}

	monitors, err := a.deps.Toolkit.Monitors()
	if err != nil || len(monitors) == 0 {
		if err != nil {
			log.Printf("[CORE] Failed to list monitors: %v", err)
		}
		monitors = []geometry.Rect{display}
	}

	factory := window.NewFactory(a.deps.Toolkit, a.deps.NewStateStore(monitors), display)
	win, err := factory.Create(cfg, a.deps.IconPath)
	if err != nil {
		return nil, err
	}

	if err := win.LoadViewer(); err != nil {
		win.Close()
		return nil, fmt.Errorf("failed to load viewer: %w", err)
	}
	return win, nil
}

func (a *App) wire(cfg *config.Config, win window.Window, w Watcher) {
	if err := w.Wakeup(win.Content()); err != nil {
		log.Printf("[CORE] Failed to start watcher: %v", err)
	}

	a.unsubscribe = append(a.unsubscribe,
		win.OnClosed(a.release),
		win.OnNavigate(func(url string) bool {
			debugLogger.Printf("Opening %s externally", url)
			if err := a.deps.Open(url); err != nil {
				log.Printf("[CORE] Failed to open %s: %v", url, err)
			}
			return true
		}),
	)

	win.SetMenu(menu.Build(win, cfg, a.deps.Open))

	if a.deps.GOOS == "darwin" && a.deps.Packaged {
		if err := a.deps.Toolkit.SetDockIcon(a.deps.IconPath); err != nil {
			log.Printf("[CORE] Failed to set dock icon: %v", err)
		}
	}

	if a.deps.DevMode {
		a.unsubscribe = append(a.unsubscribe, win.OnDevToolsOpened(win.Focus))
		win.OpenDevTools()
	}
}

// release drops the window, stops the watcher and leaves the main loop. It
// runs once, on close or after the main loop returns.
func (a *App) release() {
	if a.released {
		return
	}
	a.released = true
	log.Println("[CORE] Shutting down...")

	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.unsubscribe = nil
	a.win = nil

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			log.Printf("[CORE] Failed to close watcher: %v", err)
		}
	}
	a.deps.Toolkit.Quit()
}
