// Package winstate remembers where the preview window was and how big it was,
// so the next run can open it in the same place.
package winstate

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chess10kp/shiba/internal/geometry"
)

// DefaultSaveDelay is how long window moves/resizes are coalesced before
// the state file is rewritten.
const DefaultSaveDelay = 100 * time.Millisecond

// State is the persisted placement of the application window.
type State struct {
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	X             *int          `json:"x,omitempty"`
	Y             *int          `json:"y,omitempty"`
	IsMaximized   bool          `json:"isMaximized"`
	IsFullScreen  bool          `json:"isFullScreen"`
	DisplayBounds geometry.Rect `json:"displayBounds"`
}

// Position returns the stored position, or nil when the window should be
// placed by the window manager.
func (s State) Position() *geometry.Point {
	if s.X == nil || s.Y == nil {
		return nil
	}
	return &geometry.Point{X: *s.X, Y: *s.Y}
}

func (s State) bounds() geometry.Rect {
	r := geometry.Rect{Width: s.Width, Height: s.Height}
	if s.X != nil && s.Y != nil {
		r.X, r.Y = *s.X, *s.Y
	}
	return r
}

// Tracked is the part of a window the store observes.
type Tracked interface {
	Bounds() geometry.Rect
	IsMaximized() bool
	IsFullScreen() bool
	// OnStateChanged fires after moves, resizes and maximize/full-screen
	// transitions. The returned func removes the handler.
	OnStateChanged(fn func()) (unsubscribe func())
	OnClosed(fn func()) (unsubscribe func())
}

type Store struct {
	path      string
	display   geometry.Rect
	monitors  []geometry.Rect
	saveDelay time.Duration

	mu      sync.Mutex
	state   State
	timer   *time.Timer
	pending bool
}

// NewStore returns a store persisting to path. monitors are the work areas
// of every connected monitor, primary first. A stored position is kept when
// any of them contains the window.
func NewStore(path string, monitors ...geometry.Rect) *Store {
	s := &Store{
		path:      path,
		monitors:  monitors,
		saveDelay: DefaultSaveDelay,
	}
	if len(monitors) > 0 {
		s.display = monitors[0]
	}
	return s
}

// SetSaveDelay changes the debounce delay for writes caused by window events.
func (s *Store) SetSaveDelay(d time.Duration) {
	s.mu.Lock()
	s.saveDelay = d
	s.mu.Unlock()
}

func (s *Store) Path() string {
	return s.path
}

// ResolveOrCreate returns the persisted state, repaired where needed: an
// unusable size becomes the given default size and an off-screen position is
// dropped. The maximized and full-screen flags always survive.
func (s *Store) ResolveOrCreate(defaultWidth, defaultHeight int) State {
	state, err := s.load()
	if err != nil {
		log.Printf("[WINSTATE] %v, using defaults", err)
		state = State{}
	}
	state = s.repair(state, defaultWidth, defaultHeight)
	state.DisplayBounds = s.display

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return state
}

// Current returns the latest known state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attach keeps the store in sync with t until t is closed.
func (s *Store) Attach(t Tracked) {
	var unsubChanged, unsubClosed func()

	unsubChanged = t.OnStateChanged(func() {
		s.update(t)
		s.scheduleSave()
	})
	unsubClosed = t.OnClosed(func() {
		unsubChanged()
		unsubClosed()
		if err := s.Flush(); err != nil {
			log.Printf("[WINSTATE] Failed to save window state: %v", err)
		}
	})

	s.update(t)
}

// update snapshots t. It runs on the UI thread, the write happens later.
func (s *Store) update(t Tracked) {
	maximized := t.IsMaximized()
	fullScreen := t.IsFullScreen()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !maximized && !fullScreen {
		b := t.Bounds()
		x, y := b.X, b.Y
		s.state.X, s.state.Y = &x, &y
		s.state.Width, s.state.Height = b.Width, b.Height
	}
	s.state.IsMaximized = maximized
	s.state.IsFullScreen = fullScreen
	s.state.DisplayBounds = s.display
	s.pending = true
}

func (s *Store) scheduleSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.saveDelay, func() {
		if err := s.Flush(); err != nil {
			log.Printf("[WINSTATE] Failed to save window state: %v", err)
		}
	})
}

// Flush writes the pending state, if any, and cancels a scheduled write.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.pending {
		s.mu.Unlock()
		return nil
	}
	state := s.state
	s.pending = false
	s.mu.Unlock()

	return s.write(state)
}

// Save writes the current state immediately.
func (s *Store) Save() error {
	return s.write(s.Current())
}

func (s *Store) repair(state State, defaultWidth, defaultHeight int) State {
	if state.Width <= 0 || state.Height <= 0 {
		state.Width, state.Height = defaultWidth, defaultHeight
		state.X, state.Y = nil, nil
	}
	if state.Position() == nil || !s.visible(state.bounds()) {
		state.X, state.Y = nil, nil
	}
	return state
}

// visible reports whether r lies inside some monitor. With no usable
// monitor geometry every position is accepted.
func (s *Store) visible(r geometry.Rect) bool {
	known := false
	for _, m := range s.monitors {
		if m.Empty() {
			continue
		}
		known = true
		if m.Contains(r) {
			return true
		}
	}
	return !known
}

func (s *Store) load() (State, error) {
	var state State

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("failed to read window state: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal window state: %w", err)
	}
	return state, nil
}

func (s *Store) write(state State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal window state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write window state: %w", err)
	}
	return nil
}
