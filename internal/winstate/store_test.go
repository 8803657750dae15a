package winstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chess10kp/shiba/internal/geometry"
)

var display = geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

type fakeWindow struct {
	bounds     geometry.Rect
	maximized  bool
	fullScreen bool
	changed    map[int]func()
	closed     map[int]func()
	nextID     int
}

func newFakeWindow(b geometry.Rect) *fakeWindow {
	return &fakeWindow{bounds: b, changed: map[int]func(){}, closed: map[int]func(){}}
}

func (w *fakeWindow) Bounds() geometry.Rect { return w.bounds }
func (w *fakeWindow) IsMaximized() bool     { return w.maximized }
func (w *fakeWindow) IsFullScreen() bool    { return w.fullScreen }

func (w *fakeWindow) OnStateChanged(fn func()) func() {
	id := w.nextID
	w.nextID++
	w.changed[id] = fn
	return func() { delete(w.changed, id) }
}

func (w *fakeWindow) OnClosed(fn func()) func() {
	id := w.nextID
	w.nextID++
	w.closed[id] = fn
	return func() { delete(w.closed, id) }
}

func (w *fakeWindow) emitChanged() {
	for _, fn := range w.changed {
		fn()
	}
}

func (w *fakeWindow) emitClosed() {
	for _, fn := range w.closed {
		fn()
	}
}

func readState(t *testing.T, path string) State {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s State
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func writeState(t *testing.T, path string, s State) {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func intp(n int) *int { return &n }

func TestResolveOrCreateWithoutFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "window-state.json"), display)

	s := store.ResolveOrCreate(920, 800)

	assert.Equal(t, 920, s.Width)
	assert.Equal(t, 800, s.Height)
	assert.Nil(t, s.Position())
	assert.False(t, s.IsMaximized)
	assert.False(t, s.IsFullScreen)
}

func TestResolveOrCreateRestoresPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	writeState(t, path, State{Width: 1000, Height: 700, X: intp(40), Y: intp(50), IsMaximized: true})

	s := NewStore(path, display).ResolveOrCreate(920, 800)

	assert.Equal(t, 1000, s.Width)
	assert.Equal(t, 700, s.Height)
	require.NotNil(t, s.Position())
	assert.Equal(t, geometry.Point{X: 40, Y: 50}, *s.Position())
	assert.True(t, s.IsMaximized)
}

func TestResolveOrCreateRejectsBrokenState(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"garbage", "{not json"},
		{"zero size", `{"width":0,"height":600,"x":10,"y":10}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "window-state.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			s := NewStore(path, display).ResolveOrCreate(920, 800)

			assert.Equal(t, 920, s.Width)
			assert.Equal(t, 800, s.Height)
			assert.Nil(t, s.Position())
		})
	}
}

func TestResolveOrCreateDropsOffscreenPositionOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	content := `{"width":800,"height":600,"x":5000,"y":10,"isMaximized":true}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s := NewStore(path, display).ResolveOrCreate(920, 800)

	assert.Equal(t, 800, s.Width)
	assert.Equal(t, 600, s.Height)
	assert.Nil(t, s.Position())
	assert.True(t, s.IsMaximized)
}

func TestResolveOrCreateKeepsWindowModeWithoutBounds(t *testing.T) {
	testCases := []struct {
		name       string
		content    string
		maximized  bool
		fullScreen bool
	}{
		{"full screen", `{"isFullScreen":true}`, false, true},
		{"maximized", `{"isMaximized":true}`, true, false},
		{"negative size", `{"width":-5,"height":600,"isFullScreen":true,"isMaximized":true}`, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "window-state.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			s := NewStore(path, display).ResolveOrCreate(920, 800)

			assert.Equal(t, 920, s.Width)
			assert.Equal(t, 800, s.Height)
			assert.Nil(t, s.Position())
			assert.Equal(t, tc.maximized, s.IsMaximized)
			assert.Equal(t, tc.fullScreen, s.IsFullScreen)
		})
	}
}

func TestResolveOrCreateAcceptsSecondaryMonitor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	content := `{"width":800,"height":600,"x":2100,"y":100,"isMaximized":true}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	secondary := geometry.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	s := NewStore(path, display, secondary).ResolveOrCreate(920, 800)

	require.NotNil(t, s.Position())
	assert.Equal(t, geometry.Point{X: 2100, Y: 100}, *s.Position())
	assert.Equal(t, 800, s.Width)
	assert.True(t, s.IsMaximized)
	assert.Equal(t, display, s.DisplayBounds)

	s = NewStore(path, display).ResolveOrCreate(920, 800)
	assert.Nil(t, s.Position(), "monitor unplugged")
	assert.True(t, s.IsMaximized)
}

func TestResolveOrCreateWithoutMonitorsKeepsPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	writeState(t, path, State{Width: 800, Height: 600, X: intp(-3000), Y: intp(10)})

	s := NewStore(path).ResolveOrCreate(920, 800)

	require.NotNil(t, s.Position())
	assert.Equal(t, geometry.Point{X: -3000, Y: 10}, *s.Position())
}

func TestAttachPersistsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "window-state.json")
	store := NewStore(path, display)
	store.SetSaveDelay(time.Hour)
	store.ResolveOrCreate(920, 800)

	win := newFakeWindow(geometry.Rect{X: 10, Y: 20, Width: 640, Height: 480})
	store.Attach(win)

	win.bounds = geometry.Rect{X: 30, Y: 40, Width: 800, Height: 600}
	win.emitChanged()
	win.emitClosed()

	s := readState(t, path)
	assert.Equal(t, 800, s.Width)
	assert.Equal(t, 600, s.Height)
	require.NotNil(t, s.Position())
	assert.Equal(t, geometry.Point{X: 30, Y: 40}, *s.Position())
	assert.Equal(t, display, s.DisplayBounds)

	assert.Empty(t, win.changed)
	assert.Empty(t, win.closed)
}

func TestAttachDebouncesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	store := NewStore(path, display)
	store.SetSaveDelay(10 * time.Millisecond)
	store.ResolveOrCreate(920, 800)

	win := newFakeWindow(geometry.Rect{X: 0, Y: 0, Width: 500, Height: 400})
	store.Attach(win)
	win.bounds.Width = 510
	win.emitChanged()
	win.bounds.Width = 520
	win.emitChanged()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		var s State
		if err := json.Unmarshal(data, &s); err != nil {
			return false
		}
		return s.Width == 520
	}, time.Second, 5*time.Millisecond)
}

func TestMaximizedKeepsNormalBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	store := NewStore(path, display)
	store.SetSaveDelay(time.Hour)
	store.ResolveOrCreate(920, 800)

	win := newFakeWindow(geometry.Rect{X: 100, Y: 100, Width: 700, Height: 500})
	store.Attach(win)

	win.maximized = true
	win.bounds = display
	win.emitChanged()
	win.emitClosed()

	s := readState(t, path)
	assert.True(t, s.IsMaximized)
	assert.Equal(t, 700, s.Width)
	assert.Equal(t, 500, s.Height)

	restored := NewStore(path, display).ResolveOrCreate(920, 800)
	assert.True(t, restored.IsMaximized)
	assert.Equal(t, 700, restored.Width)
}

func TestFlushWithoutChangesDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	store := NewStore(path, display)
	store.ResolveOrCreate(920, 800)

	require.NoError(t, store.Flush())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Save())
	assert.Equal(t, 920, readState(t, path).Width)
}
