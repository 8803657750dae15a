package gtkui

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/chess10kp/shiba/internal/geometry"
	"github.com/chess10kp/shiba/internal/menu"
	"github.com/chess10kp/shiba/internal/render"
	"github.com/chess10kp/shiba/internal/watcher"
	"github.com/chess10kp/shiba/internal/window"
)

//go:embed welcome.md
var welcomeDoc []byte

const appTitle = "Shiba"

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

// Window is a toplevel GTK window showing one rendered document.
type Window struct {
	win      *gtk.Window
	header   *gtk.HeaderBar
	box      *gtk.Box
	menubar  *gtk.MenuBar
	accels   *gtk.AccelGroup
	notice   *gtk.Label
	preview  *gtk.Label
	renderer *render.Renderer

	autoHideMenuBar bool
	menuBarVisible  bool
	fullScreen      bool
	destroyed       bool
	noticeVisible   bool

	last *watcher.Update

	changed  handlers[func()]
	closed   handlers[func()]
	navigate handlers[func(string) bool]
	devtools handlers[func()]
}

func newWindow(opts window.Options, renderer *render.Renderer) (*Window, error) {
	win, err := gtk.WindowNew(gtk.WINDOW_TOPLEVEL)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	win.SetTitle(appTitle)
	win.SetName("shiba-window")
	win.SetDefaultSize(max(opts.Width, 1), max(opts.Height, 1))
	if opts.Position != nil {
		win.Move(opts.Position.X, opts.Position.Y)
	} else {
		win.SetPosition(gtk.WIN_POS_CENTER)
	}

	if opts.IconPath != "" {
		if err := win.SetIconFromFile(opts.IconPath); err != nil {
			debugLogger.Printf("Failed to set window icon %s: %v", opts.IconPath, err)
		}
	}

	w := &Window{
		win:             win,
		renderer:        renderer,
		autoHideMenuBar: opts.AutoHideMenuBar,
	}

	if opts.TitleBarStyle == window.TitleBarHiddenInset {
		header, err := gtk.HeaderBarNew()
		if err != nil {
			return nil, fmt.Errorf("failed to create header bar: %w", err)
		}
		header.SetShowCloseButton(true)
		header.SetTitle("")
		if ctx, err := header.GetStyleContext(); err == nil {
			ctx.AddClass("hidden-inset")
		}
		win.SetTitlebar(header)
		w.header = header
	}

	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create box: %w", err)
	}
	win.Add(box)
	w.box = box

	accels, err := gtk.AccelGroupNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create accelerator group: %w", err)
	}
	win.AddAccelGroup(accels)
	w.accels = accels

	notice, err := gtk.LabelNew("")
	if err != nil {
		return nil, fmt.Errorf("failed to create notice label: %w", err)
	}
	notice.SetName("preview-notice")
	notice.SetXAlign(0)
	box.PackStart(notice, false, false, 0)
	w.notice = notice

	scrolled, err := gtk.ScrolledWindowNew(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrolled window: %w", err)
	}
	scrolled.SetPolicy(gtk.POLICY_AUTOMATIC, gtk.POLICY_AUTOMATIC)
	scrolled.SetVExpand(true)
	box.PackStart(scrolled, true, true, 0)

	preview, err := gtk.LabelNew("")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview label: %w", err)
	}
	preview.SetName("preview")
	preview.SetLineWrap(true)
	preview.SetSelectable(true)
	preview.SetXAlign(0)
	preview.SetYAlign(0)
	preview.SetVAlign(gtk.ALIGN_START)
	scrolled.Add(preview)
	applyFont(&preview.Widget, opts.FontFamily, opts.FontSize)
	w.preview = preview

	w.connect()
	return w, nil
}

func (w *Window) connect() {
	w.preview.Connect("activate-link", func(_ *gtk.Label, uri string) bool {
		return w.requestNavigation(uri)
	})

	w.win.Connect("configure-event", func(_ *gtk.Window, _ *gdk.Event) bool {
		w.emit(&w.changed)
		return false
	})

	w.win.Connect("window-state-event", func(_ *gtk.Window, ev *gdk.Event) bool {
		state := gdk.EventWindowStateNewFromEvent(ev)
		w.fullScreen = state.NewWindowState()&gdk.WINDOW_STATE_FULLSCREEN != 0
		w.emit(&w.changed)
		return false
	})

	w.win.Connect("key-press-event", func(_ *gtk.Window, ev *gdk.Event) bool {
		key := gdk.EventKeyNewFromEvent(ev)
		if w.autoHideMenuBar && w.menubar != nil && isAltKey(key.KeyVal()) {
			w.ToggleMenuBar()
		}
		return false
	})

	w.win.Connect("destroy", func() {
		w.destroyed = true
		for _, fn := range w.closed.fns {
			fn()
		}
	})
}

func isAltKey(keyval uint) bool {
	return keyval == gdk.KEY_Alt_L || keyval == gdk.KEY_Alt_R
}

func (w *Window) emit(h *handlers[func()]) {
	for _, fn := range h.fns {
		fn()
	}
}

// requestNavigation reports whether a handler took over the navigation.
func (w *Window) requestNavigation(uri string) bool {
	cancelled := false
	for _, fn := range w.navigate.fns {
		if fn(uri) {
			cancelled = true
		}
	}
	return cancelled
}

func (w *Window) Bounds() geometry.Rect {
	x, y := w.win.GetPosition()
	width, height := w.win.GetSize()
	return geometry.Rect{X: x, Y: y, Width: width, Height: height}
}

func (w *Window) IsMaximized() bool  { return w.win.IsMaximized() }
func (w *Window) IsFullScreen() bool { return w.fullScreen }

func (w *Window) OnStateChanged(fn func()) func() { return w.changed.add(fn) }
func (w *Window) OnClosed(fn func()) func()       { return w.closed.add(fn) }
func (w *Window) OnNavigate(fn func(url string) bool) func() {
	return w.navigate.add(fn)
}
func (w *Window) OnDevToolsOpened(fn func()) func() { return w.devtools.add(fn) }

func (w *Window) SetFullScreen(on bool) {
	if on {
		w.win.Fullscreen()
	} else {
		w.win.Unfullscreen()
	}
}

func (w *Window) ToggleFullScreen() {
	w.SetFullScreen(!w.fullScreen)
}

func (w *Window) Maximize() {
	w.win.Maximize()
}

func (w *Window) Focus() {
	if focusWithSway() {
		return
	}
	w.win.Present()
}

func (w *Window) Show() {
	w.win.ShowAll()
	w.notice.SetVisible(w.noticeVisible)
	if w.menubar != nil && w.autoHideMenuBar {
		w.menubar.Hide()
		w.menuBarVisible = false
	}
}

func (w *Window) Close() {
	if w.destroyed {
		return
	}
	w.win.Close()
}

func (w *Window) OpenDevTools() {
	openInspector(unsafe.Pointer(w.win.Native()))
	glib.IdleAdd(func() {
		w.emit(&w.devtools)
	})
}

func (w *Window) ToggleMenuBar() {
	if w.menubar == nil {
		return
	}
	w.menuBarVisible = !w.menuBarVisible
	w.menubar.SetVisible(w.menuBarVisible)
}

// LoadViewer shows the welcome page and maps the window.
func (w *Window) LoadViewer() error {
	w.preview.SetMarkup(w.renderer.Markdown(welcomeDoc))
	w.Show()
	return nil
}

// Content returns a sink that renders documents on the GTK main loop.
func (w *Window) Content() watcher.Sink {
	return watcher.SinkFunc(func(u watcher.Update) {
		glib.IdleAdd(func() {
			if !w.destroyed {
				w.display(u)
			}
		})
	})
}

func (w *Window) display(u watcher.Update) {
	if u.Op == watcher.OpRemoved {
		if w.last != nil && w.last.Path == u.Path {
			w.showNotice(fmt.Sprintf("%s was removed", filepath.Base(u.Path)))
		}
		return
	}

	w.last = &u
	w.noticeVisible = false
	w.notice.Hide()
	w.win.SetTitle(fmt.Sprintf("%s - %s", filepath.Base(u.Path), appTitle))
	if w.header != nil {
		w.header.SetSubtitle(u.Path)
	}

	switch u.Kind {
	case watcher.KindMarkdown:
		w.preview.SetMarkup(w.renderer.Markdown(u.Content))
	default:
		w.preview.SetMarkup(w.renderer.Plain(u.Content))
	}
}

func (w *Window) showNotice(text string) {
	w.notice.SetText(text)
	w.noticeVisible = true
	w.notice.Show()
}

// Reload reads the current document again from disk.
func (w *Window) Reload() {
	if w.last == nil {
		w.preview.SetMarkup(w.renderer.Markdown(welcomeDoc))
		return
	}

	u := *w.last
	content, err := os.ReadFile(u.Path)
	if err != nil {
		w.showNotice(fmt.Sprintf("Failed to reload %s: %v", filepath.Base(u.Path), err))
		return
	}
	u.Content = content
	w.display(u)
}

// SetMenu replaces the menu bar of the window.
func (w *Window) SetMenu(menus []menu.Menu) {
	if w.menubar != nil {
		w.menubar.Destroy()
		w.menubar = nil
	}

	bar, err := buildMenuBar(menus, w.accels)
	if err != nil {
		debugLogger.Printf("Failed to build menu bar: %v", err)
		return
	}
	w.box.PackStart(bar, false, false, 0)
	w.box.ReorderChild(bar, 0)
	w.menubar = bar

	w.menuBarVisible = !w.autoHideMenuBar
	bar.ShowAll()
	bar.SetVisible(w.menuBarVisible)
}

func buildMenuBar(menus []menu.Menu, accels *gtk.AccelGroup) (*gtk.MenuBar, error) {
	bar, err := gtk.MenuBarNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create menu bar: %w", err)
	}

	for _, m := range menus {
		top, err := gtk.MenuItemNewWithMnemonic(m.Label)
		if err != nil {
			return nil, fmt.Errorf("failed to create menu %s: %w", m.Label, err)
		}
		sub, err := gtk.MenuNew()
		if err != nil {
			return nil, fmt.Errorf("failed to create submenu %s: %w", m.Label, err)
		}

		for _, item := range m.Items {
			if item.Separator {
				sep, err := gtk.SeparatorMenuItemNew()
				if err != nil {
					return nil, fmt.Errorf("failed to create separator: %w", err)
				}
				sub.Append(sep)
				continue
			}

			mi, err := gtk.MenuItemNewWithLabel(item.Label)
			if err != nil {
				return nil, fmt.Errorf("failed to create menu item %s: %w", item.Label, err)
			}
			action := item.Action
			mi.Connect("activate", func() {
				if action != nil {
					action()
				}
			})
			// Group accelerators fire even while the menu bar is hidden.
			if item.Accel != "" && action != nil {
				key, mods := gtk.AcceleratorParse(item.Accel)
				if key != 0 {
					accels.Connect(key, mods, gtk.ACCEL_VISIBLE, action)
				}
			}
			sub.Append(mi)
		}

		top.SetSubmenu(sub)
		bar.Append(top)
	}

	return bar, nil
}

var _ window.Window = (*Window)(nil)
