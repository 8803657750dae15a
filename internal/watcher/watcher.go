// Package watcher observes the preview target and pushes document updates
// into a content sink.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chess10kp/shiba/internal/config"
)

var debugLogger = log.New(log.Writer(), "[WATCHER-DEBUG] ", log.LstdFlags|log.Lmicroseconds)

var (
	ErrAlreadyAwake = errors.New("watcher is already awake")
	ErrClosed       = errors.New("watcher is closed")
)

// DefaultDelay coalesces the burst of events editors emit on save.
const DefaultDelay = 50 * time.Millisecond

type Kind int

const (
	KindMarkdown Kind = iota
	KindHTML
)

func (k Kind) String() string {
	switch k {
	case KindMarkdown:
		return "markdown"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

type Op int

const (
	OpChanged Op = iota
	OpRemoved
)

// Update is one document notification. Content is empty for OpRemoved.
type Update struct {
	Op      Op
	Kind    Kind
	Path    string
	Content []byte
}

// Sink receives updates. Push is called from the watcher's goroutines.
type Sink interface {
	Push(u Update)
}

type SinkFunc func(u Update)

func (f SinkFunc) Push(u Update) {
	f(u)
}

type Watcher struct {
	target string
	dir    bool
	ignore *regexp.Regexp
	kinds  map[string]Kind
	delay  time.Duration
	fsw    *fsnotify.Watcher
	done   chan struct{}

	mu     sync.Mutex
	sink   Sink
	timers map[string]*time.Timer
	closed bool
}

// New prepares a watcher for cfg.Path. It fails when the target cannot be
// observed; no events are delivered until Wakeup.
func New(cfg *config.Config) (*Watcher, error) {
	target, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid watch target %q: %w", cfg.Path, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", target, err)
	}

	kinds := make(map[string]Kind)
	for _, ext := range cfg.FileExt.Markdown {
		kinds[strings.ToLower(ext)] = KindMarkdown
	}
	for _, ext := range cfg.FileExt.HTML {
		kinds[strings.ToLower(ext)] = KindHTML
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		target: target,
		dir:    info.IsDir(),
		ignore: cfg.IgnoreRegexp(),
		kinds:  kinds,
		delay:  DefaultDelay,
		fsw:    fsw,
		done:   make(chan struct{}),
		timers: make(map[string]*time.Timer),
	}

	if w.dir {
		err = w.addTree(target)
	} else {
		// Watch the parent so editors that replace the file on save keep working.
		err = fsw.Add(filepath.Dir(target))
	}
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("cannot watch %s: %w", target, err)
	}

	debugLogger.Printf("Prepared watcher for %s (dir=%v)", target, w.dir)
	return w, nil
}

func (w *Watcher) Target() string {
	return w.target
}

func (w *Watcher) IsDir() bool {
	return w.dir
}

// SetDelay changes the debounce delay. Call before Wakeup.
func (w *Watcher) SetDelay(d time.Duration) {
	w.mu.Lock()
	w.delay = d
	w.mu.Unlock()
}

// Wakeup starts delivering updates to sink, beginning with the initial
// document.
func (w *Watcher) Wakeup(sink Sink) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.sink != nil {
		w.mu.Unlock()
		return ErrAlreadyAwake
	}
	w.sink = sink
	w.mu.Unlock()

	if initial := w.InitialDocument(); initial != "" {
		w.push(initial)
	}

	go w.loop()
	return nil
}

// Close stops the watcher. Pending updates are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}

// InitialDocument is the document shown right after Wakeup: the target
// itself, or for directories a README or else the most recently modified
// document.
func (w *Watcher) InitialDocument() string {
	if !w.dir {
		return w.target
	}

	var docs []string
	filepath.WalkDir(w.target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != w.target && w.ignored(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if _, ok := w.kindOf(path); ok {
				docs = append(docs, path)
			}
		}
		return nil
	})

	return selectDefault(docs)
}

func selectDefault(docs []string) string {
	if len(docs) == 0 {
		return ""
	}

	for _, p := range docs {
		if filepath.Base(p) == "README.md" {
			return p
		}
	}
	for _, p := range docs {
		if strings.HasPrefix(strings.ToLower(filepath.Base(p)), "readme.") {
			return p
		}
	}

	var newest string
	var newestTime time.Time
	for _, p := range docs {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest, newestTime = p, info.ModTime()
		}
	}
	return newest
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[WATCHER] Watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if w.ignored(path) {
		return
	}

	if w.dir && event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				log.Printf("[WATCHER] Cannot watch new directory %s: %v", path, err)
			}
			return
		}
	}

	if !w.dir && path != w.target {
		return
	}
	if _, ok := w.kindOf(path); !ok {
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.schedule(path)
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.push(path)
	})
}

// push reads path and delivers it; a missing file becomes OpRemoved.
func (w *Watcher) push(path string) {
	kind, ok := w.kindOf(path)
	if !ok {
		return
	}

	update := Update{Op: OpChanged, Kind: kind, Path: path}
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		update.Content = content
	case errors.Is(err, fs.ErrNotExist):
		update.Op = OpRemoved
	default:
		log.Printf("[WATCHER] Failed to read %s: %v", path, err)
		return
	}

	w.mu.Lock()
	sink, closed := w.sink, w.closed
	w.mu.Unlock()
	if closed || sink == nil {
		return
	}

	debugLogger.Printf("Pushing %s (%s, op=%d, %d bytes)", path, kind, update.Op, len(update.Content))
	sink.Push(update)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if path == root {
				return err
			}
			log.Printf("[WATCHER] Cannot watch directory %s: %v", path, err)
		}
		return nil
	})
}

// ignored matches the pattern against the path relative to a directory
// target. A single-file target is never ignored.
func (w *Watcher) ignored(path string) bool {
	if w.ignore == nil || !w.dir {
		return false
	}
	rel, err := filepath.Rel(w.target, path)
	if err != nil {
		return false
	}
	return w.ignore.MatchString(string(filepath.Separator) + rel)
}

func (w *Watcher) kindOf(path string) (Kind, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return 0, false
	}
	kind, ok := w.kinds[ext]
	return kind, ok
}
