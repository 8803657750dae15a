package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/chess10kp/shiba/internal/browser"
	"github.com/chess10kp/shiba/internal/config"
	"github.com/chess10kp/shiba/internal/core"
	"github.com/chess10kp/shiba/internal/geometry"
	"github.com/chess10kp/shiba/internal/gtkui"
	"github.com/chess10kp/shiba/internal/render"
	"github.com/chess10kp/shiba/internal/watcher"
	"github.com/chess10kp/shiba/internal/window"
	"github.com/chess10kp/shiba/internal/winstate"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func init() {
	// GTK must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Bool("detach", false, "accepted for compatibility, has no effect")
	configPath := flag.String("config", "", "path to config.toml (default: $XDG_CONFIG_HOME/shiba/config.toml)")
	logPath := flag.String("log-file", "", "append logs to this file instead of stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "%s\n\nFlags:\n", core.Usage())
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion || core.WantsVersion(os.Args[1:]) {
		fmt.Print(core.Banner(core.BuildInfo{
			Version:    version,
			GOOS:       runtime.GOOS,
			GOARCH:     runtime.GOARCH,
			GoVersion:  runtime.Version(),
			GTKVersion: gtkui.Version(),
		}))
		return
	}

	if *logPath != "" {
		logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	if err := run(*configPath, flag.Arg(0)); err != nil {
		os.Exit(1)
	}
}

func run(configPath, target string) error {
	renderer, err := render.New(render.DefaultCacheSize)
	if err != nil {
		log.Printf("Failed to create renderer: %v", err)
		return err
	}
	toolkit := gtkui.New(renderer)

	exe, _ := os.Executable()
	app := core.NewApp(core.Deps{
		LoadConfig: func(ctx context.Context) (*config.Config, error) {
			return config.Load(ctx, config.Options{ConfigPath: configPath, WatchTarget: target})
		},
		NewWatcher: func(cfg *config.Config) (core.Watcher, error) {
			return watcher.New(cfg)
		},
		Toolkit: toolkit,
		NewStateStore: func(monitors []geometry.Rect) window.StateStore {
			return winstate.NewStore(config.WindowStatePath(), monitors...)
		},
		Open:     browser.Open,
		IconPath: iconPath(exe),
		DevMode:  core.DevMode(),
		GOOS:     runtime.GOOS,
		Packaged: core.IsPackaged(exe),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		closeWindow(app, toolkit)
	}()

	log.Println("Shiba starting...")
	return app.Run(context.Background())
}

// closeWindow closes the window from a non-UI goroutine.
func closeWindow(app *core.App, toolkit *gtkui.Toolkit) {
	gtkui.Invoke(func() {
		if win := app.Window(); win != nil {
			win.Close()
			return
		}
		toolkit.Quit()
	})
}

// iconPath locates the application icon installed next to the binary.
func iconPath(exe string) string {
	if exe == "" {
		return ""
	}
	dir := filepath.Dir(exe)
	for _, candidate := range []string{
		filepath.Join(dir, "..", "share", "shiba", "shiba.svg"),
		filepath.Join(dir, "..", "Resources", "shiba.svg"),
		filepath.Join(dir, "assets", "shiba.svg"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Clean(candidate)
		}
	}
	return ""
}
