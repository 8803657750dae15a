package gtkui

import (
	"fmt"
	"log"
	"strings"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"
)

const defaultStyles = `
#preview {
    padding: 16px 24px;
}

#preview-notice {
    color: #cc6666;
    padding: 8px 24px;
}

headerbar.hidden-inset {
    min-height: 0;
    padding: 0 4px;
}
`

var styleProvider *gtk.CssProvider

// setupStyles installs the application stylesheet on the default screen.
// It runs once per process; later windows reuse the provider.
func setupStyles() {
	if styleProvider != nil {
		return
	}

	screen, err := gdk.ScreenGetDefault()
	if err != nil || screen == nil {
		log.Printf("[GTKUI] Warning: Failed to get default screen: %v", err)
		return
	}

	provider, _ := gtk.CssProviderNew()
	if err := provider.LoadFromData(defaultStyles); err != nil {
		log.Printf("[GTKUI] Warning: Failed to load default styles: %v", err)
		return
	}

	styleProvider = provider
	gtk.AddProviderForScreen(screen, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// fontStyles is the CSS applied to the document view for the configured font.
func fontStyles(family string, size int) string {
	var rules []string
	if family != "" {
		rules = append(rules, fmt.Sprintf("font-family: %q;", family))
	}
	if size > 0 {
		rules = append(rules, fmt.Sprintf("font-size: %dpx;", size))
	}
	if len(rules) == 0 {
		return ""
	}
	return "#preview {\n    " + strings.Join(rules, "\n    ") + "\n}\n"
}

// applyFont styles widget with the user font. It takes priority over the
// application stylesheet.
func applyFont(widget *gtk.Widget, family string, size int) {
	css := fontStyles(family, size)
	if css == "" {
		return
	}

	provider, _ := gtk.CssProviderNew()
	if err := provider.LoadFromData(css); err != nil {
		log.Printf("[GTKUI] Warning: Failed to load font styles: %v", err)
		return
	}

	ctx, err := widget.GetStyleContext()
	if err != nil {
		return
	}
	ctx.AddProvider(provider, gtk.STYLE_PROVIDER_PRIORITY_USER)
}
