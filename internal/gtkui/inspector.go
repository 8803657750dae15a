package gtkui

/*
#cgo pkg-config: gtk+-3.0
#include <gtk/gtk.h>
*/
import "C"
import "unsafe"

// openInspector opens the GTK interactive debugger attached to the process.
func openInspector(window unsafe.Pointer) {
	C.gtk_window_set_interactive_debugging(C.gboolean(1))
	C.gtk_window_present((*C.GtkWindow)(window))
}
