package gtkui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joshuarubin/go-sway"
)

const focusTimeout = time.Second

// focusWithSway asks sway to focus the windows of this process. It reports
// false when sway is not running or refused the command.
func focusWithSway() bool {
	if os.Getenv("SWAYSOCK") == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), focusTimeout)
	defer cancel()

	client, err := sway.New(ctx)
	if err != nil {
		debugLogger.Printf("sway client unavailable: %v", err)
		return false
	}

	replies, err := client.RunCommand(ctx, fmt.Sprintf("[pid=%d] focus", os.Getpid()))
	if err != nil {
		debugLogger.Printf("sway focus failed: %v", err)
		return false
	}
	for _, r := range replies {
		if !r.Success {
			debugLogger.Printf("sway focus refused: %s", r.Error)
			return false
		}
	}
	return true
}
