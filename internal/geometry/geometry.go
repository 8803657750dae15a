// Package geometry turns configured window dimensions into concrete sizes.
package geometry

import (
	"github.com/chess10kp/shiba/internal/config"
)

// Fallback sizes used when a configured dimension is unusable.
const (
	DefaultWidth  = 920
	DefaultHeight = 800
)

type Dimension int

const (
	Width Dimension = iota
	Height
)

func (d Dimension) String() string {
	if d == Height {
		return "height"
	}
	return "width"
}

type Point struct {
	X int
	Y int
}

// Rect is a screen area in logical pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether inner lies entirely inside r.
func (r Rect) Contains(inner Rect) bool {
	return inner.X >= r.X &&
		inner.Y >= r.Y &&
		inner.X+inner.Width <= r.X+r.Width &&
		inner.Y+inner.Height <= r.Y+r.Height
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Resolve maps a configured length to pixels. "max" takes the display's
// extent, a finite number is used as is (saturated to the int32 range),
// anything else falls back to the built-in default for dim.
func Resolve(l config.Length, display Rect, dim Dimension) int {
	if l.IsMax() {
		if dim == Height {
			return display.Height
		}
		return display.Width
	}
	if n, ok := l.Int(); ok {
		return n
	}
	if dim == Height {
		return DefaultHeight
	}
	return DefaultWidth
}

// ResolveSize resolves both dimensions of cfg.
func ResolveSize(cfg *config.Config, display Rect) (width, height int) {
	return Resolve(cfg.Width, display, Width), Resolve(cfg.Height, display, Height)
}
