// package common contains plain value types shared by the frame manager, its backends and the windowing layer.
// They are not interface-wrapped structs, just small data types passed by value.
package common

import "fmt"

// Color is a linear RGBA color with components in the [0, 1] range.
// The float64 layout matches the clear values expected by the GPU backends.
type Color struct {
	R, G, B, A float64
}

// DefaultClearColor is the dark teal the back buffer is cleared to when no color is given.
var DefaultClearColor = Color{R: 0.0, G: 0.125, B: 0.1, A: 1.0}

// Size is a surface or render target extent in pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether the size has no drawable area.
// Minimized windows report a zero-area framebuffer.
//
// Returns:
//   - bool: true if either dimension is zero or negative
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Aspect returns the width/height ratio of the size.
// Returns 0 for an empty size rather than dividing by zero.
//
// Returns:
//   - float32: the aspect ratio, or 0 if the size is empty
func (s Size) Aspect() float32 {
	if s.Empty() {
		return 0
	}
	return float32(s.Width) / float32(s.Height)
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
