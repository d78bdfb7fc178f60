package main

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestCheckerPixels(t *testing.T) {
	c := qt.New(t)
	pixels := checkerPixels(2)

	c.Assert(pixels, qt.DeepEquals, []byte{
		0xe0, 0xe0, 0xe0, 0xff, 0x20, 0x20, 0x20, 0xff,
		0x20, 0x20, 0x20, 0xff, 0xe0, 0xe0, 0xe0, 0xff,
	})
}
