package ov7670

import (
	"math/rand"

	"github.com/pkg/errors"
)

// ErrUnknownPattern is returned for a frame pattern that cannot be generated.
var ErrUnknownPattern = errors.New("unknown frame pattern")

// PatternRandom fills every colour plane with uniform random values.
const PatternRandom = "random"

// A Frame is one RGB image, indexed by row and column.
type Frame struct {
	width, height int
	pixels        [][3]uint64
}

// NewFrame generates a frame of the given pattern. The colour planes have
// the given bit depths.
func NewFrame(
	pattern string,
	width, height int,
	depths [3]int,
	rng *rand.Rand,
) (*Frame, error) {
	if pattern != PatternRandom {
		return nil, errors.Wrapf(ErrUnknownPattern, "%q", pattern)
	}

	f := &Frame{
		width:  width,
		height: height,
		pixels: make([][3]uint64, width*height),
	}

	for i := range f.pixels {
		for plane, depth := range depths {
			f.pixels[i][plane] = uint64(rng.Int63n(int64(1) << depth))
		}
	}

	return f, nil
}

// Width returns the number of pixels in a line.
func (f *Frame) Width() int {
	return f.width
}

// Height returns the number of lines.
func (f *Frame) Height() int {
	return f.height
}

// Pixel returns the red, green and blue values at column x of line y.
func (f *Frame) Pixel(x, y int) [3]uint64 {
	return f.pixels[y*f.width+x]
}

// RGB565 packs a pixel into the two bytes the sensor sends for it.
func RGB565(p [3]uint64) (first, second uint8) {
	first = uint8(p[0]<<3 | p[1]>>3)
	second = uint8((p[1]&0x7)<<5 | p[2])

	return first, second
}
