package matrix

import (
	"fmt"
	"iter"
	"slices"

	"github.com/coreman2200/ledpanel/internal/rgb"
)

// Strip is a one dimensional chain of pixels, such as a single status LED.
type Strip []rgb.Color

func NewStrip(n int) Strip { return make(Strip, n) }

func (s Strip) Len() int { return len(s) }

func (s Strip) Set(i int, c rgb.Color) error {
	if i < 0 || i >= len(s) {
		return fmt.Errorf("%w: index %d on %d pixel strip", ErrOutOfBounds, i, len(s))
	}
	s[i] = c
	return nil
}

func (s Strip) Fill(c rgb.Color) {
	for i := range s {
		s[i] = c
	}
}

func (s Strip) Pixels() iter.Seq[rgb.Color] {
	return slices.Values(s)
}
