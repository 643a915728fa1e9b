package rgb

import "fmt"

// Transform maps one color to another. Transforms never mutate their input.
type Transform func(Color) Color

// Intensity scales every channel by f in [0,1].
func Intensity(f float64) (Transform, error) {
	if f < 0 || f > 1 {
		return nil, fmt.Errorf("%w: intensity %v", ErrOutOfRange, f)
	}
	return func(c Color) Color { return c.Scale(f) }, nil
}

// Rotate returns the channel rotation transform.
func Rotate() Transform {
	return Color.Rotate
}

func HueRotate(deg float64) Transform {
	return func(c Color) Color { return c.HueRotate(deg) }
}

// FillThreshold replaces each channel below threshold*255 with the matching
// channel of replacement. It cleans up near-black residue left by repeated
// Intensity passes.
func FillThreshold(replacement Color, threshold float64) (Transform, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v", ErrOutOfRange, threshold)
	}
	floor := threshold * 255
	fill := func(v, r uint8) uint8 {
		if float64(v) < floor {
			return r
		}
		return v
	}
	return func(c Color) Color {
		return Color{
			R: fill(c.R, replacement.R),
			G: fill(c.G, replacement.G),
			B: fill(c.B, replacement.B),
		}
	}, nil
}

// Apply runs ops over c in order.
func Apply(c Color, ops ...Transform) Color {
	for _, op := range ops {
		if op != nil {
			c = op(c)
		}
	}
	return c
}
