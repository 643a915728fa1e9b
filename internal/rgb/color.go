package rgb

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrOutOfRange is returned for HSV components or transform factors outside their domain.
var ErrOutOfRange = errors.New("rgb: value out of range")

// Color is an 8-bit per channel RGB triple. It is a value type; every
// operation returns a new Color.
type Color struct {
	R, G, B uint8
}

var (
	Off   = Color{}
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Blue  = Color{B: 255}
	White = Color{R: 255, G: 255, B: 255}
)

func New(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

// FromHSV converts hue (0..360 degrees), saturation and value (0..100 percent).
func FromHSV(h, s, v int) (Color, error) {
	if h < 0 || h > 360 || s < 0 || s > 100 || v < 0 || v > 100 {
		return Off, fmt.Errorf("%w: hsv(%d,%d,%d)", ErrOutOfRange, h, s, v)
	}
	if h == 360 {
		h = 0
	}
	r, g, b := colorful.Hsv(float64(h), float64(s)/100, float64(v)/100).RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// ParseHex accepts "#rrggbb" (or the short "#rgb" form).
func ParseHex(s string) (Color, error) {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Off, fmt.Errorf("rgb: parse %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// IsOff reports whether every channel is zero.
func (c Color) IsOff() bool { return c == Off }

// RGBA implements color.Color with an opaque alpha.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Scale multiplies each channel by f, truncating. f is clamped to [0,1];
// use Intensity for a checked transform.
func (c Color) Scale(f float64) Color {
	f = math.Max(0, math.Min(1, f))
	return Color{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Rotate moves each channel one position along r -> g -> b -> r.
func (c Color) Rotate() Color {
	return Color{R: c.B, G: c.R, B: c.G}
}

// HueRotate shifts the hue by deg degrees keeping saturation and value.
func (c Color) HueRotate(deg float64) Color {
	h, s, v := c.colorful().Hsv()
	h = math.Mod(h+deg, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, s, v).RGB255()
	return Color{R: r, G: g, B: b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
