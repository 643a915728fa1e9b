package matrix

import (
	"errors"
	"fmt"
	"iter"

	"github.com/coreman2200/ledpanel/internal/rgb"
)

// ErrOutOfBounds is returned by Set and Get for coordinates off the surface.
var ErrOutOfBounds = errors.New("matrix: coordinate out of bounds")

// Panel is one 8x8 tile: a row-major pixel buffer and its own orientation.
type Panel struct {
	buf    [Side * Side]rgb.Color
	orient Orientation
}

func NewPanel(o Orientation) *Panel {
	return &Panel{orient: o}
}

func (p *Panel) Orientation() Orientation { return p.orient }

func (p *Panel) SetOrientation(o Orientation) { p.orient = o }

func inPanel(x, y int) bool {
	return x >= 0 && x < Side && y >= 0 && y < Side
}

func (p *Panel) Set(x, y int, c rgb.Color) error {
	if !inPanel(x, y) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d panel", ErrOutOfBounds, x, y, Side, Side)
	}
	p.buf[x+y*Side] = c
	return nil
}

func (p *Panel) Get(x, y int) (rgb.Color, error) {
	if !inPanel(x, y) {
		return rgb.Off, fmt.Errorf("%w: (%d,%d) on %dx%d panel", ErrOutOfBounds, x, y, Side, Side)
	}
	return p.buf[x+y*Side], nil
}

func (p *Panel) Fill(c rgb.Color) {
	for i := range p.buf {
		p.buf[i] = c
	}
}

func (p *Panel) Clear() { p.Fill(rgb.Off) }

func (p *Panel) Len() int { return len(p.buf) }

// Pixels yields the panel in rotated raster order: position (x, y) of the
// output holds the stored pixel that the orientation maps there.
func (p *Panel) Pixels() iter.Seq[rgb.Color] {
	return func(yield func(rgb.Color) bool) {
		inv := p.orient.Inverse()
		for y := 0; y < Side; y++ {
			for x := 0; x < Side; x++ {
				sx, sy := inv.Map(x, y)
				if !yield(p.buf[sx+sy*Side]) {
					return
				}
			}
		}
	}
}
