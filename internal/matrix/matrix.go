package matrix

import (
	"fmt"
	"iter"

	"github.com/coreman2200/ledpanel/internal/rgb"
)

// Matrix tiles panels left to right into a (8*N)x8 surface. Panel i covers
// columns 8*i through 8*i+7 and is transmitted i-th in the chain.
type Matrix struct {
	panels []*Panel
}

// New builds a matrix from panels in chain order. With no panels it holds a
// single north-facing panel.
func New(panels ...*Panel) *Matrix {
	if len(panels) == 0 {
		panels = []*Panel{NewPanel(North)}
	}
	return &Matrix{panels: panels}
}

// FromOrientations builds one fresh panel per orientation.
func FromOrientations(os ...Orientation) *Matrix {
	panels := make([]*Panel, len(os))
	for i, o := range os {
		panels[i] = NewPanel(o)
	}
	return New(panels...)
}

func (m *Matrix) Width() int  { return Side * len(m.panels) }
func (m *Matrix) Height() int { return Side }

// Len is the number of pixels in a frame.
func (m *Matrix) Len() int { return m.Width() * m.Height() }

func (m *Matrix) Panels() int { return len(m.panels) }

func (m *Matrix) Panel(i int) *Panel { return m.panels[i] }

func (m *Matrix) in(x, y int) bool {
	return x >= 0 && x < m.Width() && y >= 0 && y < Side
}

func (m *Matrix) Set(x, y int, c rgb.Color) error {
	if !m.in(x, y) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d matrix", ErrOutOfBounds, x, y, m.Width(), m.Height())
	}
	m.panels[x/Side].buf[x%Side+y*Side] = c
	return nil
}

func (m *Matrix) Get(x, y int) (rgb.Color, error) {
	if !m.in(x, y) {
		return rgb.Off, fmt.Errorf("%w: (%d,%d) on %dx%d matrix", ErrOutOfBounds, x, y, m.Width(), m.Height())
	}
	return m.panels[x/Side].buf[x%Side+y*Side], nil
}

// plot writes c at (x, y) and drops pixels off the surface.
func (m *Matrix) plot(x, y int, c rgb.Color) {
	if m.in(x, y) {
		m.panels[x/Side].buf[x%Side+y*Side] = c
	}
}

func (m *Matrix) Fill(c rgb.Color) {
	for _, p := range m.panels {
		p.Fill(c)
	}
}

func (m *Matrix) Clear() { m.Fill(rgb.Off) }

// SetOrientation turns every panel to o.
func (m *Matrix) SetOrientation(o Orientation) {
	for _, p := range m.panels {
		p.SetOrientation(o)
	}
}

// Pixels yields panels in chain order, each in its own rotated raster order.
func (m *Matrix) Pixels() iter.Seq[rgb.Color] {
	return func(yield func(rgb.Color) bool) {
		for _, p := range m.panels {
			for c := range p.Pixels() {
				if !yield(c) {
					return
				}
			}
		}
	}
}

// ScrollOffsets sweeps text of textLen cells across this matrix.
func (m *Matrix) ScrollOffsets(textLen int) iter.Seq[int] {
	return ScrollOffsets(m.Width(), textLen)
}
