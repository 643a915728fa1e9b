package matrix

import (
	"image"

	"github.com/coreman2200/ledpanel/internal/rgb"
)

// Drawing clips: pixels that fall off the surface are dropped without error.

// DrawGlyph paints the set bits of g in c with the glyph's top-left at (x, y).
// Clear bits leave the surface untouched.
func (m *Matrix) DrawGlyph(g Glyph, c rgb.Color, x, y int) {
	for dy, row := range g {
		for dx := 0; dx < Side; dx++ {
			if row&(0x80>>uint(dx)) != 0 {
				m.plot(x+dx, y+dy, c)
			}
		}
	}
}

// DrawChar draws r from the basic font. It reports whether r has a glyph.
func (m *Matrix) DrawChar(r rune, c rgb.Color, x, y int) bool {
	g, ok := Lookup(r)
	if ok {
		m.DrawGlyph(g, c, x, y)
	}
	return ok
}

// DrawString lays s out one 8 pixel cell per rune starting at (x, y).
// Runes without a glyph leave their cell blank.
func (m *Matrix) DrawString(s string, c rgb.Color, x, y int) {
	for _, r := range s {
		if x >= m.Width() {
			return
		}
		if x > -Side {
			m.DrawChar(r, c, x, y)
		}
		x += Side
	}
}

// DrawBitmap paints an 8x8 cell from text rows, one character per pixel.
// Characters missing from colors paint Off. Rows longer than 8 are cut.
func (m *Matrix) DrawBitmap(rows [Side]string, colors map[rune]rgb.Color, x, y int) {
	for dy, row := range rows {
		dx := 0
		for _, ch := range row {
			if dx == Side {
				break
			}
			m.plot(x+dx, y+dy, colors[ch])
			dx++
		}
	}
}

// Transform applies ops, in order, to every pixel of r that lies on the surface.
func (m *Matrix) Transform(r image.Rectangle, ops ...rgb.Transform) {
	r = r.Intersect(image.Rect(0, 0, m.Width(), m.Height()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := &m.panels[x/Side].buf[x%Side+y*Side]
			*p = rgb.Apply(*p, ops...)
		}
	}
}

// Bounds is the whole drawing surface.
func (m *Matrix) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width(), m.Height())
}
