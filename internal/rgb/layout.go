package rgb

import (
	"fmt"
	"strings"
)

// Layout is the channel order a chip variant expects on the wire.
type Layout int

const (
	RGB Layout = iota
	GRB
)

var layoutNames = map[string]Layout{
	"RGB": RGB,
	"GRB": GRB,
}

func ParseLayout(s string) (Layout, error) {
	if l, ok := layoutNames[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return RGB, fmt.Errorf("rgb: unknown color order %q", s)
}

func (l Layout) String() string {
	switch l {
	case GRB:
		return "GRB"
	default:
		return "RGB"
	}
}

// Pack returns the 24-bit word in transmission order, first channel in bits 23..16.
func (c Color) Pack(l Layout) uint32 {
	switch l {
	case GRB:
		return uint32(c.G)<<16 | uint32(c.R)<<8 | uint32(c.B)
	default:
		return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	}
}

// Unpack is the inverse of Pack. Bits above 23 are ignored.
func Unpack(w uint32, l Layout) Color {
	hi, mid, lo := uint8(w>>16), uint8(w>>8), uint8(w)
	switch l {
	case GRB:
		return Color{R: mid, G: hi, B: lo}
	default:
		return Color{R: hi, G: mid, B: lo}
	}
}
