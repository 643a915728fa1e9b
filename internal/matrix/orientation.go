package matrix

import (
	"fmt"
	"strings"
)

// Side is the edge length of a square panel.
const Side = 8

// Orientation is the rotation applied when a panel is read out. It never
// changes the stored pixels.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

var orientationNames = [...]string{"north", "east", "south", "west"}

func (o Orientation) String() string {
	if o < North || o > West {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

func ParseOrientation(s string) (Orientation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range orientationNames {
		if s == n || (len(s) == 1 && s[0] == n[0]) {
			return Orientation(i), nil
		}
	}
	return North, fmt.Errorf("matrix: unknown orientation %q", s)
}

// Map returns where the stored pixel (x, y) appears in the rotated raster.
func (o Orientation) Map(x, y int) (int, int) {
	switch o {
	case East:
		return y, Side - 1 - x
	case South:
		return Side - 1 - x, Side - 1 - y
	case West:
		return Side - 1 - y, x
	default:
		return x, y
	}
}

// Inverse is the orientation that undoes o.
func (o Orientation) Inverse() Orientation {
	switch o {
	case East:
		return West
	case West:
		return East
	default:
		return o
	}
}

// Next is o turned a further quarter.
func (o Orientation) Next() Orientation {
	return (o + 1) % 4
}
