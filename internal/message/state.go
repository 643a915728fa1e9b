package message

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/ledpanel/internal/rgb"
)

// State is what the message panel shows: Off, Static or Scroll.
type State interface {
	isState()
}

type Off struct{}

// Static draws Text once from the top-left corner.
type Static struct {
	Text  string
	Color rgb.Color
}

// Scroll moves Text right to left, one pixel every Rate ticks.
type Scroll struct {
	Text  string
	Color rgb.Color
	Rate  int
}

func (Off) isState()    {}
func (Static) isState() {}
func (Scroll) isState() {}

var ErrInvalidSpec = errors.New("message: invalid spec")

// Spec is the wire and config form of a State.
type Spec struct {
	Mode  string `json:"mode" yaml:"mode"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	Rate  int    `json:"rate,omitempty" yaml:"rate,omitempty"`
}

func (s Spec) State() (State, error) {
	mode := strings.ToLower(s.Mode)
	if mode == "off" || mode == "" {
		return Off{}, nil
	}
	c, err := rgb.ParseHex(s.Color)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	switch mode {
	case "static":
		return Static{Text: s.Text, Color: c}, nil
	case "scroll":
		if s.Rate < 0 {
			return nil, fmt.Errorf("%w: rate %d", ErrInvalidSpec, s.Rate)
		}
		return Scroll{Text: s.Text, Color: c, Rate: s.Rate}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSpec, s.Mode)
	}
}

func SpecOf(st State) Spec {
	switch v := st.(type) {
	case Static:
		return Spec{Mode: "static", Text: v.Text, Color: v.Color.String()}
	case Scroll:
		return Spec{Mode: "scroll", Text: v.Text, Color: v.Color.String(), Rate: v.Rate}
	default:
		return Spec{Mode: "off"}
	}
}
