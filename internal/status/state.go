package status

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/sequence"
)

// State is the desired look of the status indicator. It is one of Off, On,
// Flash, Wheel or Sequence.
type State interface {
	isState()
	fmt.Stringer
}

type Off struct{}

type On struct {
	Color rgb.Color
}

// Flash alternates Color and off, spending Period/2 in each.
type Flash struct {
	Color  rgb.Color
	Period time.Duration
}

// Wheel walks the hue circle by Step degrees per tick at low brightness.
type Wheel struct {
	Step int
}

// Sequence shows each step's color for its duration, then starts over.
type Sequence struct {
	Steps []sequence.Step[rgb.Color]
}

func (Off) isState()      {}
func (On) isState()       {}
func (Flash) isState()    {}
func (Wheel) isState()    {}
func (Sequence) isState() {}

func (Off) String() string  { return "off" }
func (s On) String() string { return "on(" + s.Color.String() + ")" }
func (s Flash) String() string {
	return fmt.Sprintf("flash(%s,%s)", s.Color, s.Period)
}
func (s Wheel) String() string { return fmt.Sprintf("wheel(%d)", s.Step) }
func (s Sequence) String() string {
	return fmt.Sprintf("sequence(%d steps)", len(s.Steps))
}

// ErrInvalidSpec is returned when a Spec does not describe a State.
var ErrInvalidSpec = errors.New("status: invalid spec")

// Spec is the wire and config form of a State.
type Spec struct {
	Mode     string     `json:"mode" yaml:"mode"`
	Color    string     `json:"color,omitempty" yaml:"color,omitempty"`
	PeriodMS int        `json:"period_ms,omitempty" yaml:"period_ms,omitempty"`
	Step     int        `json:"step,omitempty" yaml:"step,omitempty"`
	Steps    []StepSpec `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type StepSpec struct {
	Color string `json:"color" yaml:"color"`
	MS    int    `json:"ms" yaml:"ms"`
}

// State converts the spec, validating colors and durations.
func (s Spec) State() (State, error) {
	switch strings.ToLower(s.Mode) {
	case "off", "":
		return Off{}, nil
	case "on":
		c, err := rgb.ParseHex(s.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}
		return On{Color: c}, nil
	case "flash":
		c, err := rgb.ParseHex(s.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}
		if s.PeriodMS <= 0 {
			return nil, fmt.Errorf("%w: flash period %dms", ErrInvalidSpec, s.PeriodMS)
		}
		return Flash{Color: c, Period: time.Duration(s.PeriodMS) * time.Millisecond}, nil
	case "wheel":
		return Wheel{Step: s.Step}, nil
	case "sequence":
		steps := make([]sequence.Step[rgb.Color], 0, len(s.Steps))
		for i, st := range s.Steps {
			c, err := rgb.ParseHex(st.Color)
			if err != nil {
				return nil, fmt.Errorf("%w: step %d: %w", ErrInvalidSpec, i, err)
			}
			if st.MS < 0 {
				return nil, fmt.Errorf("%w: step %d duration %dms", ErrInvalidSpec, i, st.MS)
			}
			steps = append(steps, sequence.Step[rgb.Color]{Value: c, Duration: time.Duration(st.MS) * time.Millisecond})
		}
		return Sequence{Steps: steps}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSpec, s.Mode)
	}
}

// SpecOf is the inverse of Spec.State.
func SpecOf(st State) Spec {
	switch v := st.(type) {
	case On:
		return Spec{Mode: "on", Color: v.Color.String()}
	case Flash:
		return Spec{Mode: "flash", Color: v.Color.String(), PeriodMS: int(v.Period / time.Millisecond)}
	case Wheel:
		return Spec{Mode: "wheel", Step: v.Step}
	case Sequence:
		s := Spec{Mode: "sequence"}
		for _, step := range v.Steps {
			s.Steps = append(s.Steps, StepSpec{Color: step.Value.String(), MS: int(step.Duration / time.Millisecond)})
		}
		return s
	default:
		return Spec{Mode: "off"}
	}
}
