package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/coreman2200/ledpanel/internal/message"
	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/sequence"
	"github.com/coreman2200/ledpanel/internal/status"
)

// Test names a wiring check that can be run from the control socket.
type Test string

const (
	// RGBTest cycles the status chain through red, green and blue so a
	// wrong color order is obvious.
	RGBTest Test = "rgb_channels"
	// OrientationTest draws an asymmetric glyph on every panel.
	OrientationTest Test = "orientation"
	// SweepTest scrolls a solid block across the panel chain.
	SweepTest Test = "sweep"
)

var ErrUnknownTest = errors.New("control: unknown test")

const testStep = 500 * time.Millisecond

// RunTest replaces the current intents with the given check.
func RunTest(t Test, st StatusSink, msg MessageSink) error {
	switch t {
	case RGBTest:
		return st.Update(status.Sequence{Steps: []sequence.Step[rgb.Color]{
			{Value: rgb.Red, Duration: testStep},
			{Value: rgb.Green, Duration: testStep},
			{Value: rgb.Blue, Duration: testStep},
		}})
	case OrientationTest:
		return msg.Update(message.Static{Text: "FFFFFFFF", Color: rgb.White})
	case SweepTest:
		return msg.Update(message.Scroll{Text: "#", Color: rgb.White, Rate: 1})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTest, t)
	}
}
