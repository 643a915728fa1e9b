package status

import (
	"fmt"
	"iter"
	"time"

	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/sequence"
)

// Canvas is the pixel surface the status indicator paints. matrix.Strip and
// *matrix.Matrix both qualify.
type Canvas interface {
	Fill(c rgb.Color)
	Pixels() iter.Seq[rgb.Color]
	Len() int
}

// Wheel colors are drawn at full saturation and this value.
const wheelValue = 20

type scene struct {
	canvas Canvas
	state  State

	// flash
	half  uint64
	start uint64
	lit   bool
	// wheel
	hue int
	// sequence
	cursor *sequence.Cursor[rgb.Color]
}

func newScene(c Canvas) *scene {
	return &scene{canvas: c, state: Off{}}
}

func (s *scene) Enter(st State, now uint64) error {
	s.state = st
	s.cursor = nil
	switch v := st.(type) {
	case On:
		s.canvas.Fill(v.Color)
	case Flash:
		s.half = max(uint64(v.Period/time.Millisecond)/2, 1)
		s.start = now
		s.lit = true
		s.canvas.Fill(v.Color)
	case Wheel:
		s.hue = 0
		return s.paintWheel()
	case Sequence:
		if len(v.Steps) == 0 {
			s.canvas.Fill(rgb.Off)
			return nil
		}
		s.cursor = sequence.NewCursor(v.Steps, now)
		s.canvas.Fill(s.cursor.Value())
	case Off, nil:
		s.state = Off{}
		s.canvas.Fill(rgb.Off)
	default:
		return fmt.Errorf("status: unknown state %T", st)
	}
	return nil
}

func (s *scene) Advance(now uint64) (bool, error) {
	switch v := s.state.(type) {
	case Flash:
		if now < s.start {
			return false, nil
		}
		n := (now - s.start) / s.half
		if n == 0 {
			return false, nil
		}
		s.start += n * s.half
		if n%2 == 0 {
			return false, nil
		}
		s.lit = !s.lit
		if s.lit {
			s.canvas.Fill(v.Color)
		} else {
			s.canvas.Fill(rgb.Off)
		}
		return true, nil
	case Wheel:
		s.hue = ((s.hue+v.Step)%360 + 360) % 360
		return true, s.paintWheel()
	case Sequence:
		if s.cursor == nil || !s.cursor.Advance(now) {
			return false, nil
		}
		s.canvas.Fill(s.cursor.Value())
		return true, nil
	default:
		return false, nil
	}
}

func (s *scene) paintWheel() error {
	c, err := rgb.FromHSV(s.hue, 100, wheelValue)
	if err != nil {
		return err
	}
	s.canvas.Fill(c)
	return nil
}

func (s *scene) Pixels() iter.Seq[rgb.Color] { return s.canvas.Pixels() }
