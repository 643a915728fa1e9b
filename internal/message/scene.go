package message

import (
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/coreman2200/ledpanel/internal/matrix"
	"github.com/coreman2200/ledpanel/internal/rgb"
)

type scene struct {
	m     *matrix.Matrix
	state State

	ticks int
	next  func() (int, bool)
	stop  func()
}

func newScene(m *matrix.Matrix) *scene {
	return &scene{m: m, state: Off{}}
}

// Release stops the pending scroll iterator.
func (s *scene) Release() {
	if s.stop != nil {
		s.stop()
		s.next, s.stop = nil, nil
	}
}

// restart pulls a fresh pass of offsets for the current text.
func (s *scene) restart(text string) {
	s.Release()
	s.next, s.stop = iter.Pull(s.m.ScrollOffsets(utf8.RuneCountInString(text)))
}

func (s *scene) Enter(st State, now uint64) error {
	s.Release()
	s.state = st
	s.m.Clear()
	switch v := st.(type) {
	case Static:
		s.m.DrawString(v.Text, v.Color, 0, 0)
	case Scroll:
		s.ticks = 0
		s.restart(v.Text)
	case Off, nil:
		s.state = Off{}
	default:
		return fmt.Errorf("message: unknown state %T", st)
	}
	return nil
}

func (s *scene) Advance(now uint64) (bool, error) {
	v, ok := s.state.(Scroll)
	if !ok {
		return false, nil
	}
	rate := max(v.Rate, 1)
	step := s.ticks%rate == 0
	s.ticks++
	if !step {
		return false, nil
	}
	x, ok := s.next()
	if !ok {
		s.restart(v.Text)
		x, _ = s.next()
	}
	s.m.Clear()
	s.m.DrawString(v.Text, v.Color, x, 0)
	return true, nil
}

func (s *scene) Pixels() iter.Seq[rgb.Color] { return s.m.Pixels() }
