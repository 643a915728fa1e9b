package main

import (
	"iter"
	"time"

	"github.com/coreman2200/ledpanel/internal/matrix"
	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/sequence"
)

var arrow = [matrix.Side]string{
	"...W....",
	"..WWW...",
	".W.W.W..",
	"W..W..W.",
	"...W....",
	"...W....",
	"...R....",
	"...R....",
}

// rotateScene draws an arrow on every panel and turns each panel a quarter
// every period, which makes a wrong orientation list easy to spot.
type rotateScene struct {
	m      *matrix.Matrix
	period uint64
	last   uint64
}

func newRotateScene(m *matrix.Matrix, period time.Duration) *rotateScene {
	return &rotateScene{m: m, period: max(uint64(period/time.Millisecond), 1)}
}

func (s *rotateScene) Enter(_ int, now uint64) error {
	s.m.Clear()
	colors := map[rune]rgb.Color{'W': rgb.White, 'R': rgb.Red}
	for i := 0; i < s.m.Panels(); i++ {
		s.m.DrawBitmap(arrow, colors, i*matrix.Side, 0)
	}
	s.last = now
	return nil
}

func (s *rotateScene) Advance(now uint64) (bool, error) {
	n := (now - s.last) / s.period
	if n == 0 {
		return false, nil
	}
	s.last += n * s.period
	for i := 0; i < s.m.Panels(); i++ {
		p := s.m.Panel(i)
		o := p.Orientation()
		for range n % 4 {
			o = o.Next()
		}
		p.SetOrientation(o)
	}
	return n%4 != 0, nil
}

func (s *rotateScene) Pixels() iter.Seq[rgb.Color] { return s.m.Pixels() }

// fadeScene breathes text in and out along an envelope while slowly
// walking its hue. Every pass rotates the text color one channel, and
// channels that fade below residue are cut to black.
type fadeScene struct {
	m     *matrix.Matrix
	text  string
	color rgb.Color
	env   sequence.Envelope
	start uint64
}

// residue is the fraction of full scale below which a faded channel is
// cleared.
const residue = 0.05

func newFadeScene(m *matrix.Matrix, text string, c rgb.Color, period time.Duration) *fadeScene {
	return &fadeScene{m: m, text: text, color: c, env: sequence.Envelope{Keys: []sequence.Keyframe{
		{At: 0, V: 0, Ease: "smooth"},
		{At: period / 2, V: 1, Ease: "smooth"},
		{At: period, V: 0},
	}}}
}

func (s *fadeScene) Enter(_ int, now uint64) error {
	s.start = now
	return nil
}

func (s *fadeScene) Advance(now uint64) (bool, error) {
	t := time.Duration(now-s.start) * time.Millisecond
	pass := 0
	if end := s.env.End(); end > 0 {
		pass = int(t / end)
		t %= end
	}
	level, err := rgb.Intensity(s.env.Eval(t))
	if err != nil {
		return false, err
	}
	clean, err := rgb.FillThreshold(rgb.Off, residue)
	if err != nil {
		return false, err
	}
	c := s.color
	for range pass % 3 {
		c = rgb.Apply(c, rgb.Rotate())
	}
	s.m.Clear()
	s.m.DrawString(s.text, c, 0, 0)
	s.m.Transform(s.m.Bounds(), rgb.HueRotate(float64(t.Milliseconds()%360)), level, clean)
	return true, nil
}

func (s *fadeScene) Pixels() iter.Seq[rgb.Color] { return s.m.Pixels() }
