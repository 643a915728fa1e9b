// Package status drives a small indicator (usually a single LED) from the
// latest status State.
package status

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/ledpanel/internal/anim"
	"github.com/coreman2200/ledpanel/internal/matrix"
	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

// DefaultPoll is how often the indicator refreshes when nothing changes.
const DefaultPoll = 50 * time.Millisecond

type Options struct {
	Layout rgb.Layout
	// Canvas defaults to a one pixel strip.
	Canvas  Canvas
	Poll    time.Duration
	Clock   anim.Clock
	Initial State
	Logger  *zerolog.Logger
}

// Status owns one indicator chain and its engine.
type Status struct {
	intent *anim.Intent[State]
	engine *anim.Engine[State]
}

// New wires drv to a status engine. The engine is not running until Start.
func New(drv ws2812.Driver, o Options) *Status {
	if o.Canvas == nil {
		o.Canvas = matrix.NewStrip(1)
	}
	if o.Poll <= 0 {
		o.Poll = DefaultPoll
	}
	if o.Initial == nil {
		o.Initial = Off{}
	}
	intent := anim.NewIntent(o.Initial)
	return &Status{
		intent: intent,
		engine: anim.NewEngine[State](intent, newScene(o.Canvas), drv, anim.Config{
			Name:   "status",
			Poll:   o.Poll,
			Clock:  o.Clock,
			Layout: o.Layout,
			Logger: o.Logger,
		}),
	}
}

func (s *Status) Start(ctx context.Context) error {
	if s == nil {
		return anim.ErrNotInitialized
	}
	return s.engine.Start(ctx)
}

// Update replaces the desired state. It does not wait for the engine.
func (s *Status) Update(st State) error {
	if s == nil {
		return anim.ErrNotInitialized
	}
	if st == nil {
		st = Off{}
	}
	return s.intent.Set(st)
}

// Current is the most recently requested state. A nil Status shows Off.
func (s *Status) Current() State {
	if s == nil {
		return Off{}
	}
	return s.intent.Peek()
}

// Step runs one engine iteration on the calling goroutine. It must not be
// mixed with Start.
func (s *Status) Step() error {
	if s == nil {
		return anim.ErrNotInitialized
	}
	return s.engine.Step()
}

func (s *Status) Join() error {
	if s == nil {
		return anim.ErrNotInitialized
	}
	return s.engine.Join()
}

func (s *Status) Stats() anim.Stats {
	if s == nil {
		return anim.Stats{}
	}
	return s.engine.Stats()
}

// Err is the failure that stopped the engine, if any.
func (s *Status) Err() error {
	if s == nil {
		return anim.ErrNotInitialized
	}
	return s.intent.Err()
}
