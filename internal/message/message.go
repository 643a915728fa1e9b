// Package message shows static or scrolling text on a chain of 8x8 panels.
package message

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/ledpanel/internal/anim"
	"github.com/coreman2200/ledpanel/internal/matrix"
	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

// DefaultPoll is the scroll tick when nothing changes.
const DefaultPoll = 25 * time.Millisecond

type Options struct {
	Layout rgb.Layout
	// Panels lists each panel's orientation in chain order. Empty means one
	// north-facing panel.
	Panels  []matrix.Orientation
	Poll    time.Duration
	Clock   anim.Clock
	Initial State
	Logger  *zerolog.Logger
}

type Message struct {
	intent *anim.Intent[State]
	engine *anim.Engine[State]
	width  int
}

func New(drv ws2812.Driver, o Options) *Message {
	if len(o.Panels) == 0 {
		o.Panels = []matrix.Orientation{matrix.North}
	}
	if o.Poll <= 0 {
		o.Poll = DefaultPoll
	}
	if o.Initial == nil {
		o.Initial = Off{}
	}
	m := matrix.FromOrientations(o.Panels...)
	intent := anim.NewIntent(o.Initial)
	return &Message{
		intent: intent,
		width:  m.Width(),
		engine: anim.NewEngine[State](intent, newScene(m), drv, anim.Config{
			Name:   "message",
			Poll:   o.Poll,
			Clock:  o.Clock,
			Layout: o.Layout,
			Logger: o.Logger,
		}),
	}
}

// Len is the frame length the driver must accept.
func (m *Message) Len() int {
	if m == nil {
		return 0
	}
	return m.width * matrix.Side
}

func (m *Message) Start(ctx context.Context) error {
	if m == nil {
		return anim.ErrNotInitialized
	}
	return m.engine.Start(ctx)
}

// Update replaces the displayed message. It does not wait for the engine.
func (m *Message) Update(st State) error {
	if m == nil {
		return anim.ErrNotInitialized
	}
	if st == nil {
		st = Off{}
	}
	return m.intent.Set(st)
}

// Current is the most recently requested message. A nil Message shows Off.
func (m *Message) Current() State {
	if m == nil {
		return Off{}
	}
	return m.intent.Peek()
}

// Step runs one engine iteration on the calling goroutine. It must not be
// mixed with Start.
func (m *Message) Step() error {
	if m == nil {
		return anim.ErrNotInitialized
	}
	return m.engine.Step()
}

func (m *Message) Join() error {
	if m == nil {
		return anim.ErrNotInitialized
	}
	return m.engine.Join()
}

func (m *Message) Stats() anim.Stats {
	if m == nil {
		return anim.Stats{}
	}
	return m.engine.Stats()
}

// Err is the failure that stopped the engine, if any.
func (m *Message) Err() error {
	if m == nil {
		return anim.ErrNotInitialized
	}
	return m.intent.Err()
}
