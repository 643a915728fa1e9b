package anim

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

// Scene renders one kind of intent. Scenes are owned by the engine goroutine.
// A scene that also has a Release method gets it called when the loop exits.
type Scene[T any] interface {
	// Enter starts showing v, discarding all phase from the previous value.
	Enter(v T, now uint64) error
	// Advance moves phase forward to now and reports whether pixels changed.
	Advance(now uint64) (bool, error)
	// Pixels is the current frame in chain order.
	Pixels() iter.Seq[rgb.Color]
}

type Config struct {
	Name string
	// Poll is the longest the loop sleeps without an intent change.
	Poll   time.Duration
	Clock  Clock
	Layout rgb.Layout
	Logger *zerolog.Logger
}

// Stats are frame counters for one engine.
type Stats struct {
	Frames  uint64 `json:"frames"`
	Dropped uint64 `json:"dropped"`
	Entered uint64 `json:"entered"`
}

// Engine repeatedly applies the latest intent to a scene and transmits the
// result on its own goroutine.
type Engine[T any] struct {
	cfg    Config
	intent *Intent[T]
	scene  Scene[T]
	drv    ws2812.Driver
	log    zerolog.Logger

	frame   []uint32
	resend  bool
	frames  atomic.Uint64
	dropped atomic.Uint64
	entered atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	started bool
	joined  bool
}

func NewEngine[T any](intent *Intent[T], scene Scene[T], drv ws2812.Driver, cfg Config) *Engine[T] {
	if cfg.Poll <= 0 {
		cfg.Poll = 50 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = NewSystemClock()
	}
	l := log.Logger
	if cfg.Logger != nil {
		l = *cfg.Logger
	}
	return &Engine[T]{
		cfg:    cfg,
		intent: intent,
		scene:  scene,
		drv:    drv,
		log:    l.With().Str("engine", cfg.Name).Logger(),
	}
}

func (e *Engine[T]) Intent() *Intent[T] { return e.intent }

func (e *Engine[T]) Stats() Stats {
	return Stats{
		Frames:  e.frames.Load(),
		Dropped: e.dropped.Load(),
		Entered: e.entered.Load(),
	}
}

// Step runs one iteration without waiting: enter a pending intent, advance
// the scene and transmit if anything changed or the last frame was dropped.
// A returned error comes from the scene and is fatal to the engine.
func (e *Engine[T]) Step() error {
	now := e.cfg.Clock.Millis()
	changed := false
	if v, ok := e.intent.Take(); ok {
		if err := e.scene.Enter(v, now); err != nil {
			return fmt.Errorf("enter: %w", err)
		}
		e.entered.Add(1)
		changed = true
	}
	dirty, err := e.scene.Advance(now)
	if err != nil {
		return fmt.Errorf("advance: %w", err)
	}
	if !changed && !dirty && !e.resend {
		return nil
	}
	e.frame = e.frame[:0]
	for c := range e.scene.Pixels() {
		e.frame = append(e.frame, c.Pack(e.cfg.Layout))
	}
	if err := e.drv.Write(e.frame); err != nil {
		e.resend = true
		n := e.dropped.Add(1)
		e.log.Warn().Err(err).Uint64("dropped", n).Msg("frame dropped")
		return nil
	}
	e.resend = false
	e.frames.Add(1)
	return nil
}

// Start launches the loop. It runs until ctx is cancelled, Join is called
// or the scene fails.
func (e *Engine[T]) Start(ctx context.Context) error {
	if e == nil {
		return ErrNotInitialized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.joined {
		return ErrJoined
	}
	if e.started {
		return ErrStarted
	}
	e.started = true
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	go e.run(ctx)
	return nil
}

func (e *Engine[T]) run(ctx context.Context) {
	defer close(e.done)
	if r, ok := e.scene.(interface{ Release() }); ok {
		defer r.Release()
	}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPanicked, r)
			e.fail(err)
		}
	}()
	e.log.Debug().Dur("poll", e.cfg.Poll).Msg("engine started")
	for {
		if err := e.Step(); err != nil {
			e.fail(err)
			return
		}
		e.intent.Wait(ctx, e.cfg.Poll)
		if ctx.Err() != nil {
			e.log.Debug().Msg("engine stopped")
			return
		}
	}
}

func (e *Engine[T]) fail(err error) {
	e.intent.Poison(err)
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
	e.log.Error().Err(err).Msg("engine failed")
}

// Join stops the loop and waits for it to exit. It returns the error that
// ended the loop, if the loop failed.
func (e *Engine[T]) Join() error {
	if e == nil {
		return ErrNotInitialized
	}
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	if e.joined {
		e.mu.Unlock()
		return ErrJoined
	}
	e.joined = true
	e.cancel()
	done := e.done
	e.mu.Unlock()

	<-done
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Done is closed when the loop exits. It is nil before Start.
func (e *Engine[T]) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}
