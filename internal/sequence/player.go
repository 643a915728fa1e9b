package sequence

import (
	"errors"
	"time"
)

// Player runs a Program on a caller-driven timeline and hands each step's
// value to Hooks.Apply as it begins.
type Player[T any] struct {
	State PlayerState

	prog   Program[T]
	now    time.Duration
	cursor *Cursor[T]

	hooks Hooks[T]
}

func NewPlayer[T any](h Hooks[T]) *Player[T] {
	return &Player[T]{
		State: Idle,
		hooks: h,
	}
}

// Load replaces the current program. Resets time and state to Idle.
func (p *Player[T]) Load(prog Program[T]) error {
	if len(prog.Steps) == 0 {
		return errors.New("sequence: program has no steps")
	}
	if prog.Duration() <= 0 {
		return errors.New("sequence: program has zero length")
	}
	p.prog = prog
	p.State = Idle
	p.rewind(0)
	return nil
}

func (p *Player[T]) Program() Program[T] { return p.prog }

// Position is the time into the current pass.
func (p *Player[T]) Position() time.Duration { return p.now }

func (p *Player[T]) rewind(at time.Duration) {
	p.now = at
	p.cursor = NewCursor(p.prog.Steps, 0)
	p.cursor.Advance(uint64(at / time.Millisecond))
}

func (p *Player[T]) apply() {
	if p.hooks.Apply != nil && p.cursor != nil && p.cursor.Len() > 0 {
		p.hooks.Apply(p.cursor.Value())
	}
}

// Start moves to Running and applies the current step.
func (p *Player[T]) Start() {
	if p.State == Running || p.cursor == nil {
		return
	}
	p.State = Running
	p.apply()
}

// Pause pauses playback.
func (p *Player[T]) Pause() {
	if p.State == Running {
		p.State = Paused
	}
}

// Resume resumes playback.
func (p *Player[T]) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop stops and resets to start.
func (p *Player[T]) Stop() {
	p.State = Idle
	if p.cursor != nil {
		p.rewind(0)
	}
}

// Seek jumps to t into the program, clamped to a single pass, and applies
// the step found there.
func (p *Player[T]) Seek(t time.Duration) {
	if p.cursor == nil {
		return
	}
	total := p.prog.Duration()
	t = min(max(t, 0), total-time.Millisecond)
	p.rewind(t)
	p.apply()
}

// Tick advances the program by dt.
func (p *Player[T]) Tick(dt time.Duration) {
	if p.State != Running || dt <= 0 {
		return
	}
	p.now += dt
	changed := p.cursor.Advance(uint64(p.now / time.Millisecond))
	if p.cursor.Cycles() > 0 {
		if !p.prog.Loop {
			p.State = Idle
			p.rewind(0)
			if p.hooks.Done != nil {
				p.hooks.Done()
			}
			return
		}
		p.now %= p.prog.Duration()
		p.cursor = NewCursor(p.prog.Steps, 0)
		p.cursor.Advance(uint64(p.now / time.Millisecond))
	}
	if changed {
		p.apply()
	}
}
