package sequence

import "time"

// Step holds Value for Duration before the next step takes over.
type Step[T any] struct {
	Value    T             `json:"value" yaml:"value"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Program is a scripted list of steps, optionally repeated.
type Program[T any] struct {
	Name  string    `json:"name,omitempty" yaml:"name,omitempty"`
	Loop  bool      `json:"loop,omitempty" yaml:"loop,omitempty"`
	Steps []Step[T] `json:"steps" yaml:"steps"`
}

// Duration is the length of one pass through the program.
func (p Program[T]) Duration() time.Duration {
	var total time.Duration
	for _, s := range p.Steps {
		total += max(s.Duration, 0)
	}
	return total
}

// PlayerState enumerates player states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are callbacks into whatever consumes the program.
type Hooks[T any] struct {
	// Apply is called with each step's value as the step begins.
	Apply func(v T)
	// Done is called when a non-looping program runs off its end.
	Done func()
}
