package ws2812

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClaimed is returned when a transmitter is already owned by another chain.
	ErrClaimed = errors.New("ws2812: transmitter already claimed")
	ErrClosed  = errors.New("ws2812: driver closed")
)

// Driver abstracts an LED chain output sink.
type Driver interface {
	// Write transmits one frame of packed 24-bit words in chain order.
	// It returns after the frame has been handed to the hardware.
	Write(frame []uint32) error
	// Close releases the transmitter.
	Close() error
}

// Claims tracks which transmitters are in use. A transmitter may back one
// chain at a time.
type Claims struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func NewClaims() *Claims {
	return &Claims{taken: map[string]struct{}{}}
}

// Claim reserves name. The returned release func is idempotent.
func (c *Claims) Claim(name string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.taken[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrClaimed, name)
	}
	c.taken[name] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.taken, name)
			c.mu.Unlock()
		})
	}, nil
}

// Held reports whether name is currently claimed.
func (c *Claims) Held(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.taken[name]
	return ok
}

type claimed struct {
	Driver
	release func()
}

func (c *claimed) Close() error {
	defer c.release()
	return c.Driver.Close()
}

// Recorder keeps the frames written to it, for simulation and tests.
type Recorder struct {
	mu     sync.Mutex
	frames [][]uint32
	limit  int
	count  int
	fail   error
	closed bool
}

// NewRecorder keeps at most limit frames (0 keeps every frame).
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Write(frame []uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.fail != nil {
		return r.fail
	}
	r.count++
	r.frames = append(r.frames, append([]uint32(nil), frame...))
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Fail makes subsequent writes return err. A nil err restores normal writes.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

// Count is the number of frames successfully written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *Recorder) Frames() [][]uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]uint32, len(r.frames))
	copy(out, r.frames)
	return out
}

// Last returns the most recent frame.
func (r *Recorder) Last() ([]uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil, false
	}
	return r.frames[len(r.frames)-1], true
}
