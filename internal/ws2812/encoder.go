package ws2812

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// ErrTiming is returned when pulses cannot be built at the given tick frequency.
var ErrTiming = errors.New("ws2812: pulse timing unavailable")

// maxTicks is the widest pulse a 15-bit duration field can hold.
const maxTicks = 1<<15 - 1

// BitsPerPixel is the number of protocol bits sent for one packed color.
const BitsPerPixel = 24

// Timing holds the bit protocol pulse widths from the chip datasheet.
type Timing struct {
	T0H, T0L time.Duration
	T1H, T1L time.Duration
	// Reset is the low time after which the chips latch the frame.
	Reset time.Duration
}

var DefaultTiming = Timing{
	T0H:   350 * time.Nanosecond,
	T0L:   800 * time.Nanosecond,
	T1H:   700 * time.Nanosecond,
	T1L:   600 * time.Nanosecond,
	Reset: 280 * time.Microsecond,
}

// Symbol is one protocol bit: High ticks at logic high followed by Low ticks at logic low.
type Symbol struct {
	High, Low uint16
}

// Encoder turns packed 24-bit colors into pulse symbols counted in hardware ticks.
type Encoder struct {
	freq  physic.Frequency
	zero  Symbol
	one   Symbol
	reset int
}

// NewEncoder derives the pulse pairs for t at tick frequency f.
func NewEncoder(f physic.Frequency, t Timing) (*Encoder, error) {
	hz := int64(f / physic.Hertz)
	if hz <= 0 {
		return nil, fmt.Errorf("%w: tick frequency %s", ErrTiming, f)
	}
	e := &Encoder{freq: f}
	var err error
	if e.zero.High, err = pulse(hz, t.T0H); err != nil {
		return nil, err
	}
	if e.zero.Low, err = pulse(hz, t.T0L); err != nil {
		return nil, err
	}
	if e.one.High, err = pulse(hz, t.T1H); err != nil {
		return nil, err
	}
	if e.one.Low, err = pulse(hz, t.T1L); err != nil {
		return nil, err
	}
	e.reset = int(ticks(hz, t.Reset))
	return e, nil
}

func ticks(hz int64, d time.Duration) int64 {
	return (d.Nanoseconds()*hz + int64(time.Second/2)) / int64(time.Second)
}

func pulse(hz int64, d time.Duration) (uint16, error) {
	n := ticks(hz, d)
	if n <= 0 || n > maxTicks {
		return 0, fmt.Errorf("%w: %s is %d ticks at %dHz", ErrTiming, d, n, hz)
	}
	return uint16(n), nil
}

func (e *Encoder) Frequency() physic.Frequency { return e.freq }

// ResetTicks is the number of low ticks that latch a frame.
func (e *Encoder) ResetTicks() int { return e.reset }

// Symbol returns the pulse pair for one bit value.
func (e *Encoder) Symbol(bit bool) Symbol {
	if bit {
		return e.one
	}
	return e.zero
}

// Encode appends BitsPerPixel symbols per word to dst, most significant bit first.
func (e *Encoder) Encode(dst []Symbol, words []uint32) []Symbol {
	for _, w := range words {
		for i := BitsPerPixel - 1; i >= 0; i-- {
			dst = append(dst, e.Symbol(w&(1<<uint(i)) != 0))
		}
	}
	return dst
}
