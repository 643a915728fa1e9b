package ws2812

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/coreman2200/ledpanel/internal/rgb"
)

// Kind selects the transmitter backing a chain.
type Kind string

const (
	KindSPI     Kind = "spi"
	KindNRZ     Kind = "nrz"
	KindConsole Kind = "console"
	KindSim     Kind = "sim"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSPI, KindNRZ, KindConsole, KindSim:
		return k, nil
	case "":
		return KindSPI, nil
	default:
		return "", fmt.Errorf("ws2812: unknown driver %q", s)
	}
}

type Options struct {
	Kind Kind
	// Port is the spireg name ("" picks the first registered port).
	Port   string
	Pixels int
	Layout rgb.Layout
	// Tick is the raster frequency for KindSPI. Zero means DefaultTick.
	Tick   physic.Frequency
	Timing Timing
}

// Open claims the transmitter named by o and returns a driver bound to it.
// Closing the driver releases the claim. SPI and NRZ chains claim the
// resolved SPI port, so one port can never back two chains whatever driver
// each asks for.
func Open(claims *Claims, o Options) (Driver, error) {
	name := string(o.Kind) + ":" + o.Port
	if o.Kind == KindSPI || o.Kind == KindNRZ || o.Kind == "" {
		port, err := resolvePort(o.Port)
		if err != nil {
			return nil, err
		}
		o.Port = port
		name = "spi-port:" + port
	}
	release, err := claims.Claim(name)
	if err != nil {
		return nil, err
	}
	d, err := open(o)
	if err != nil {
		release()
		return nil, err
	}
	return &claimed{Driver: d, release: release}, nil
}

func open(o Options) (Driver, error) {
	switch o.Kind {
	case KindConsole:
		return NewConsole(o.Pixels, o.Layout)
	case KindSim:
		return NewRecorder(1), nil
	case KindNRZ:
		p, err := openPort(o.Port)
		if err != nil {
			return nil, err
		}
		d, err := NewNRZ(p, o.Pixels)
		if err != nil {
			p.Close()
			return nil, err
		}
		return d, nil
	case KindSPI, "":
		t := o.Timing
		if t == (Timing{}) {
			t = DefaultTiming
		}
		tick := o.Tick
		if tick == 0 {
			tick = DefaultTick
		}
		enc, err := NewEncoder(tick, t)
		if err != nil {
			return nil, err
		}
		p, err := openPort(o.Port)
		if err != nil {
			return nil, err
		}
		d, err := NewSPI(p, enc, o.Pixels)
		if err != nil {
			p.Close()
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("ws2812: unknown driver %q", o.Kind)
	}
}

func openPort(name string) (spi.PortCloser, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("ws2812: open spi port %q: %w", name, err)
	}
	return p, nil
}

// resolvePort maps an alias, a port number or "" to the registered port
// name. "" picks the port spireg opens by default: the lowest number, or
// the first name when no port is numbered.
func resolvePort(name string) (string, error) {
	refs := spireg.All()
	if len(refs) == 0 {
		return "", fmt.Errorf("ws2812: no spi port registered")
	}
	if name == "" {
		best := refs[0]
		for _, r := range refs {
			if r.Number >= 0 && (best.Number < 0 || r.Number < best.Number) {
				best = r
			}
		}
		return best.Name, nil
	}
	for _, r := range refs {
		if r.Name == name || slices.Contains(r.Aliases, name) {
			return r.Name, nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil {
		for _, r := range refs {
			if r.Number == n {
				return r.Name, nil
			}
		}
	}
	return "", fmt.Errorf("ws2812: spi port %q not found", name)
}
