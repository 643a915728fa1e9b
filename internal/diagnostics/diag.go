package diagnostics

import (
	"errors"
	"sync"

	"github.com/coreman2200/ledpanel/internal/anim"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Source is an engine the monitor can inspect.
type Source interface {
	Stats() anim.Stats
	Err() error
}

// Monitor turns changes in engine counters into diagnostics.
type Monitor struct {
	mu      sync.Mutex
	sources map[string]Source
	last    map[string]anim.Stats
	failed  map[string]bool
}

func NewMonitor() *Monitor {
	return &Monitor{
		sources: map[string]Source{},
		last:    map[string]anim.Stats{},
		failed:  map[string]bool{},
	}
}

func (m *Monitor) Add(name string, s Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[name] = s
	m.last[name] = s.Stats()
}

// Check compares each source with the previous check.
func (m *Monitor) Check() []Diagnostic {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Diagnostic
	for name, src := range m.sources {
		cur, prev := src.Stats(), m.last[name]
		m.last[name] = cur
		if d := cur.Dropped - prev.Dropped; d > 0 {
			out = append(out, Diagnostic{
				Severity: Warn,
				Code:     "TX.DROPPED",
				Summary:  "Frames dropped on " + name,
				LikelyCauses: []string{
					"SPI port busy or unplugged",
					"SPI clock cannot reach the raster tick rate",
				},
				SuggestedFixes: []string{
					"check spi.dev in config.yaml",
					"lower spi.tick_hz or use driver: nrz",
				},
				Evidence: map[string]any{"chain": name, "dropped": d, "sent": cur.Frames - prev.Frames},
			})
		}
		if err := src.Err(); err != nil && !m.failed[name] {
			m.failed[name] = true
			d := Diagnostic{
				Severity:       Err,
				Code:           "ENGINE.FAILED",
				Summary:        "Engine " + name + " stopped",
				Detail:         err.Error(),
				SuggestedFixes: []string{"restart the service"},
				Evidence:       map[string]any{"chain": name},
			}
			if errors.Is(err, anim.ErrPanicked) {
				d.Code = "ENGINE.PANIC"
			}
			out = append(out, d)
		}
	}
	return out
}
