package config

import (
	"fmt"
	"time"

	"github.com/coreman2200/ledpanel/internal/sequence"
	"github.com/coreman2200/ledpanel/internal/status"
)

// Program converts the demo script into a playable program. An empty script
// yields an empty program and no error.
func (d Demo) Program() (sequence.Program[status.State], error) {
	p := sequence.Program[status.State]{Name: "demo", Loop: d.Loop}
	for i, s := range d.Steps {
		st, err := s.Status.State()
		if err != nil {
			return p, fmt.Errorf("step %d: %w", i, err)
		}
		if s.MS <= 0 {
			return p, fmt.Errorf("step %d: duration %dms", i, s.MS)
		}
		p.Steps = append(p.Steps, sequence.Step[status.State]{Value: st, Duration: time.Duration(s.MS) * time.Millisecond})
	}
	return p, nil
}
