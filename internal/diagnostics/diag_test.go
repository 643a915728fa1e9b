package diagnostics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledpanel/internal/anim"
)

type fakeSource struct {
	stats anim.Stats
	err   error
}

func (f *fakeSource) Stats() anim.Stats { return f.stats }
func (f *fakeSource) Err() error        { return f.err }

func TestMonitorReportsDrops(t *testing.T) {
	src := &fakeSource{stats: anim.Stats{Frames: 10}}
	m := NewMonitor()
	m.Add("message", src)

	assert.Empty(t, m.Check())

	src.stats = anim.Stats{Frames: 12, Dropped: 3}
	ds := m.Check()
	require.Len(t, ds, 1)
	assert.Equal(t, Warn, ds[0].Severity)
	assert.Equal(t, "TX.DROPPED", ds[0].Code)
	assert.Equal(t, uint64(3), ds[0].Evidence["dropped"])

	assert.Empty(t, m.Check())
}

func TestMonitorReportsFailureOnce(t *testing.T) {
	src := &fakeSource{}
	m := NewMonitor()
	m.Add("status", src)

	src.err = fmt.Errorf("%w: boom", anim.ErrPanicked)
	ds := m.Check()
	require.Len(t, ds, 1)
	assert.Equal(t, Err, ds[0].Severity)
	assert.Equal(t, "ENGINE.PANIC", ds[0].Code)
	assert.Contains(t, ds[0].Detail, "boom")

	assert.Empty(t, m.Check())
}
