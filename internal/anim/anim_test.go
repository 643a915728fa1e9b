package anim

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

// counterScene shows its intent as the red channel of a single pixel.
type counterScene struct {
	mu      sync.Mutex
	entered []int
	value   int
	tick    bool
	failOn  int
	panicOn int
}

func (s *counterScene) Enter(v int, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == s.panicOn && v != 0 {
		panic("boom")
	}
	if v == s.failOn && v != 0 {
		return errors.New("bad intent")
	}
	s.entered = append(s.entered, v)
	s.value = v
	return nil
}

func (s *counterScene) Advance(now uint64) (bool, error) {
	return s.tick, nil
}

func (s *counterScene) Pixels() iter.Seq[rgb.Color] {
	return func(yield func(rgb.Color) bool) {
		yield(rgb.New(uint8(s.value), 0, 0))
	}
}

func (s *counterScene) Entered() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.entered...)
}

func quiet() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestIntentCoalesces(t *testing.T) {
	in := NewIntent(0)
	v, ok := in.Take()
	require.True(t, ok)
	assert.Equal(t, 0, v)

	_, ok = in.Take()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		require.NoError(t, in.Set(i))
	}
	assert.True(t, in.Wait(context.Background(), time.Second))
	v, ok = in.Take()
	require.True(t, ok)
	assert.Equal(t, 5, v)

	// A single notification covers the burst.
	assert.False(t, in.Wait(context.Background(), 10*time.Millisecond))
}

func TestIntentNilAndPoisoned(t *testing.T) {
	var in *Intent[int]
	assert.ErrorIs(t, in.Set(1), ErrNotInitialized)

	in = NewIntent(0)
	cause := errors.New("scene failed")
	in.Poison(cause)
	assert.ErrorIs(t, in.Set(1), ErrPoisoned)
	assert.Equal(t, cause, in.Err())
}

func TestIntentWaitHonoursContext(t *testing.T) {
	in := NewIntent(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.False(t, in.Wait(ctx, time.Hour))
	assert.Less(t, time.Since(start), time.Second)
}

func TestIntentConcurrentWriters(t *testing.T) {
	in := NewIntent(-1)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = in.Set(w*1000 + i)
			}
		}(w)
	}
	wg.Wait()
	v, ok := in.Take()
	require.True(t, ok)
	assert.Equal(t, 999, v%1000, "last write of some writer wins")
}

func TestEngineStepTransmitsOnChange(t *testing.T) {
	rec := ws2812.NewRecorder(0)
	scene := &counterScene{}
	clock := &ManualClock{}
	e := NewEngine(NewIntent(1), scene, rec, Config{Clock: clock, Layout: rgb.GRB, Logger: quiet()})

	require.NoError(t, e.Step())
	require.NoError(t, e.Step())
	assert.Equal(t, 1, rec.Count(), "an idle scene is not retransmitted")
	last, _ := rec.Last()
	assert.Equal(t, []uint32{rgb.New(1, 0, 0).Pack(rgb.GRB)}, last)

	require.NoError(t, e.Intent().Set(2))
	require.NoError(t, e.Intent().Set(3))
	require.NoError(t, e.Step())
	assert.Equal(t, []int{1, 3}, scene.Entered())
	assert.Equal(t, Stats{Frames: 2, Entered: 2}, e.Stats())
}

func TestEngineRetransmitsDroppedFrame(t *testing.T) {
	rec := ws2812.NewRecorder(0)
	e := NewEngine(NewIntent(7), &counterScene{}, rec, Config{Clock: &ManualClock{}, Logger: quiet()})

	rec.Fail(errors.New("tx busy"))
	require.NoError(t, e.Step(), "driver errors are not fatal")
	assert.Equal(t, uint64(1), e.Stats().Dropped)

	rec.Fail(nil)
	require.NoError(t, e.Step())
	assert.Equal(t, 1, rec.Count())
	require.NoError(t, e.Step())
	assert.Equal(t, 1, rec.Count())
}

func TestEngineRunsUntilJoin(t *testing.T) {
	rec := ws2812.NewRecorder(0)
	scene := &counterScene{}
	e := NewEngine(NewIntent(1), scene, rec, Config{Poll: time.Millisecond, Logger: quiet()})

	assert.ErrorIs(t, e.Join(), ErrNotStarted)
	require.NoError(t, e.Start(context.Background()))
	assert.ErrorIs(t, e.Start(context.Background()), ErrStarted)

	require.NoError(t, e.Intent().Set(9))
	require.Eventually(t, func() bool {
		last, ok := rec.Last()
		return ok && last[0] == rgb.New(9, 0, 0).Pack(rgb.RGB)
	}, time.Second, time.Millisecond)

	require.NoError(t, e.Join())
	assert.ErrorIs(t, e.Join(), ErrJoined)
	assert.ErrorIs(t, e.Start(context.Background()), ErrJoined)
}

func TestEngineSceneErrorPoisons(t *testing.T) {
	e := NewEngine(NewIntent(0), &counterScene{failOn: 4}, ws2812.NewRecorder(1), Config{Poll: time.Millisecond, Logger: quiet()})
	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Intent().Set(4))

	<-e.Done()
	assert.ErrorIs(t, e.Intent().Set(5), ErrPoisoned)
	err := e.Join()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad intent")
}

func TestEnginePanicIsRecovered(t *testing.T) {
	e := NewEngine(NewIntent(0), &counterScene{panicOn: 6}, ws2812.NewRecorder(1), Config{Poll: time.Millisecond, Logger: quiet()})
	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Intent().Set(6))

	<-e.Done()
	assert.ErrorIs(t, e.Intent().Set(1), ErrPoisoned)
	assert.ErrorIs(t, e.Join(), ErrPanicked)
}

func TestEngineNilHandle(t *testing.T) {
	var e *Engine[int]
	assert.ErrorIs(t, e.Start(context.Background()), ErrNotInitialized)
	assert.ErrorIs(t, e.Join(), ErrNotInitialized)
}

func TestManualClock(t *testing.T) {
	c := &ManualClock{}
	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, uint64(1500), c.Millis())
	c.Set(10)
	assert.Equal(t, uint64(10), c.Millis())
}
