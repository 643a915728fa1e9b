package ws2812_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/ledpanel/internal/rgb"
	. "github.com/coreman2200/ledpanel/internal/ws2812"
)

func TestEncoderTicksAt10MHz(t *testing.T) {
	e, err := NewEncoder(10*physic.MegaHertz, DefaultTiming)
	require.NoError(t, err)

	assert.Equal(t, Symbol{High: 4, Low: 8}, e.Symbol(false))
	assert.Equal(t, Symbol{High: 7, Low: 6}, e.Symbol(true))
	assert.Equal(t, 2800, e.ResetTicks())
}

func TestEncoderTicksAtDefaultTick(t *testing.T) {
	e, err := NewEncoder(DefaultTick, DefaultTiming)
	require.NoError(t, err)

	assert.Equal(t, Symbol{High: 3, Low: 6}, e.Symbol(false))
	assert.Equal(t, Symbol{High: 6, Low: 5}, e.Symbol(true))
}

func TestEncoderRejectsUnusableFrequencies(t *testing.T) {
	_, err := NewEncoder(0, DefaultTiming)
	assert.ErrorIs(t, err, ErrTiming)

	// 350ns rounds to zero ticks at 1MHz.
	_, err = NewEncoder(physic.MegaHertz, DefaultTiming)
	assert.ErrorIs(t, err, ErrTiming)

	_, err = NewEncoder(100*physic.GigaHertz, DefaultTiming)
	assert.ErrorIs(t, err, ErrTiming)
}

func TestEncodeIsMSBFirst(t *testing.T) {
	e, err := NewEncoder(10*physic.MegaHertz, DefaultTiming)
	require.NoError(t, err)

	got := e.Encode(nil, []uint32{0x800001, 0})
	require.Len(t, got, 2*BitsPerPixel)
	assert.Equal(t, e.Symbol(true), got[0])
	for i := 1; i < 23; i++ {
		assert.Equal(t, e.Symbol(false), got[i], "bit %d", i)
	}
	assert.Equal(t, e.Symbol(true), got[23])
	for _, s := range got[24:] {
		assert.Equal(t, e.Symbol(false), s)
	}

	// Bits above 23 are not transmitted.
	assert.Equal(t, e.Encode(nil, []uint32{0x123456}), e.Encode(nil, []uint32{0xff123456}))
}

// pack turns a string of '0'/'1' into MSB-first bytes.
func pack(bits string) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b == '1' {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}

func TestSPIRastersOneTickPerBit(t *testing.T) {
	var buf bytes.Buffer
	e, err := NewEncoder(10*physic.MegaHertz, DefaultTiming)
	require.NoError(t, err)
	d, err := NewSPI(spitest.NewRecordRaw(&buf), e, 1)
	require.NoError(t, err)

	require.NoError(t, d.Write([]uint32{0x800000}))

	one := strings.Repeat("1", 7) + strings.Repeat("0", 6)
	zero := strings.Repeat("1", 4) + strings.Repeat("0", 8)
	want := one + strings.Repeat(zero, 23) + strings.Repeat("0", 2800)
	assert.Equal(t, pack(want), buf.Bytes())
}

func TestSPIRejectsWrongFrameLength(t *testing.T) {
	var buf bytes.Buffer
	e, err := NewEncoder(DefaultTick, DefaultTiming)
	require.NoError(t, err)
	d, err := NewSPI(spitest.NewRecordRaw(&buf), e, 4)
	require.NoError(t, err)

	assert.Error(t, d.Write([]uint32{1, 2}))
	assert.Zero(t, buf.Len())

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Write(make([]uint32, 4)), ErrClosed)
}

func TestSPIFramesAreIndependent(t *testing.T) {
	var buf bytes.Buffer
	e, err := NewEncoder(DefaultTick, DefaultTiming)
	require.NoError(t, err)
	d, err := NewSPI(spitest.NewRecordRaw(&buf), e, 2)
	require.NoError(t, err)

	frame := []uint32{rgb.White.Pack(rgb.GRB), 0}
	require.NoError(t, d.Write(frame))
	first := append([]byte(nil), buf.Bytes()...)
	buf.Reset()
	require.NoError(t, d.Write([]uint32{0, 0}))
	buf.Reset()
	require.NoError(t, d.Write(frame))
	assert.Equal(t, first, buf.Bytes())
}

func TestNRZWritesThroughNrzled(t *testing.T) {
	var buf bytes.Buffer
	d, err := NewNRZ(spitest.NewRecordRaw(&buf), 2)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, d.Write([]uint32{rgb.Red.Pack(rgb.GRB), rgb.Blue.Pack(rgb.GRB)}))
	assert.NotZero(t, buf.Len())
	assert.Error(t, d.Write([]uint32{0}))
}

// nrzWire returns the first 9 raster bytes nrzled sends for one pixel.
func nrzWire(t *testing.T, c rgb.Color, l rgb.Layout) []byte {
	t.Helper()
	var buf bytes.Buffer
	d, err := NewNRZ(spitest.NewRecordRaw(&buf), 1)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, d.Write([]uint32{c.Pack(l)}))
	require.GreaterOrEqual(t, buf.Len(), 9)
	return append([]byte(nil), buf.Bytes()[:9]...)
}

func TestNRZKeepsChannelOrder(t *testing.T) {
	// Each protocol byte becomes 3 raster bytes. Red on an RGB chip is
	// full, empty, empty on the wire.
	rgbRed := nrzWire(t, rgb.Red, rgb.RGB)
	full, empty := rgbRed[0:3], rgbRed[3:6]
	assert.NotEqual(t, full, empty)
	assert.Equal(t, empty, rgbRed[6:9])

	// A GRB chip gets green first, so red is empty, full, empty.
	grbRed := nrzWire(t, rgb.Red, rgb.GRB)
	assert.Equal(t, empty, grbRed[0:3])
	assert.Equal(t, full, grbRed[3:6])
	assert.Equal(t, empty, grbRed[6:9])

	assert.Equal(t, rgbRed, nrzWire(t, rgb.Green, rgb.GRB))
}

// registerPort adds a recording port to spireg for the test's lifetime.
func registerPort(t *testing.T, name string, number int) {
	t.Helper()
	require.NoError(t, spireg.Register(name, []string{strings.ToLower(name)}, number, func() (spi.PortCloser, error) {
		return spitest.NewRecordRaw(&bytes.Buffer{}), nil
	}))
	t.Cleanup(func() { _ = spireg.Unregister(name) })
}

func TestOpenClaimsThePortAcrossDrivers(t *testing.T) {
	registerPort(t, "LEDTEST0", 3)
	c := NewClaims()

	d, err := Open(c, Options{Kind: KindSPI, Port: "LEDTEST0", Pixels: 1})
	require.NoError(t, err)
	assert.True(t, c.Held("spi-port:LEDTEST0"))

	for _, port := range []string{"LEDTEST0", "ledtest0", "3", ""} {
		_, err = Open(c, Options{Kind: KindNRZ, Port: port, Pixels: 1})
		assert.ErrorIs(t, err, ErrClaimed, "port %q", port)
		_, err = Open(c, Options{Kind: KindSPI, Port: port, Pixels: 1})
		assert.ErrorIs(t, err, ErrClaimed, "port %q", port)
	}

	require.NoError(t, d.Close())
	d, err = Open(c, Options{Kind: KindNRZ, Port: "", Pixels: 1})
	require.NoError(t, err)
	assert.True(t, c.Held("spi-port:LEDTEST0"))
	require.NoError(t, d.Close())

	_, err = Open(c, Options{Kind: KindSPI, Port: "LEDTEST9", Pixels: 1})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrClaimed)
}

func TestClaims(t *testing.T) {
	c := NewClaims()
	release, err := c.Claim("spi:/dev/spidev0.0")
	require.NoError(t, err)
	assert.True(t, c.Held("spi:/dev/spidev0.0"))

	_, err = c.Claim("spi:/dev/spidev0.0")
	assert.ErrorIs(t, err, ErrClaimed)

	release()
	release()
	assert.False(t, c.Held("spi:/dev/spidev0.0"))
	_, err = c.Claim("spi:/dev/spidev0.0")
	assert.NoError(t, err)
}

func TestOpenClaimsUntilClose(t *testing.T) {
	c := NewClaims()
	d, err := Open(c, Options{Kind: KindSim, Port: "status", Pixels: 1})
	require.NoError(t, err)

	_, err = Open(c, Options{Kind: KindSim, Port: "status", Pixels: 1})
	assert.ErrorIs(t, err, ErrClaimed)

	require.NoError(t, d.Close())
	d, err = Open(c, Options{Kind: KindSim, Port: "status", Pixels: 1})
	require.NoError(t, err)
	assert.NoError(t, d.Close())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("NRZ")
	require.NoError(t, err)
	assert.Equal(t, KindNRZ, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindSPI, k)

	_, err = ParseKind("pwm")
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(2)
	for i := uint32(1); i <= 3; i++ {
		require.NoError(t, r.Write([]uint32{i}))
	}
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, [][]uint32{{2}, {3}}, r.Frames())

	boom := errors.New("boom")
	r.Fail(boom)
	assert.ErrorIs(t, r.Write([]uint32{4}), boom)
	assert.Equal(t, 3, r.Count())

	r.Fail(nil)
	require.NoError(t, r.Write([]uint32{5}))
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, []uint32{5}, last)
}
