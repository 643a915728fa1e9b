package ws2812

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DefaultTick gives 3/6/6/5 tick pulses with DefaultTiming.
const DefaultTick = 8 * physic.MegaHertz

// SPI rasterizes symbols into a bitstream clocked one tick per SPI bit, so
// a symbol becomes High one bits followed by Low zero bits. The whole frame
// and its reset tail go out in a single transaction.
type SPI struct {
	mu     sync.Mutex
	port   spi.Port
	conn   spi.Conn
	enc    *Encoder
	pixels int

	symbols []Symbol
	bits    bitstream
}

// NewSPI connects port at the encoder's tick frequency.
func NewSPI(port spi.Port, enc *Encoder, pixels int) (*SPI, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("ws2812: invalid LED count: %d", pixels)
	}
	conn, err := port.Connect(enc.Frequency(), spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ws2812: spi connect: %w", err)
	}
	return &SPI{
		port:    port,
		conn:    conn,
		enc:     enc,
		pixels:  pixels,
		symbols: make([]Symbol, 0, pixels*BitsPerPixel),
	}, nil
}

func (s *SPI) Write(frame []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}
	if len(frame) != s.pixels {
		return fmt.Errorf("ws2812: frame length %d does not match count %d", len(frame), s.pixels)
	}
	s.symbols = s.enc.Encode(s.symbols[:0], frame)
	s.bits.reset()
	for _, sym := range s.symbols {
		s.bits.put(true, int(sym.High))
		s.bits.put(false, int(sym.Low))
	}
	s.bits.put(false, s.enc.ResetTicks())
	if err := s.conn.Tx(s.bits.buf, nil); err != nil {
		return fmt.Errorf("ws2812: spi tx: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	s.conn = nil
	if c, ok := s.port.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *SPI) String() string {
	return fmt.Sprintf("ws2812{%s}", s.port)
}

// bitstream packs bits MSB first into bytes.
type bitstream struct {
	buf []byte
	n   int
}

func (b *bitstream) reset() {
	b.buf = b.buf[:0]
	b.n = 0
}

func (b *bitstream) put(bit bool, count int) {
	for i := 0; i < count; i++ {
		if b.n%8 == 0 {
			b.buf = append(b.buf, 0)
		}
		if bit {
			b.buf[b.n/8] |= 0x80 >> uint(b.n%8)
		}
		b.n++
	}
}
