package ws2812

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
)

// NRZFreq is the port speed nrzled expects for 800kHz chips, 3 SPI bits per protocol bit.
const NRZFreq = 2500 * physic.KiloHertz

// NRZ drives the chain through periph's nrzled encoder. nrzled takes RGB
// bytes and sends the second byte first, so each packed word is handed over
// as (mid, hi, lo) and reaches the wire in the word's own channel order.
type NRZ struct {
	mu     sync.Mutex
	port   spi.Port
	dev    *nrzled.Dev
	pixels int
	buf    []byte
}

func NewNRZ(port spi.Port, pixels int) (*NRZ, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("ws2812: invalid LED count: %d", pixels)
	}
	opts := nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      NRZFreq,
	}
	d, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("ws2812: nrzled: %w", err)
	}
	return &NRZ{port: port, dev: d, pixels: pixels, buf: make([]byte, pixels*3)}, nil
}

func (n *NRZ) Write(frame []uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return ErrClosed
	}
	if len(frame) != n.pixels {
		return fmt.Errorf("ws2812: frame length %d does not match count %d", len(frame), n.pixels)
	}
	for i, w := range frame {
		n.buf[i*3], n.buf[i*3+1], n.buf[i*3+2] = byte(w>>8), byte(w>>16), byte(w)
	}
	if _, err := n.dev.Write(n.buf); err != nil {
		return fmt.Errorf("ws2812: nrzled write: %w", err)
	}
	return nil
}

func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return nil
	}
	err := n.dev.Halt()
	n.dev = nil
	if c, ok := n.port.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
