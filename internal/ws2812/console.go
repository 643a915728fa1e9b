package ws2812

import (
	"fmt"
	"image"
	"sync"

	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/ledpanel/internal/rgb"
)

// Console paints frames as a row of ANSI colored cells on the terminal.
// It stands in for a chain when no SPI port is available.
type Console struct {
	mu     sync.Mutex
	dev    *screen.Dev
	layout rgb.Layout
	img    *image.NRGBA
}

func NewConsole(pixels int, layout rgb.Layout) (*Console, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("ws2812: invalid LED count: %d", pixels)
	}
	return &Console{
		dev:    screen.New(pixels),
		layout: layout,
		img:    image.NewNRGBA(image.Rect(0, 0, pixels, 1)),
	}, nil
}

func (c *Console) Write(frame []uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev == nil {
		return ErrClosed
	}
	if len(frame) != c.img.Rect.Dx() {
		return fmt.Errorf("ws2812: frame length %d does not match count %d", len(frame), c.img.Rect.Dx())
	}
	for i, w := range frame {
		c.img.SetNRGBA(i, 0, rgb.Unpack(w, c.layout).NRGBA())
	}
	return c.dev.Draw(c.dev.Bounds(), c.img, image.Point{})
}

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev == nil {
		return nil
	}
	err := c.dev.Halt()
	c.dev = nil
	return err
}
