package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/ledpanel/internal/matrix"
	"github.com/coreman2200/ledpanel/internal/message"
	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/status"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

type SPI struct {
	Dev    string `yaml:"dev,omitempty"`     // spireg name, e.g. /dev/spidev0.0
	TickHz int64  `yaml:"tick_hz,omitempty"` // raster tick, default 8000000
}

// Chain describes one LED chain and its transmitter.
type Chain struct {
	Driver     string `yaml:"driver"` // "spi" | "nrz" | "console" | "sim"
	ColorOrder string `yaml:"color_order"`
	PollMs     int    `yaml:"poll_ms,omitempty"`
	SPI        SPI    `yaml:"spi,omitempty"`
}

type StatusCfg struct {
	Chain   `yaml:",inline"`
	Pixels  int          `yaml:"pixels"`
	Initial *status.Spec `yaml:"initial,omitempty"`
}

type MessageCfg struct {
	Chain   `yaml:",inline"`
	Panels  []string      `yaml:"panels"` // orientation per panel in chain order
	Initial *message.Spec `yaml:"initial,omitempty"`
}

// DemoStep holds a status intent for MS milliseconds.
type DemoStep struct {
	Status status.Spec `yaml:"status"`
	MS     int         `yaml:"ms"`
}

type Demo struct {
	Loop  bool       `yaml:"loop"`
	Steps []DemoStep `yaml:"steps"`
}

type Config struct {
	LogLevel string     `yaml:"log_level,omitempty"`
	Addr     string     `yaml:"addr,omitempty"`
	Status   StatusCfg  `yaml:"status"`
	Message  MessageCfg `yaml:"message"`
	Demo     Demo       `yaml:"demo,omitempty"`
}

// Default matches a single on-board status LED and a message chain of two
// east-facing panels.
func Default() *Config {
	demo := func(mode, color string, period, ms int) DemoStep {
		return DemoStep{Status: status.Spec{Mode: mode, Color: color, PeriodMS: period}, MS: ms}
	}
	return &Config{
		LogLevel: "info",
		Addr:     ":8080",
		Status: StatusCfg{
			Chain:  Chain{Driver: "spi", ColorOrder: "RGB", SPI: SPI{Dev: "/dev/spidev0.0"}},
			Pixels: 1,
		},
		Message: MessageCfg{
			Chain:  Chain{Driver: "spi", ColorOrder: "GRB", SPI: SPI{Dev: "/dev/spidev1.0"}},
			Panels: []string{"east", "east"},
		},
		Demo: Demo{Loop: true, Steps: []DemoStep{
			demo("on", "#ff0000", 0, 500),
			demo("on", "#00ff00", 0, 500),
			demo("on", "#0000ff", 0, 500),
			demo("off", "", 0, 1000),
			demo("flash", "#ff0000", 500, 5000),
			demo("off", "", 0, 1000),
			demo("flash", "#00ff00", 100, 5000),
			demo("off", "", 0, 1000),
			demo("flash", "#0000ff", 1000, 5000),
			demo("off", "", 0, 1000),
			{Status: status.Spec{Mode: "wheel", Step: 10}, MS: 5000},
			demo("off", "", 0, 1000),
		}},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks every field that later construction would reject.
func (c *Config) Validate() error {
	var errs []error
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}
	if c.Status.Pixels <= 0 {
		errs = append(errs, fmt.Errorf("status.pixels: %d", c.Status.Pixels))
	}
	if _, err := c.Status.Options(c.Status.Pixels); err != nil {
		errs = append(errs, fmt.Errorf("status: %w", err))
	}
	if c.Status.Initial != nil {
		if _, err := c.Status.Initial.State(); err != nil {
			errs = append(errs, fmt.Errorf("status.initial: %w", err))
		}
	}
	panels, err := c.Message.Orientations()
	if err != nil {
		errs = append(errs, fmt.Errorf("message.panels: %w", err))
	}
	if _, err := c.Message.Options(len(panels) * matrix.Side * matrix.Side); err != nil {
		errs = append(errs, fmt.Errorf("message: %w", err))
	}
	if c.Message.Initial != nil {
		if _, err := c.Message.Initial.State(); err != nil {
			errs = append(errs, fmt.Errorf("message.initial: %w", err))
		}
	}
	if _, err := c.Demo.Program(); err != nil {
		errs = append(errs, fmt.Errorf("demo: %w", err))
	}
	return errors.Join(errs...)
}

// Options resolves the chain into ws2812 open options for a chain of pixels.
func (ch Chain) Options(pixels int) (ws2812.Options, error) {
	kind, err := ws2812.ParseKind(ch.Driver)
	if err != nil {
		return ws2812.Options{}, err
	}
	layout := rgb.GRB
	if ch.ColorOrder != "" {
		if layout, err = rgb.ParseLayout(ch.ColorOrder); err != nil {
			return ws2812.Options{}, err
		}
	}
	if ch.SPI.TickHz < 0 {
		return ws2812.Options{}, fmt.Errorf("spi.tick_hz: %d", ch.SPI.TickHz)
	}
	return ws2812.Options{
		Kind:   kind,
		Port:   ch.SPI.Dev,
		Pixels: pixels,
		Layout: layout,
		Tick:   physic.Frequency(ch.SPI.TickHz) * physic.Hertz,
	}, nil
}

// Poll is the configured refresh period, or fallback.
func (ch Chain) Poll(fallback time.Duration) time.Duration {
	if ch.PollMs > 0 {
		return time.Duration(ch.PollMs) * time.Millisecond
	}
	return fallback
}

func (m MessageCfg) Orientations() ([]matrix.Orientation, error) {
	if len(m.Panels) == 0 {
		return []matrix.Orientation{matrix.North}, nil
	}
	out := make([]matrix.Orientation, len(m.Panels))
	for i, p := range m.Panels {
		o, err := matrix.ParseOrientation(p)
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	return out, nil
}
