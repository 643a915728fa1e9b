package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/ledpanel/internal/config"
	"github.com/coreman2200/ledpanel/internal/control"
	"github.com/coreman2200/ledpanel/internal/matrix"
	"github.com/coreman2200/ledpanel/internal/message"
	"github.com/coreman2200/ledpanel/internal/sequence"
	"github.com/coreman2200/ledpanel/internal/status"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

func main() {
	// ---- Flags (config.yaml overrides where set) ----
	var (
		configPath    = flag.String("config", "config.yaml", "path to config.yaml")
		addr          = flag.String("addr", ":8080", "HTTP listen address")
		statusDriver  = flag.String("status-driver", "", "status chain driver: spi | nrz | console | sim")
		messageDriver = flag.String("message-driver", "", "message chain driver: spi | nrz | console | sim")
		level         = flag.String("log-level", "info", "zerolog level")
		simOnly       = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		demo          = flag.Bool("demo", false, "play the configured status demo")
		writeConfig   = flag.Bool("write-config", false, "write the default config to -config and exit")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if *writeConfig {
		if err := config.Save(*configPath, config.Default()); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("default config written")
		return
	}

	// ---- Load config.yaml (optional) ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
	} else {
		cfg = c
	}
	if *statusDriver != "" {
		cfg.Status.Driver = *statusDriver
	}
	if *messageDriver != "" {
		cfg.Message.Driver = *messageDriver
	}
	if *simOnly {
		cfg.Status.Driver, cfg.Message.Driver = "sim", "sim"
	}
	cfg.Addr = firstNonEmpty(cfg.Addr, *addr)
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, *level)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(lvl)

	// ---- Hardware ----
	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed; hardware drivers may be unavailable")
	}
	claims := ws2812.NewClaims()
	panels, _ := cfg.Message.Orientations()

	statusDrv, statusKind := openChain(claims, "status", cfg.Status.Chain, cfg.Status.Pixels)
	messageDrv, messageKind := openChain(claims, "message", cfg.Message.Chain, len(panels)*matrix.Side*matrix.Side)
	defer statusDrv.Close()
	defer messageDrv.Close()

	// ---- Engines ----
	statusOpts, _ := cfg.Status.Options(cfg.Status.Pixels)
	messageOpts, _ := cfg.Message.Options(len(panels) * matrix.Side * matrix.Side)

	var statusInit status.State
	if cfg.Status.Initial != nil {
		statusInit, _ = cfg.Status.Initial.State()
	}
	var messageInit message.State
	if cfg.Message.Initial != nil {
		messageInit, _ = cfg.Message.Initial.State()
	}

	preview := control.NewPreview()
	st := status.New(preview.Tap("status", statusDrv), status.Options{
		Layout:  statusOpts.Layout,
		Canvas:  matrix.NewStrip(cfg.Status.Pixels),
		Poll:    cfg.Status.Poll(status.DefaultPoll),
		Initial: statusInit,
	})
	msg := message.New(preview.Tap("message", messageDrv), message.Options{
		Layout:  messageOpts.Layout,
		Panels:  panels,
		Poll:    cfg.Message.Poll(message.DefaultPoll),
		Initial: messageInit,
	})
	srv := control.New(control.Options{
		Status:  st,
		Message: msg,
		Driver:  string(statusKind) + "/" + string(messageKind),
		Preview: preview,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := st.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start status engine")
	}
	if err := msg.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start message engine")
	}
	go srv.Run(ctx)

	if *demo {
		prog, _ := cfg.Demo.Program()
		go playDemo(ctx, prog, st)
	}

	// ---- HTTP ----
	hs := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).
			Str("status_driver", string(statusKind)).
			Str("message_driver", string(messageKind)).
			Msg("HTTP server starting")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	_ = hs.Close()
	cancel()
	if err := st.Join(); err != nil {
		log.Error().Err(err).Msg("status engine")
	}
	if err := msg.Join(); err != nil {
		log.Error().Err(err).Msg("message engine")
	}
}

// openChain opens the configured transmitter, falling back to the console
// preview when the hardware is missing.
func openChain(claims *ws2812.Claims, name string, ch config.Chain, pixels int) (ws2812.Driver, ws2812.Kind) {
	o, err := ch.Options(pixels)
	if err != nil {
		log.Fatal().Err(err).Str("chain", name).Msg("bad chain config")
	}
	drv, err := ws2812.Open(claims, o)
	if err == nil {
		return drv, o.Kind
	}
	log.Warn().Err(err).
		Str("chain", name).
		Str("driver", string(o.Kind)).
		Str("dev", o.Port).
		Msg("driver init failed; falling back to console")
	o.Kind, o.Port = ws2812.KindConsole, name
	drv, err = ws2812.Open(claims, o)
	if err != nil {
		log.Fatal().Err(err).Str("chain", name).Msg("console fallback failed")
	}
	return drv, o.Kind
}

func playDemo(ctx context.Context, prog sequence.Program[status.State], st *status.Status) {
	p := sequence.NewPlayer(sequence.Hooks[status.State]{
		Apply: func(s status.State) {
			if err := st.Update(s); err != nil {
				log.Warn().Err(err).Msg("demo update")
			}
		},
	})
	if err := p.Load(prog); err != nil {
		log.Warn().Err(err).Msg("demo not started")
		return
	}
	p.Start()
	const tick = 10 * time.Millisecond
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Tick(tick)
		}
	}
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
