// Command ledsim runs the panel engines against simulated transmitters.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledpanel/internal/anim"
	"github.com/coreman2200/ledpanel/internal/config"
	"github.com/coreman2200/ledpanel/internal/matrix"
	"github.com/coreman2200/ledpanel/internal/message"
	"github.com/coreman2200/ledpanel/internal/rgb"
	"github.com/coreman2200/ledpanel/internal/sequence"
	"github.com/coreman2200/ledpanel/internal/status"
	"github.com/coreman2200/ledpanel/internal/ws2812"
)

// runner is the part of an engine the simulator drives.
type runner interface {
	Start(ctx context.Context) error
	Step() error
	Join() error
	Stats() anim.Stats
}

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml (demo script)")
		scene      = flag.String("scene", "status", "status | message | rotate | fade")
		driver     = flag.String("driver", "console", "console | sim")
		panels     = flag.String("panels", "east,east", "panel orientations in chain order")
		text       = flag.String("text", "Hello, world!", "text for message and fade")
		color      = flag.String("color", "#ff0000", "text color")
		rate       = flag.Int("rate", 1, "scroll ticks per pixel")
		dur        = flag.Duration("for", 0, "stop after this long (0 runs until interrupted)")
		fast       = flag.Bool("fast", false, "step a manual clock instead of sleeping; needs -for")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.Default()
	if c, err := config.Load(*configPath); err == nil {
		cfg = c
	}
	orients, err := config.MessageCfg{Panels: strings.Split(*panels, ",")}.Orientations()
	if err != nil {
		log.Fatal().Err(err).Msg("bad -panels")
	}
	c, err := rgb.ParseHex(*color)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -color")
	}
	kind, err := ws2812.ParseKind(*driver)
	if err != nil || (kind != ws2812.KindConsole && kind != ws2812.KindSim) {
		log.Fatal().Str("driver", *driver).Msg("ledsim drives console or sim only")
	}
	if *fast && *dur <= 0 {
		log.Fatal().Msg("-fast needs -for")
	}

	var clock anim.Clock = anim.NewSystemClock()
	manual := &anim.ManualClock{}
	if *fast {
		clock = manual
	}

	m := matrix.FromOrientations(orients...)
	pixels := m.Len()
	if *scene == "status" {
		pixels = cfg.Status.Pixels
	}
	drv, err := ws2812.Open(ws2812.NewClaims(), ws2812.Options{Kind: kind, Port: *scene, Pixels: pixels, Layout: rgb.GRB})
	if err != nil {
		log.Fatal().Err(err).Msg("open driver")
	}
	defer drv.Close()

	var (
		r      runner
		player *sequence.Player[status.State]
		poll   = message.DefaultPoll
	)
	switch *scene {
	case "status":
		st := status.New(drv, status.Options{Layout: rgb.GRB, Canvas: matrix.NewStrip(pixels), Clock: clock})
		prog, err := cfg.Demo.Program()
		if err != nil {
			log.Fatal().Err(err).Msg("demo script")
		}
		player = sequence.NewPlayer(sequence.Hooks[status.State]{
			Apply: func(s status.State) {
				log.Info().Stringer("state", s).Msg("demo step")
				_ = st.Update(s)
			},
			Done: func() { log.Info().Msg("demo finished") },
		})
		if err := player.Load(prog); err != nil {
			log.Fatal().Err(err).Msg("demo script")
		}
		player.Start()
		r, poll = st, status.DefaultPoll
	case "message":
		r = message.New(drv, message.Options{
			Layout:  rgb.GRB,
			Panels:  orients,
			Clock:   clock,
			Initial: message.Scroll{Text: *text, Color: c, Rate: *rate},
		})
	case "rotate":
		r = anim.NewEngine[int](anim.NewIntent(0), newRotateScene(m, 500*time.Millisecond), drv,
			anim.Config{Name: "rotate", Poll: poll, Clock: clock, Layout: rgb.GRB})
	case "fade":
		r = anim.NewEngine[int](anim.NewIntent(0), newFadeScene(m, *text, c, 2*time.Second), drv,
			anim.Config{Name: "fade", Poll: poll, Clock: clock, Layout: rgb.GRB})
	default:
		log.Fatal().Str("scene", *scene).Msg("unknown scene")
	}

	if *fast {
		for elapsed := time.Duration(0); elapsed < *dur; elapsed += poll {
			if err := r.Step(); err != nil {
				log.Fatal().Err(err).Msg("scene failed")
			}
			if player != nil {
				player.Tick(poll)
			}
			manual.Advance(poll)
		}
		report(*scene, r.Stats())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *dur > 0 {
		ctx, cancel = context.WithTimeout(ctx, *dur)
		defer cancel()
	}
	if err := r.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start")
	}
	if player != nil {
		go func() {
			t := time.NewTicker(poll)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					player.Tick(poll)
				}
			}
		}()
	}
	<-ctx.Done()
	if err := r.Join(); err != nil {
		log.Error().Err(err).Msg("engine")
	}
	report(*scene, r.Stats())
}

func report(scene string, s anim.Stats) {
	log.Info().Str("scene", scene).
		Uint64("frames", s.Frames).
		Uint64("dropped", s.Dropped).
		Uint64("entered", s.Entered).
		Msg("done")
}
