// Command coherence runs the coherence pipeline over simulated or NATS-fed
// RR intervals and exposes the resulting state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RyanBlaney/sonido-coherence/guide"
	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/metrics"
	"github.com/RyanBlaney/sonido-coherence/pipeline"
	"github.com/RyanBlaney/sonido-coherence/sim"
	"github.com/RyanBlaney/sonido-coherence/transport"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML config file (defaults when empty)")
		source       = flag.String("source", "sim", "RR source: sim or nats")
		natsURL      = flag.String("nats", "nats://127.0.0.1:4222", "NATS url")
		rrSubject    = flag.String("rr-subject", transport.SubjectRR, "subject carrying RR samples")
		stateSubject = flag.String("state-subject", transport.SubjectState, "subject for state summaries, empty disables")
		waveform     = flag.Bool("publish-waveform", false, "include the respiration waveform in NATS state messages")
		httpAddr     = flag.String("addr", ":9090", "http address for /metrics and /ws, empty disables")
		inhale       = flag.Duration("inhale", 4*time.Second, "guided inhale duration")
		exhale       = flag.Duration("exhale", 6*time.Second, "guided exhale duration")
		breathing    = flag.Float64("breathing-cpm", 6, "simulated breathing rate")
		entrain      = flag.Duration("entrain", 0, "ramp the simulated breathing rate to the guide's over this long, 0 disables")
		heartRate    = flag.Float64("hr", 75, "simulated heart rate bpm")
		seed         = flag.Uint64("seed", 1, "simulator seed")
		speed        = flag.Float64("speed", 1, "simulator playback speed")
		logLevel     = flag.String("log-level", "info", "debug, info, warn or error")
		logFormat    = flag.String("log-format", "text", "text, console or json")
	)
	flag.Parse()

	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.SetGlobalLogger(logger)

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		if cfg, err = pipeline.LoadConfig(*configPath); err != nil {
			logger.Fatal(err, "load config", logging.Fields{"path": *configPath})
		}
	}

	pacer, err := guide.NewPacer(guide.Config{Inhale: *inhale, Exhale: *exhale}, time.Now())
	if err != nil {
		logger.Fatal(err, "invalid breathing guide")
	}
	cfg.Score.TargetCPM = pacer.RateCPM()

	processor, err := pipeline.NewProcessor(cfg, pipeline.WithLogger(logger))
	if err != nil {
		logger.Fatal(err, "create processor")
	}
	log := logger.WithFields(logging.Fields{"processor_id": processor.ID().String()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(processor.ID().String())
	hub := transport.NewHub(logger)
	hub.SetPacer(pacer)
	handlers := []pipeline.StateHandler{collector.Observe, hub.Broadcast}

	switch *source {
	case "sim":
		simCfg := sim.DefaultConfig()
		simCfg.BreathingCPM = *breathing
		simCfg.HeartRateBPM = *heartRate
		simCfg.Seed = *seed
		gen := sim.NewGenerator(simCfg)
		target := pacer.RateCPM()

		go func() {
			err := gen.Stream(ctx, *speed, func(s hrv.Sample) error {
				if *entrain > 0 {
					gen.SetBreathing(sim.RampRate(*breathing, target, s.Timestamp-simCfg.StartTime, entrain.Seconds()))
				}
				processor.PushSample(s)
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error(err, "simulator stopped")
			}
		}()
		log.Info("simulating RR", logging.Fields{
			"hr":            *heartRate,
			"breathing_cpm": *breathing,
			"entrain":       entrain.String(),
			"seed":          *seed,
		})

	case "nats":
		nc, err := transport.Connect(*natsURL, "sonido-coherence")
		if err != nil {
			log.Fatal(err, "connect to NATS", logging.Fields{"url": *natsURL})
		}
		defer nc.Drain()

		ingest := transport.NewIngest(processor.PushSample, logger)
		if _, err := ingest.Subscribe(nc, *rrSubject); err != nil {
			log.Fatal(err, "subscribe", logging.Fields{"subject": *rrSubject})
		}
		if *stateSubject != "" {
			pub := transport.NewPublisher(nc, *stateSubject, *waveform, logger)
			handlers = append(handlers, pub.Publish)
		}
		log.Info("consuming RR from NATS", logging.Fields{"url": *natsURL, "subject": *rrSubject})

	default:
		log.Fatal(fmt.Errorf("unknown source %q", *source), "invalid flags")
	}

	var server *http.Server
	if *httpAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		mux.Handle("/ws", hub)
		server = &http.Server{Addr: *httpAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			log.Info("http listening", logging.Fields{"addr": *httpAddr})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(err, "http server failed")
				stop()
			}
		}()
	}

	runner := pipeline.NewRunner(processor, cfg.TickInterval, handlers...)
	if err := runner.Run(ctx); err != nil {
		log.Error(err, "runner failed")
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", logging.Fields{"error": err.Error()})
		}
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}

func newLogger(levelName, format string) (logging.Logger, error) {
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	switch format {
	case "text":
		l := logging.NewDefaultLogger()
		l.SetLevel(level)
		return l, nil
	case "console", "json":
		return logging.NewZapLogger(level, format)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
