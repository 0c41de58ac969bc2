// Command rr-producer publishes simulated RR intervals to NATS in place of a
// chest strap.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/sim"
	"github.com/RyanBlaney/sonido-coherence/transport"
)

func main() {
	var (
		natsURL   = flag.String("nats", "nats://127.0.0.1:4222", "NATS url")
		subject   = flag.String("subject", transport.SubjectRR, "subject")
		hr        = flag.Float64("hr", 75, "heart rate bpm")
		breathing = flag.Float64("breathing-cpm", 6, "breathing rate")
		amplitude = flag.Float64("amplitude", 50, "RSA modulation depth in ms")
		noise     = flag.Float64("noise", 5, "gaussian noise sigma in ms")
		seed      = flag.Uint64("seed", 1, "random seed")
		speed     = flag.Float64("speed", 1, "playback speed")
		batch     = flag.Int("batch", 1, "samples per message")
		logFormat = flag.String("log-format", "console", "console or json")
	)
	flag.Parse()

	logger, err := logging.NewZapLogger(logging.InfoLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	nc, err := transport.Connect(*natsURL, "rr-producer")
	if err != nil {
		logger.Fatal(err, "connect to NATS", logging.Fields{"url": *natsURL})
	}
	defer nc.Drain()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := sim.NewGenerator(sim.Config{
		HeartRateBPM: *hr,
		BreathingCPM: *breathing,
		AmplitudeMs:  *amplitude,
		NoiseMs:      *noise,
		Seed:         *seed,
	})

	size := max(*batch, 1)
	buffer := make([]hrv.Sample, 0, size)
	sent := 0

	logger.Info("producing RR", logging.Fields{"subject": *subject, "hr": *hr, "breathing_cpm": *breathing})
	err = gen.Stream(ctx, *speed, func(s hrv.Sample) error {
		buffer = append(buffer, s)
		if len(buffer) < size {
			return nil
		}

		data, err := transport.EncodeSamples(buffer)
		if err != nil {
			return err
		}
		buffer = buffer[:0]
		if err := nc.Publish(*subject, data); err != nil {
			logger.Warn("publish failed", logging.Fields{"error": err.Error()})
			return nil
		}
		sent++
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err, "producer stopped")
	}
	logger.Info("producer: stopping", logging.Fields{"messages": sent})
}
