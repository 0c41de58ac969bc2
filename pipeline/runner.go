package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/RyanBlaney/sonido-coherence/logging"
)

// StateHandler receives every computed state. Handlers run on the runner's
// goroutine and must not block for long.
type StateHandler func(*ProcessorState)

// StatusInterval is how often the runner logs a status line
const StatusInterval = 5 * time.Second

// Runner drives a Processor at a fixed interval
type Runner struct {
	processor *Processor
	interval  time.Duration
	handlers  []StateHandler
	logger    logging.Logger
	status    rate.Sometimes
}

// NewRunner creates a runner ticking every interval. A non-positive interval
// falls back to the processor's configured tick.
func NewRunner(p *Processor, interval time.Duration, handlers ...StateHandler) *Runner {
	if interval <= 0 {
		interval = p.config.TickInterval
	}
	return &Runner{
		processor: p,
		interval:  interval,
		handlers:  handlers,
		logger:    p.logger.WithFields(logging.Fields{"component": "runner"}),
		status:    rate.Sometimes{First: 1, Interval: StatusInterval},
	}
}

// Tick computes one state and hands it to every handler
func (r *Runner) Tick() *ProcessorState {
	st := r.processor.Compute()
	for _, h := range r.handlers {
		h(st)
	}

	r.status.Do(func() {
		r.logger.Info("coherence status", logging.Fields{
			"seq":        st.Seq,
			"samples":    len(st.RR),
			"cleaned":    st.Cleaned,
			"rmssd":      st.RMSSD,
			"lf_hf":      st.Spectral.Ratio,
			"resp_cpm":   st.Respiration.RateCPM,
			"resp_valid": st.Respiration.Valid,
			"score":      st.Score,
			"dropped_rr": r.processor.window.Dropped(),
		})
	})
	return st
}

// Run ticks until ctx is cancelled. It returns nil on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("runner started", logging.Fields{"interval": r.interval.String()})
	defer r.logger.Info("runner stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}
