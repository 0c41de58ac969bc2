package transport

import (
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/pipeline"
)

// Default subjects
const (
	SubjectRR    = "coherence.rr"
	SubjectState = "coherence.state"
)

// Connect dials NATS and keeps reconnecting forever
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// SampleSink receives decoded samples and reports whether each was kept
type SampleSink func(hrv.Sample) bool

// Ingest decodes RR messages and forwards them to a sink
type Ingest struct {
	sink   SampleSink
	logger logging.Logger

	received atomic.Uint64
	rejected atomic.Uint64
	invalid  atomic.Uint64
}

// NewIngest creates an ingest feeding sink
func NewIngest(sink SampleSink, logger logging.Logger) *Ingest {
	return &Ingest{
		sink:   sink,
		logger: logger.WithFields(logging.Fields{"component": "ingest"}),
	}
}

// Handle processes one payload and returns the number of samples kept
func (in *Ingest) Handle(data []byte) int {
	samples, err := DecodeSamples(data)
	if err != nil {
		in.invalid.Add(1)
		in.logger.Debug("dropping malformed RR message", logging.Fields{"error": err.Error(), "bytes": len(data)})
		return 0
	}

	kept := 0
	for _, s := range samples {
		in.received.Add(1)
		if in.sink(s) {
			kept++
		} else {
			in.rejected.Add(1)
		}
	}
	return kept
}

// Stats returns the sample counters: received, rejected by the sink and
// malformed messages
func (in *Ingest) Stats() (received, rejected, invalid uint64) {
	return in.received.Load(), in.rejected.Load(), in.invalid.Load()
}

// Subscribe attaches the ingest to subject on nc
func (in *Ingest) Subscribe(nc *nats.Conn, subject string) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		in.Handle(msg.Data)
	})
}

// Conn is the part of a NATS connection the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends state summaries on a subject
type Publisher struct {
	conn         Conn
	subject      string
	withWaveform bool
	logger       logging.Logger

	failures atomic.Uint64
}

// NewPublisher creates a publisher. withWaveform includes the respiration
// waveform in every message.
func NewPublisher(conn Conn, subject string, withWaveform bool, logger logging.Logger) *Publisher {
	return &Publisher{
		conn:         conn,
		subject:      subject,
		withWaveform: withWaveform,
		logger:       logger.WithFields(logging.Fields{"component": "publisher", "subject": subject}),
	}
}

// Publish sends st. Errors are logged and counted, never returned, so it can
// serve as a pipeline.StateHandler.
func (p *Publisher) Publish(st *pipeline.ProcessorState) {
	if st == nil {
		return
	}

	data, err := EncodeState(st, p.withWaveform)
	if err == nil {
		err = p.conn.Publish(p.subject, data)
	}
	if err != nil {
		p.failures.Add(1)
		p.logger.Warn("state publish failed", logging.Fields{"error": err.Error(), "seq": st.Seq})
	}
}

// Failures returns the number of failed publishes
func (p *Publisher) Failures() uint64 {
	return p.failures.Load()
}
