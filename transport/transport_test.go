package transport

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-coherence/edr"
	"github.com/RyanBlaney/sonido-coherence/guide"
	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/logging"
	"github.com/RyanBlaney/sonido-coherence/pipeline"
)

func TestDecodeSamples(t *testing.T) {
	got, err := DecodeSamples([]byte(`{"timestamp": 1.5, "interval_ms": 812}`))
	require.NoError(t, err)
	assert.Equal(t, []hrv.Sample{{Timestamp: 1.5, IntervalMs: 812}}, got)

	got, err = DecodeSamples([]byte(` [{"timestamp":1,"interval_ms":800},{"timestamp":1.8,"interval_ms":790}]`))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = DecodeSamples([]byte("  "))
	assert.Error(t, err)
	_, err = DecodeSamples([]byte("{nope"))
	assert.Error(t, err)
}

func TestEncodeSamplesDecodes(t *testing.T) {
	in := []hrv.Sample{{Timestamp: 2, IntervalMs: 801}}
	data, err := EncodeSamples(in)
	require.NoError(t, err)

	out, err := DecodeSamples(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func sampleState() *pipeline.ProcessorState {
	return &pipeline.ProcessorState{
		ProcessorID: "p1",
		Seq:         7,
		RR:          make([]hrv.Sample, 12),
		TimeDomain:  hrv.TimeDomain{RMSSD: 30, SDNN: 40, MeanHR: 72},
		Spectral:    hrv.SpectralResult{Freq: []float64{0, 1}, Power: []float64{1, 1}, LF: 2, HF: 1, Ratio: 2},
		Respiration: pipeline.Respiration{
			RateCPM:  6,
			Valid:    true,
			Quality:  0.7,
			Waveform: &edr.Waveform{Time: []float64{-1, 0}, Amplitude: []float64{0.2, 0.8}},
		},
		Score:      55,
		ComputedAt: time.Unix(20, 0),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleState(), false)
	assert.Equal(t, 12, s.Samples)
	assert.Equal(t, 2.0, s.LFHF)
	assert.True(t, s.RespirationValid)
	assert.Nil(t, s.Waveform)

	s = Summarize(sampleState(), true)
	require.NotNil(t, s.Waveform)
	assert.Equal(t, 2, s.Waveform.Len())
}

func TestIngest_Handle(t *testing.T) {
	var got []hrv.Sample
	in := NewIngest(func(s hrv.Sample) bool {
		got = append(got, s)
		return s.IntervalMs < 2000
	}, &logging.NoOpLogger{})

	kept := in.Handle([]byte(`[{"timestamp":1,"interval_ms":800},{"timestamp":2,"interval_ms":5000}]`))
	assert.Equal(t, 1, kept)
	assert.Equal(t, 0, in.Handle([]byte("garbage")))

	received, rejected, invalid := in.Stats()
	assert.Equal(t, uint64(2), received)
	assert.Equal(t, uint64(1), rejected)
	assert.Equal(t, uint64(1), invalid)
	assert.Len(t, got, 2)
}

func TestIngest_FeedsProcessor(t *testing.T) {
	p, err := pipeline.NewProcessor(pipeline.DefaultConfig(), pipeline.WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)

	in := NewIngest(p.PushSample, &logging.NoOpLogger{})
	in.Handle([]byte(`{"timestamp":1,"interval_ms":800}`))
	in.Handle([]byte(`{"timestamp":2,"interval_ms":0}`))
	assert.Equal(t, 1, p.Window().Len())
}

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	pub := NewPublisher(conn, SubjectState, false, &logging.NoOpLogger{})

	pub.Publish(sampleState())
	assert.Equal(t, SubjectState, conn.subject)

	var s StateSummary
	require.NoError(t, json.Unmarshal(conn.data, &s))
	assert.Equal(t, uint64(7), s.Seq)
	assert.Equal(t, 55.0, s.Score)
	assert.Zero(t, pub.Failures())

	conn.err = errors.New("disconnected")
	pub.Publish(sampleState())
	assert.Equal(t, uint64(1), pub.Failures())

	pub.Publish(nil)
	assert.Equal(t, uint64(1), pub.Failures())
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(&logging.NoOpLogger{})
	pacer, err := guide.NewPacer(guide.DefaultConfig(), time.Unix(0, 0))
	require.NoError(t, err)
	hub.SetPacer(pacer)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(sampleState())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var s StateSummary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "p1", s.ProcessorID)
	require.NotNil(t, s.Waveform)
	require.NotNil(t, s.Guide)
	assert.Equal(t, guide.PhaseInhale, s.Guide.Phase)
	require.NotNil(t, s.Feedback)
	assert.True(t, s.Feedback.Valid)
	assert.InDelta(t, 0.0, s.Feedback.DeviationCPM, 1e-12)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
}
