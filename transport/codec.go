// Package transport moves RR samples in and coherence state out of a
// processor: NATS for sensor ingest and state fan-out, WebSocket for display
// clients. Every payload is JSON.
package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-coherence/edr"
	"github.com/RyanBlaney/sonido-coherence/guide"
	"github.com/RyanBlaney/sonido-coherence/hrv"
	"github.com/RyanBlaney/sonido-coherence/pipeline"
	"github.com/RyanBlaney/sonido-coherence/score"
)

// EncodeSamples marshals a batch of RR samples as a JSON array
func EncodeSamples(samples []hrv.Sample) ([]byte, error) {
	return json.Marshal(samples)
}

// DecodeSamples accepts either one sample object or an array of them
func DecodeSamples(data []byte) ([]hrv.Sample, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty sample payload")
	}

	if data[0] == '[' {
		var batch []hrv.Sample
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("decode sample batch: %w", err)
		}
		return batch, nil
	}

	var s hrv.Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode sample: %w", err)
	}
	return []hrv.Sample{s}, nil
}

// StateSummary is the published view of a state. It leaves out the RR
// history and the spectrum arrays.
type StateSummary struct {
	ProcessorID string    `json:"processor_id"`
	Seq         uint64    `json:"seq"`
	ComputedAt  time.Time `json:"computed_at"`
	Samples     int       `json:"samples"`

	SDNN   float64 `json:"sdnn"`
	RMSSD  float64 `json:"rmssd"`
	MeanHR float64 `json:"mean_hr"`
	LF     float64 `json:"lf"`
	HF     float64 `json:"hf"`
	LFHF   float64 `json:"lf_hf"`

	RespirationCPM     float64       `json:"respiration_cpm"`
	RespirationValid   bool          `json:"respiration_valid"`
	RespirationQuality float64       `json:"respiration_quality"`
	Waveform           *edr.Waveform `json:"waveform,omitempty"`

	Score      float64          `json:"score"`
	Components score.Components `json:"components"`
	Sync       float64          `json:"sync"`
	Grades     pipeline.Grades  `json:"grades"`

	Guide    *guide.Frame    `json:"guide,omitempty"`
	Feedback *guide.Feedback `json:"feedback,omitempty"`
}

// Summarize builds the published view of st
func Summarize(st *pipeline.ProcessorState, withWaveform bool) StateSummary {
	s := StateSummary{
		ProcessorID:        st.ProcessorID,
		Seq:                st.Seq,
		ComputedAt:         st.ComputedAt,
		Samples:            len(st.RR),
		SDNN:               st.SDNN,
		RMSSD:              st.RMSSD,
		MeanHR:             st.MeanHR,
		LF:                 st.Spectral.LF,
		HF:                 st.Spectral.HF,
		LFHF:               st.Spectral.Ratio,
		RespirationCPM:     st.Respiration.RateCPM,
		RespirationValid:   st.Respiration.Valid,
		RespirationQuality: st.Respiration.Quality,
		Score:              st.Score,
		Components:         st.Components,
		Sync:               st.Sync,
		Grades:             st.Grades,
	}
	if withWaveform {
		s.Waveform = st.Respiration.Waveform
	}
	return s
}

// EncodeState marshals the summary of st
func EncodeState(st *pipeline.ProcessorState, withWaveform bool) ([]byte, error) {
	return json.Marshal(Summarize(st, withWaveform))
}
