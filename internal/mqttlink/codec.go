// Package mqttlink carries bursts over MQTT: it decodes bursts arriving on an
// input topic, runs them through a processor one at a time and publishes the
// corrected bursts and optional debug records.
package mqttlink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-cfest/burst"
)

// ErrOddIQ is returned when a message carries an odd number of I/Q values.
var ErrOddIQ = errors.New("mqttlink: iq array must hold interleaved I/Q pairs")

// Message is the wire form of a burst:
//
//	{"meta": {"sample_rate": 200000, "center_frequency": 1e6}, "iq": [i0, q0, i1, q1]}
type Message struct {
	Meta map[string]any `json:"meta"`
	IQ   []float64      `json:"iq"`
}

// Encode serializes b.
func Encode(b *burst.Burst) ([]byte, error) {
	msg := Message{
		Meta: make(map[string]any, len(b.Meta)),
		IQ:   make([]float64, 0, 2*len(b.Samples)),
	}
	for k, v := range b.Meta {
		msg.Meta[string(k)] = v
	}
	for _, s := range b.Samples {
		msg.IQ = append(msg.IQ, real(s), imag(s))
	}

	return json.Marshal(msg)
}

// Decode parses a burst message. Numbers in the metadata keep their JSON
// text and are read through [burst.Metadata.Float].
func Decode(data []byte) (*burst.Burst, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw struct {
		Meta map[string]any `json:"meta"`
		IQ   []json.Number  `json:"iq"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("mqttlink: decode: %w", err)
	}
	if len(raw.IQ)%2 != 0 {
		return nil, fmt.Errorf("%w: %d values", ErrOddIQ, len(raw.IQ))
	}

	b := &burst.Burst{
		Samples: make([]complex128, len(raw.IQ)/2),
		Meta:    make(burst.Metadata, len(raw.Meta)),
	}
	for k, v := range raw.Meta {
		b.Meta[burst.Key(k)] = v
	}
	for i := range b.Samples {
		re, err := raw.IQ[2*i].Float64()
		if err != nil {
			return nil, fmt.Errorf("mqttlink: iq[%d]: %w", 2*i, err)
		}
		im, err := raw.IQ[2*i+1].Float64()
		if err != nil {
			return nil, fmt.Errorf("mqttlink: iq[%d]: %w", 2*i+1, err)
		}
		b.Samples[i] = complex(re, im)
	}

	return b, nil
}

// DebugMessage is the wire form of a [burst.DebugRecord].
type DebugMessage struct {
	Method            string    `json:"method"`
	NominalFrequency  float64   `json:"nominal_frequency"`
	CenterFrequency   float64   `json:"center_frequency"`
	RelativeFrequency float64   `json:"relative_frequency"`
	Bandwidth         float64   `json:"bandwidth"`
	SNRDB             float64   `json:"snr_db"`
	SampleRate        float64   `json:"sample_rate"`
	Samples           int       `json:"samples"`
	Freqs             []float64 `json:"freqs"`
	Power             []float64 `json:"power"`
}

// EncodeDebug serializes a debug record.
func EncodeDebug(rec burst.DebugRecord) ([]byte, error) {
	return json.Marshal(DebugMessage{
		Method:            rec.Result.Method.String(),
		NominalFrequency:  rec.NominalFrequency,
		CenterFrequency:   rec.Result.CenterFrequency,
		RelativeFrequency: rec.RelativeFrequency,
		Bandwidth:         rec.Result.Bandwidth,
		SNRDB:             rec.Result.SNRDB,
		SampleRate:        rec.SampleRate,
		Samples:           rec.Samples,
		Freqs:             rec.Spectrum.Freqs,
		Power:             rec.Spectrum.Power,
	})
}
