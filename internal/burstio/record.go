package burstio

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-cfest/burst"
)

// Record formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Record is the result line written for one burst of a capture.
type Record struct {
	Index             int     `json:"index" yaml:"index"`
	SampleOffset      int     `json:"sample_offset" yaml:"sample_offset"`
	Samples           int     `json:"samples" yaml:"samples"`
	Method            string  `json:"method,omitempty" yaml:"method,omitempty"`
	CenterFrequency   float64 `json:"center_frequency" yaml:"center_frequency"`
	RelativeFrequency float64 `json:"relative_frequency" yaml:"relative_frequency"`
	Bandwidth         float64 `json:"bandwidth" yaml:"bandwidth"`
	SNRDB             float64 `json:"snr_db" yaml:"snr_db"`
	Error             string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewRecord fills a record from a processed burst. When err is non-nil the
// estimates are left zero and Error holds the diagnostic.
func NewRecord(index, sampleOffset, samples int, method string, out *burst.Burst, err error) Record {
	rec := Record{
		Index:        index,
		SampleOffset: sampleOffset,
		Samples:      samples,
		Method:       method,
	}
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	rec.CenterFrequency, _ = out.Meta.Float(burst.KeyCenterFrequency)
	rec.RelativeFrequency, _ = out.Meta.Float(burst.KeyRelativeFrequency)
	rec.Bandwidth, _ = out.Meta.Float(burst.KeyBandwidth)
	rec.SNRDB, _ = out.Meta.Float(burst.KeySNRDB)
	return rec
}

// RecordWriter writes a stream of records.
type RecordWriter interface {
	Write(rec Record) error
	Close() error
}

// NewRecordWriter returns a writer for format: JSON lines or a YAML document
// stream.
func NewRecordWriter(w io.Writer, format string) (RecordWriter, error) {
	switch format {
	case FormatJSON, "jsonl", "":
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlWriter{enc: enc}, nil
	default:
		return nil, fmt.Errorf("burstio: unknown record format %q", format)
	}
}

type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) Write(rec Record) error { return j.enc.Encode(rec) }
func (j *jsonWriter) Close() error           { return nil }

type yamlWriter struct {
	enc *yaml.Encoder
}

func (y *yamlWriter) Write(rec Record) error { return y.enc.Encode(rec) }
func (y *yamlWriter) Close() error           { return y.enc.Close() }
