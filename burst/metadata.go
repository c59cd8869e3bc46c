package burst

import (
	"encoding/json"
	"maps"
	"slices"
)

// Key names a burst metadata entry.
type Key string

// Keys read or written by the handler. Other keys pass through unchanged.
const (
	KeyCenterFrequency   Key = "center_frequency"
	KeyRelativeFrequency Key = "relative_frequency"
	KeySampleRate        Key = "sample_rate"
	KeyBandwidth         Key = "bandwidth"
	KeySNRDB             Key = "snr_db"
)

// Metadata is the named value mapping carried by a burst.
type Metadata map[Key]any

// Float returns the value of key as float64. ok is false when the key is
// absent or does not hold a number.
func (m Metadata) Float(key Key) (float64, bool) {
	v, present := m[key]
	if !present {
		return 0, false
	}

	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Has reports whether key is present.
func (m Metadata) Has(key Key) bool {
	_, ok := m[key]
	return ok
}

// Clone returns a shallow copy of m. A nil map clones to an empty one.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+4)
	maps.Copy(out, m)
	return out
}

// Keys returns the keys of m in sorted order.
func (m Metadata) Keys() []Key {
	return slices.Sorted(maps.Keys(m))
}
