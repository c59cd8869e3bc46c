package burst

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every error returned for a rejected burst.
var ErrMalformed = errors.New("burst: malformed burst")

// Reasons for rejecting a burst. Each is returned wrapped together with
// [ErrMalformed].
var (
	ErrEmptyBurst       = errors.New("empty sample sequence")
	ErrSampleRate       = errors.New("sample rate must be > 0 and finite")
	ErrMissingMetadata  = errors.New("missing required metadata")
	ErrBurstTooLarge    = errors.New("burst exceeds maximum FFT size")
	ErrNonFiniteSamples = errors.New("samples must be finite")
)

func malformed(reason error, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%w: %w", ErrMalformed, reason)
	}
	return fmt.Errorf("%w: %w: %s", ErrMalformed, reason, fmt.Sprintf(format, args...))
}

// DropReason returns a short label for why err rejected a burst, suitable for
// log fields and metric labels.
func DropReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyBurst):
		return "empty"
	case errors.Is(err, ErrSampleRate):
		return "sample_rate"
	case errors.Is(err, ErrMissingMetadata):
		return "missing_metadata"
	case errors.Is(err, ErrBurstTooLarge):
		return "too_large"
	case errors.Is(err, ErrNonFiniteSamples):
		return "non_finite"
	default:
		return "internal"
	}
}
