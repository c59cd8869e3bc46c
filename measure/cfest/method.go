package cfest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMethod is returned for method values or names that do not name
// one of the supported estimators.
var ErrUnknownMethod = errors.New("cfest: unknown estimation method")

// Method selects a center-frequency estimator.
type Method int

const (
	MethodCoerce Method = iota
	MethodRMS
	MethodHalfPower
)

var methodNames = map[Method]string{
	MethodCoerce:    "coerce",
	MethodRMS:       "rms",
	MethodHalfPower: "half_power",
}

// String returns the configuration name of m.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m names a supported estimator.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod parses a method name. Hyphens, underscores and case are
// ignored, so "half-power", "HALF_POWER" and "halfpower" are equivalent.
func ParseMethod(name string) (Method, error) {
	key := normalizeName(name)
	for m, n := range methodNames {
		if normalizeName(n) == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Methods returns all supported methods in ascending order.
func Methods() []Method {
	return []Method{MethodCoerce, MethodRMS, MethodHalfPower}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
