// Package series evaluates the Leibniz and Bailey–Borwein–Plouffe series for
// π over a range of term indices using fixed-point decimal arithmetic.
package series

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrUnknownSeries is returned for an algorithm name that maps to no series.
	ErrUnknownSeries = errors.New("series: unknown series")

	// ErrTooManyTerms is returned when a plan would need more than 2^64 terms.
	ErrTooManyTerms = errors.New("series: term count overflows uint64")
)

// logger is a no-op until replaced with SetLogger.
var logger = zap.NewNop()

// SetLogger changes the zap logger used by this package.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// Series selects the formula summed by Evaluate.
type Series int

const (
	// Leibniz is 4·Σ (-1)^i/(2i+1), converging linearly.
	Leibniz Series = iota + 1
	// BBP is Σ 16^-i (4/(8i+1) - 2/(8i+4) - 1/(8i+5) - 1/(8i+6)).
	BBP
)

// aliases maps the algorithm names accepted on the command line to a series.
// Backend-specific names from older tooling all evaluate the same formula.
var aliases = map[string]Series{
	"leibniz":             Leibniz,
	"bbp":                 BBP,
	"raw-bbp":             BBP,
	"rs-decimal-leibniz":  Leibniz,
	"rs-decimal-bbp":      BBP,
	"big-decimal-bbp":     BBP,
	"big-decimal-leibniz": Leibniz,
	"rug-bbp":             BBP,
	"rug-leibniz":         Leibniz,
	"dashu-bbp":           BBP,
	"big-float-bbp":       BBP,
	"astro-float-bbp":     BBP,
	"fastnum-bbp":         BBP,
	"decimal-rs-bbp":      BBP,
	"prim-fpdec-bbp":      BBP,
	"prim-fpdec-leibniz":  Leibniz,
}

// ParseSeries returns the series named by s. Matching ignores case and
// treats '_' like '-'.
func ParseSeries(s string) (Series, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if v, ok := aliases[name]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSeries, s)
}

func (s Series) String() string {
	switch s {
	case Leibniz:
		return "leibniz"
	case BBP:
		return "bbp"
	}
	return fmt.Sprintf("Series(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Series) MarshalText() ([]byte, error) {
	if s != Leibniz && s != BBP {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeries, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Series) UnmarshalText(b []byte) error {
	v, err := ParseSeries(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
