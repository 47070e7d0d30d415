package reference

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Outcome classifies the result of comparing a rendered value to a reference.
type Outcome int

const (
	Identical Outcome = iota
	Differ
	LengthMismatch
)

func (o Outcome) String() string {
	switch o {
	case Identical:
		return "identical"
	case Differ:
		return "differ"
	case LengthMismatch:
		return "length_mismatch"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Comparison is the character-by-character diff of a rendered value against
// a reference string. Positions are 0-indexed over the whole string, including
// the "3." prefix.
type Comparison struct {
	Outcome  Outcome `json:"outcome"`
	Position int     `json:"position"`
	Got      string  `json:"got,omitempty"`
	Want     string  `json:"want,omitempty"`
}

// Compare diffs got against Pi1000.
func Compare(got string) Comparison {
	return CompareTo(got, Pi1000)
}

// CompareTo reports the first position where got and want differ. When one
// string is a prefix of the other, the outcome is LengthMismatch at the
// shorter length; otherwise Identical with Position set to the common length.
func CompareTo(got, want string) Comparison {
	n := min(len(got), len(want))
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return Comparison{Outcome: Differ, Position: i, Got: got[i : i+1], Want: want[i : i+1]}
		}
	}
	if len(got) != len(want) {
		return Comparison{Outcome: LengthMismatch, Position: n}
	}
	return Comparison{Outcome: Identical, Position: n}
}

// MatchingPrefix returns the number of leading characters got shares with
// Pi1000.
func MatchingPrefix(got string) int {
	c := Compare(got)
	if c.Outcome == Differ {
		return c.Position
	}
	return min(len(got), len(Pi1000))
}

func (c Comparison) String() string {
	switch c.Outcome {
	case Differ:
		return fmt.Sprintf("First difference at position %d: '%s' vs '%s'", c.Position, c.Got, c.Want)
	case LengthMismatch:
		return fmt.Sprintf("Strings differ in length at position %d", c.Position)
	}
	return fmt.Sprintf("Strings are identical up to length %d", c.Position)
}

// AbsError returns |got - π| rounded to sig significant digits in scientific
// notation. π is taken from Pi1000, so differences below 10^-998 are not
// resolved.
func AbsError(got string, sig uint32) (string, error) {
	g, _, err := apd.NewFromString(got)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", got, err)
	}
	w, _, err := apd.NewFromString(Pi1000)
	if err != nil {
		return "", fmt.Errorf("parse reference: %w", err)
	}

	ctx := apd.BaseContext.WithPrecision(uint32(len(got) + len(Pi1000)))
	var d apd.Decimal
	if _, err := ctx.Sub(&d, g, w); err != nil {
		return "", fmt.Errorf("subtract reference: %w", err)
	}
	d.Abs(&d)
	if d.IsZero() {
		return "0", nil
	}

	if sig == 0 {
		sig = 1
	}
	if _, err := apd.BaseContext.WithPrecision(sig).Round(&d, &d); err != nil {
		return "", fmt.Errorf("round error: %w", err)
	}
	return d.Text('E'), nil
}
