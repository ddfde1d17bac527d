package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Non-finite amounts travel as strings because JSON numbers cannot hold them.
const (
	nanLiteral    = "NaN"
	posInfLiteral = "Infinity"
	negInfLiteral = "-Infinity"
)

// Amount is a reported or derived figure. Arithmetic follows IEEE 754: dividing by zero
// yields an infinity or NaN and the value is carried through unchanged.
type Amount float64

// Ptr returns a pointer to a copy of a.
func (a Amount) Ptr() *Amount {
	return &a
}

// IsFinite reports whether a is neither NaN nor an infinity.
func (a Amount) IsFinite() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String formats finite values in the shortest round-tripping form and non-finite values
// with the same literals used on the wire.
func (a Amount) String() string {
	f := float64(a)
	switch {
	case math.IsNaN(f):
		return nanLiteral
	case math.IsInf(f, 1):
		return posInfLiteral
	case math.IsInf(f, -1):
		return negInfLiteral
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.IsFinite() {
		return json.Marshal(a.String())
	}
	return []byte(strconv.FormatFloat(float64(a), 'g', -1, 64)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*a = v
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// ParseAmount parses a decimal string or one of the non-finite literals.
func ParseAmount(s string) (Amount, error) {
	switch s {
	case nanLiteral:
		return Amount(math.NaN()), nil
	case posInfLiteral, "+Infinity":
		return Amount(math.Inf(1)), nil
	case negInfLiteral:
		return Amount(math.Inf(-1)), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return Amount(f), nil
}
