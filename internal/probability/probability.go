// Package probability implements the bounded [0,1] scalar shared across
// every impairment stage's chance parameters.
package probability

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrNotANumber is returned by New for NaN and +/-Inf inputs.
var ErrNotANumber = errors.New("not a number")

// ErrOutOfRange is returned by New for finite values outside [0.0, 1.0].
var ErrOutOfRange = errors.New("not in range 0.0 to 1.0")

// Probability is a scalar constrained to [0.0, 1.0].
type Probability struct {
	value float64
}

// Zero is the default Probability, representing "never".
var Zero = Probability{}

// New constructs a Probability, rejecting out-of-range or non-finite values.
func New(v float64) (Probability, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Probability{}, fmt.Errorf("%v: %w", v, ErrNotANumber)
	}
	if v < 0.0 || v > 1.0 {
		return Probability{}, fmt.Errorf("%v: %w", v, ErrOutOfRange)
	}
	return Probability{value: v}, nil
}

// MustNew panics if v is out of range. Intended for compile-time-known constants.
func MustNew(v float64) Probability {
	p, err := New(v)
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the underlying float64.
func (p Probability) Value() float64 {
	return p.value
}

// Compare returns -1, 0, or 1 following the total ordering of the
// underlying value.
func (p Probability) Compare(other Probability) int {
	switch {
	case p.value < other.value:
		return -1
	case p.value > other.value:
		return 1
	default:
		return 0
	}
}

// String renders the probability as a plain decimal.
func (p Probability) String() string {
	return strconv.FormatFloat(p.value, 'g', -1, 64)
}

// Parse reads a Probability from a textual decimal.
func Parse(s string) (Probability, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Probability{}, fmt.Errorf("%q is not a valid number", s)
	}
	return New(v)
}

// MarshalText implements encoding.TextMarshaler so config/viper layers
// serialize Probability as a plain number.
func (p Probability) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Probability) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
