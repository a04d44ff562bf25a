// Package ewma implements the exponentially weighted moving average
// smoother used for per-stage rate statistics.
package ewma

import "fmt"

// EWMA computes an exponentially weighted moving average of a sequence
// of values. The zero value is not usable; construct with New.
type EWMA struct {
	alpha   float64
	current float64
	primed  bool
}

// New constructs an EWMA with smoothing factor alpha in (0, 1].
func New(alpha float64) (*EWMA, error) {
	if alpha <= 0.0 || alpha > 1.0 {
		return nil, fmt.Errorf("ewma: alpha %v must be in (0, 1]", alpha)
	}
	return &EWMA{alpha: alpha}, nil
}

// MustNew panics if alpha is out of range. Intended for package-level
// constants such as the long-running-rate (0.005) and burst-sensitive
// (0.5) smoothers used throughout the stats registry.
func MustNew(alpha float64) *EWMA {
	e, err := New(alpha)
	if err != nil {
		panic(err)
	}
	return e
}

// Update folds x into the average. The first call seeds current with x.
func (e *EWMA) Update(x float64) float64 {
	if !e.primed {
		e.current = x
		e.primed = true
	} else {
		e.current = (1-e.alpha)*e.current + e.alpha*x
	}
	return e.current
}

// Get returns the current value and whether Update has been called yet.
func (e *EWMA) Get() (float64, bool) {
	return e.current, e.primed
}
