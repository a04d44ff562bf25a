package cmd

import (
	"github.com/fumble/fumble/internal/probability"
)

// probabilityFlag parses a CLI flag value that enables an optional
// stage when non-empty, returning a pointer suitable for the stage's
// Absent/Present config field.
func probabilityFlag(s string) (*probability.Probability, error) {
	if s == "" {
		return nil, nil
	}
	p, err := parseProbabilityValue(s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func parseProbabilityValue(s string) (probability.Probability, error) {
	return probability.Parse(s)
}
