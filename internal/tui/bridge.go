// Package tui implements the TUI↔config data-flow bridge (C14): text
// field parsing into config deltas, last-valid retention on parse
// failure, and stats snapshot projection for rendering, plus a minimal
// raw-mode terminal front end (Terminal) that drives it. There is no
// layout engine; rendering is a single status line.
package tui

import (
	"fmt"
	"strconv"

	"github.com/fumble/fumble/internal/probability"
)

// FieldState tracks one editable text field: its current (possibly
// invalid) text, the last value that parsed successfully, and whether
// the field is currently in error state.
type FieldState struct {
	Text      string
	lastValid string
	InError   bool
}

// NewFieldState seeds a field with an initial valid value.
func NewFieldState(initial string) *FieldState {
	return &FieldState{Text: initial, lastValid: initial}
}

// ParseProbability validates f.Text as a Probability. On success it
// commits Text as the new last-valid value and clears the error flag.
// On failure, Text is left as typed (so the user can keep editing) but
// InError is set and the returned value is the last known-good one.
func (f *FieldState) ParseProbability() (probability.Probability, error) {
	p, err := probability.Parse(f.Text)
	if err != nil {
		f.InError = true
		last, _ := probability.Parse(f.lastValid)
		return last, fmt.Errorf("invalid probability %q: %w", f.Text, err)
	}
	f.InError = false
	f.lastValid = f.Text
	return p, nil
}

// Revert discards unparsed edits, restoring Text to the last valid
// value and clearing the error flag.
func (f *FieldState) Revert() {
	f.Text = f.lastValid
	f.InError = false
}

// ParseInt64 validates f.Text as a base-10 int64 (used for millisecond
// durations). Same last-valid retention contract as ParseProbability.
func (f *FieldState) ParseInt64() (int64, error) {
	v, err := strconv.ParseInt(f.Text, 10, 64)
	if err != nil {
		f.InError = true
		last, _ := strconv.ParseInt(f.lastValid, 10, 64)
		return last, fmt.Errorf("invalid integer %q: %w", f.Text, err)
	}
	f.InError = false
	f.lastValid = f.Text
	return v, nil
}

// ParseInt validates f.Text as a base-10 int (used for kbps limits).
func (f *FieldState) ParseInt() (int, error) {
	v, err := strconv.Atoi(f.Text)
	if err != nil {
		f.InError = true
		last, _ := strconv.Atoi(f.lastValid)
		return last, fmt.Errorf("invalid integer %q: %w", f.Text, err)
	}
	f.InError = false
	f.lastValid = f.Text
	return v, nil
}
