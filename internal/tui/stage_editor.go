package tui

import (
	"strconv"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/probability"
	"github.com/fumble/fumble/internal/shared"
)

// StageEditor holds one FieldState per editable stage parameter plus
// the filter text field, and projects parsed edits onto a ConfigCell.
// Toggling an optional stage off writes Absent (nil) into the cell;
// toggling it on re-parses the field's current text. Reorder has no
// on/off toggle (its probability is always present per spec.md §6's
// default-0 entry), so it's committed via ApplyReorder instead.
type StageEditor struct {
	Filter    *FieldState
	Drop      *FieldState
	Delay     *FieldState
	Throttle  *FieldState
	Tamper    *FieldState
	Duplicate *FieldState
	Bandwidth *FieldState

	ReorderProbability *FieldState
	ReorderMaxDelayMS  *FieldState

	cell *shared.ConfigCell
}

// NewStageEditor seeds every field from cell's current snapshot.
func NewStageEditor(cell *shared.ConfigCell) *StageEditor {
	snap := cell.Snapshot()
	return &StageEditor{
		Filter:    NewFieldState(snap.Filter),
		Drop:      NewFieldState(probabilityText(snap.Drop.Probability)),
		Delay:     NewFieldState(int64Text(snap.Delay.DurationMS)),
		Throttle:  NewFieldState(probabilityText(snap.Throttle.Probability)),
		Tamper:    NewFieldState(probabilityText(snap.Tamper.Probability)),
		Duplicate: NewFieldState(probabilityText(snap.Duplicate.Probability)),
		Bandwidth: NewFieldState(intText(snap.Bandwidth.LimitKBps)),

		ReorderProbability: NewFieldState(snap.Reorder.Probability.String()),
		ReorderMaxDelayMS:  NewFieldState(strconv.FormatInt(snap.Reorder.MaxDelayMS, 10)),

		cell: cell,
	}
}

func probabilityText(p *probability.Probability) string {
	if p == nil {
		return ""
	}
	return p.String()
}

func int64Text(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func intText(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// ApplyFilter commits the filter field's text verbatim (any string is
// a syntactically legal filter from the bridge's point of view; bpf
// validation happens at capture-loop reopen time).
func (e *StageEditor) ApplyFilter() {
	text := e.Filter.Text
	e.Filter.InError = false
	e.cell.Mutate(func(c *config.Configuration) {
		c.Filter = text
	})
}

// ToggleDrop enables or disables Drop. When enabled it parses the
// field's text; a parse failure leaves the stage untouched and marks
// the field in error.
func (e *StageEditor) ToggleDrop(enabled bool) error {
	return toggleProbabilityStage(e.Drop, e.cell, enabled, func(c *config.Configuration, p *probability.Probability) {
		c.Drop.Probability = p
	})
}

// ToggleThrottle enables or disables Throttle.
func (e *StageEditor) ToggleThrottle(enabled bool) error {
	return toggleProbabilityStage(e.Throttle, e.cell, enabled, func(c *config.Configuration, p *probability.Probability) {
		c.Throttle.Probability = p
	})
}

// ToggleTamper enables or disables Tamper.
func (e *StageEditor) ToggleTamper(enabled bool) error {
	return toggleProbabilityStage(e.Tamper, e.cell, enabled, func(c *config.Configuration, p *probability.Probability) {
		c.Tamper.Probability = p
	})
}

// ToggleDuplicate enables or disables Duplicate.
func (e *StageEditor) ToggleDuplicate(enabled bool) error {
	return toggleProbabilityStage(e.Duplicate, e.cell, enabled, func(c *config.Configuration, p *probability.Probability) {
		c.Duplicate.Probability = p
	})
}

func toggleProbabilityStage(field *FieldState, cell *shared.ConfigCell, enabled bool, set func(*config.Configuration, *probability.Probability)) error {
	if !enabled {
		cell.Mutate(func(c *config.Configuration) { set(c, nil) })
		return nil
	}

	p, err := field.ParseProbability()
	if err != nil {
		return err
	}
	cell.Mutate(func(c *config.Configuration) { set(c, &p) })
	return nil
}

// ToggleDelay enables or disables Delay. When enabled it parses the
// field's text as a millisecond duration.
func (e *StageEditor) ToggleDelay(enabled bool) error {
	if !enabled {
		e.cell.Mutate(func(c *config.Configuration) { c.Delay.DurationMS = nil })
		return nil
	}

	ms, err := e.Delay.ParseInt64()
	if err != nil {
		return err
	}
	e.cell.Mutate(func(c *config.Configuration) { c.Delay.DurationMS = &ms })
	return nil
}

// ToggleBandwidth enables or disables Bandwidth. When enabled it
// parses the field's text as a kbps limit.
func (e *StageEditor) ToggleBandwidth(enabled bool) error {
	if !enabled {
		e.cell.Mutate(func(c *config.Configuration) { c.Bandwidth.LimitKBps = nil })
		return nil
	}

	limit, err := e.Bandwidth.ParseInt()
	if err != nil {
		return err
	}
	e.cell.Mutate(func(c *config.Configuration) { c.Bandwidth.LimitKBps = &limit })
	return nil
}

// ApplyReorder commits both Reorder fields. Reorder's probability is
// always present, so there's no enable/disable toggle: setting
// probability to 0 is how a user turns reordering off.
func (e *StageEditor) ApplyReorder() error {
	p, err := e.ReorderProbability.ParseProbability()
	if err != nil {
		return err
	}
	maxDelay, err := e.ReorderMaxDelayMS.ParseInt64()
	if err != nil {
		return err
	}
	e.cell.Mutate(func(c *config.Configuration) {
		c.Reorder.Probability = p
		c.Reorder.MaxDelayMS = maxDelay
	})
	return nil
}
