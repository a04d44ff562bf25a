package tui

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/fumble/fumble/internal/shared"
	"github.com/fumble/fumble/internal/stats"
)

// Terminal is the T3 thread: a ~30Hz raw-mode render loop plus a
// keystroke-read loop that drives the StageEditor bridge. Rendering is
// intentionally minimal (plain lines, no layout engine); the bridge in
// StageEditor owns all config-affecting logic.
type Terminal struct {
	fd     int
	state  *term.State
	out    io.Writer
	in     *bufio.Reader
	editor *StageEditor
	cell   *shared.ConfigCell

	selection byte
}

// NewTerminal puts fd into raw mode and returns a Terminal that reads
// keystrokes from in and renders to out, both bound to cell.
func NewTerminal(fd int, out io.Writer, in io.Reader, cell *shared.ConfigCell) (*Terminal, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	return &Terminal{
		fd:     fd,
		state:  state,
		out:    out,
		in:     bufio.NewReader(in),
		editor: NewStageEditor(cell),
		cell:   cell,
	}, nil
}

// Close restores the terminal's prior mode.
func (t *Terminal) Close() error {
	return term.Restore(t.fd, t.state)
}

// RenderOnce writes one frame of the current stats snapshot. The full
// render loop (T3) calls this on a ~30Hz ticker between input polls.
func (t *Terminal) RenderOnce(snap stats.Snapshot) {
	view := Project(snap)
	fmt.Fprintf(t.out, "\rdrop=%s delay_buf=%s throttling=%s reorder_q=%s dup=%s bw_buf=%s bw_rate=%s",
		view.DropRate, view.DelayBuffered, view.Throttling, view.ReorderDelayed,
		view.DuplicateFactor, view.BandwidthBuffered, view.BandwidthRate)
}

// tickInterval matches spec.md §5's ~30Hz T3 render rate.
const tickInterval = time.Second / 30

// Run drives the T3 render loop on the calling goroutine and starts a
// background keystroke-read loop over stdin, until running is cleared.
// The caller is responsible for calling Close once Run returns.
func (t *Terminal) Run(registry *stats.Registry, running *atomic.Bool) {
	go t.readInput(running)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for running.Load() {
		<-ticker.C
		t.RenderOnce(registry.Snapshot())
	}
	fmt.Fprintln(t.out)
}

// readInput reads one byte at a time and dispatches it into the
// selection/edit state machine in handleKey, until running clears or
// the input stream ends (e.g. stdin closed).
func (t *Terminal) readInput(running *atomic.Bool) {
	for running.Load() {
		b, err := t.in.ReadByte()
		if err != nil {
			return
		}
		t.handleKey(b)
	}
}

// handleKey implements a minimal line-editor: while no field is
// selected, a digit key '1'-'9' selects which stage field subsequent
// typed characters (digits included) append to, Backspace erases the
// last typed character, and Enter commits the selected field through
// its Toggle/Apply method and clears the selection. There's no widget layout (the
// original's ratatui widget tree is out of scope); this is the data
// flow spec.md §9 specifies, driven by raw keystrokes instead of a
// direct StageEditor call.
func (t *Terminal) handleKey(b byte) {
	switch b {
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if t.selection == 0 {
			t.selection = b
		} else if f := t.selectedField(); f != nil {
			f.Text += string(b)
		}
	case '\r', '\n':
		t.commitSelection()
		t.selection = 0
	case 127, '\b':
		if f := t.selectedField(); f != nil && len(f.Text) > 0 {
			f.Text = f.Text[:len(f.Text)-1]
		}
	default:
		if f := t.selectedField(); f != nil {
			f.Text += string(b)
		}
	}
}

// selectedField maps the current selection key to the field that
// typed characters append to. '5'/'6' both belong to Reorder, which
// has two fields (probability, max_delay_ms) but one commit.
func (t *Terminal) selectedField() *FieldState {
	switch t.selection {
	case '1':
		return t.editor.Filter
	case '2':
		return t.editor.Drop
	case '3':
		return t.editor.Delay
	case '4':
		return t.editor.Throttle
	case '5':
		return t.editor.ReorderProbability
	case '6':
		return t.editor.ReorderMaxDelayMS
	case '7':
		return t.editor.Tamper
	case '8':
		return t.editor.Duplicate
	case '9':
		return t.editor.Bandwidth
	default:
		return nil
	}
}

// commitSelection dispatches Enter to the Toggle/Apply method matching
// the current selection. Probability-gated stages toggle on when their
// field holds any text, off when empty.
func (t *Terminal) commitSelection() {
	var err error
	switch t.selection {
	case '1':
		t.editor.ApplyFilter()
	case '2':
		err = t.editor.ToggleDrop(t.editor.Drop.Text != "")
	case '3':
		err = t.editor.ToggleDelay(t.editor.Delay.Text != "")
	case '4':
		err = t.editor.ToggleThrottle(t.editor.Throttle.Text != "")
	case '5', '6':
		err = t.editor.ApplyReorder()
	case '7':
		err = t.editor.ToggleTamper(t.editor.Tamper.Text != "")
	case '8':
		err = t.editor.ToggleDuplicate(t.editor.Duplicate.Text != "")
	case '9':
		err = t.editor.ToggleBandwidth(t.editor.Bandwidth.Text != "")
	}
	if err != nil {
		slog.Warn("tui field commit rejected", "selection", string(t.selection), "error", err)
	}
}

// Editor exposes the bound StageEditor so callers (and tests) can
// inspect or drive it directly.
func (t *Terminal) Editor() *StageEditor {
	return t.editor
}
