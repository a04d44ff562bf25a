package pipeline

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fumble/fumble/internal/capture"
	"github.com/fumble/fumble/internal/metrics"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/shared"
	"github.com/fumble/fumble/internal/stats"
)

// Driver runs on the processing thread (T2): it drains the capture
// channel, snapshots configuration, runs the seven stages in fixed
// order, and hands survivors to the inject handle.
type Driver struct {
	records  <-chan *pkt.Record
	cell     *shared.ConfigCell
	registry *stats.Registry
	state    *State
	inject   func([]byte) error
	running  *atomic.Bool

	receivedInWindow uint64
	sentInWindow     uint64
	windowStart      time.Time
}

// NewDriver builds a Driver consuming records, snapshotting config
// from cell, recording into registry, and reinjecting via inject.
func NewDriver(records <-chan *pkt.Record, cell *shared.ConfigCell, registry *stats.Registry, inject func([]byte) error, running *atomic.Bool) *Driver {
	return &Driver{
		records:     records,
		cell:        cell,
		registry:    registry,
		state:       NewState(),
		inject:      inject,
		running:     running,
		windowStart: time.Now(),
	}
}

// Run executes the driver loop until running is cleared. A closed
// records channel does not end the loop; it keeps polling until running
// is cleared. It never blocks on I/O while holding the config mutex.
// On each batch, the buffered state of every stage whose config is
// Absent is discarded, so a re-enabled stage starts empty.
func (d *Driver) Run() error {
	idleDelay := 10 * time.Millisecond

	for d.running.Load() {
		batch := d.drain()
		if len(batch) == 0 {
			time.Sleep(idleDelay)
			d.maybeLogWindow()
			continue
		}

		cfg := d.cell.Snapshot()
		now := time.Now()

		if cfg.Delay.DurationMS == nil {
			d.state.Delay = DelayState{}
		}
		if cfg.Throttle.Probability == nil {
			d.state.Throttle = ThrottleState{}
		}
		if cfg.Bandwidth.LimitKBps == nil {
			d.state.Bandwidth = BandwidthState{}
		}

		survivors := applyDrop(batch, &cfg.Drop, d.registry)
		survivors = applyDelay(survivors, &d.state.Delay, &cfg.Delay, now, d.registry)
		survivors = applyThrottle(survivors, &d.state.Throttle, &cfg.Throttle, now, d.registry)
		survivors = applyReorder(survivors, &d.state.Reorder, &cfg.Reorder, now, d.registry)
		survivors = applyTamper(survivors, &cfg.Tamper, now, d.registry)
		survivors = applyDuplicate(survivors, &cfg.Duplicate, d.registry)
		survivors = applyBandwidth(survivors, &d.state.Bandwidth, &cfg.Bandwidth, now, d.registry)

		d.receivedInWindow += uint64(len(batch))
		for _, rec := range survivors {
			if err := d.inject(rec.Payload); err != nil {
				slog.Error("inject failed", "error", err)
				return err
			}
			d.sentInWindow++
			metrics.InjectedPacketsTotal.WithLabelValues(rec.Direction.Interface).Inc()
		}

		d.maybeLogWindow()
	}
	return nil
}

// drain collects everything currently available on the channel
// without blocking.
func (d *Driver) drain() []*pkt.Record {
	var batch []*pkt.Record
	for {
		select {
		case rec, ok := <-d.records:
			if !ok {
				return batch
			}
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

// maybeLogWindow logs aggregate received/sent counts every 2 seconds
// and resets the window, per spec §4.3.8 step 5.
func (d *Driver) maybeLogWindow() {
	if time.Since(d.windowStart) < 2*time.Second {
		return
	}
	slog.Info("pipeline window", "received", d.receivedInWindow, "sent", d.sentInWindow)
	d.receivedInWindow = 0
	d.sentInWindow = 0
	d.windowStart = time.Now()
}

// InjectVia adapts a capture.Handle's Send method into the driver's
// inject function shape.
func InjectVia(handle capture.Handle) func([]byte) error {
	return handle.Send
}
