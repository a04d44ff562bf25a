package capture

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fumble/fumble/internal/metrics"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/shared"
)

// Loop runs on the capture thread (T1): blocking receive from the OS
// interface, hot-swapping the filter when the shared config changes,
// and producing records into a bounded channel for the pipeline
// driver.
type Loop struct {
	newHandle        func() (Handle, error)
	cell             *shared.ConfigCell
	out              chan<- *pkt.Record
	running          *atomic.Bool
	iface            string
	opts             Options
	lastOpenedFilter string
	handle           Handle
}

// NewLoop builds a capture Loop of the given backend type against
// iface, publishing records onto out.
func NewLoop(typ Type, iface string, opts Options, cell *shared.ConfigCell, out chan<- *pkt.Record, running *atomic.Bool) *Loop {
	factory := NewFactory()
	return newLoopWithHandleFactory(func() (Handle, error) { return factory.CreateHandle(typ) }, iface, opts, cell, out, running)
}

// newLoopWithHandleFactory builds a Loop from an arbitrary handle
// constructor, used directly by tests to inject a MemoryHandle.
func newLoopWithHandleFactory(newHandle func() (Handle, error), iface string, opts Options, cell *shared.ConfigCell, out chan<- *pkt.Record, running *atomic.Bool) *Loop {
	return &Loop{
		newHandle: newHandle,
		cell:      cell,
		out:       out,
		running:   running,
		iface:     iface,
		opts:      opts,
	}
}

// Run blocks, reading packets and forwarding them, until running is
// cleared. The handle is closed on every exit path.
func (l *Loop) Run() error {
	defer l.closeHandle()

	for l.running.Load() {
		filter := l.cell.Snapshot().Filter
		if l.handle == nil || filter != l.lastOpenedFilter {
			if err := l.reopen(filter); err != nil {
				slog.Error("capture: failed to open handle, retrying", "error", err)
				time.Sleep(250 * time.Millisecond)
				continue
			}
		}

		data, ci, err := l.handle.ReadPacket()
		if err != nil {
			slog.Debug("capture: transient read error", "error", err)
			continue
		}

		rec := pkt.New(data, pkt.Direction{
			CaptureInfo: ci,
			Interface:   l.iface,
		}, time.Now())

		metrics.CapturedPacketsTotal.WithLabelValues(l.iface).Inc()

		// channel is bounded, single-producer; overflow policy is
		// block-producer, so a direct send is correct here.
		l.out <- rec
	}
	return nil
}

func (l *Loop) reopen(filter string) error {
	l.closeHandle()

	handle, err := l.newHandle()
	if err != nil {
		return err
	}

	opts := l.opts
	opts.Filter = filter
	if err := handle.Open(l.iface, opts); err != nil {
		return err
	}

	l.handle = handle
	l.lastOpenedFilter = filter
	return nil
}

func (l *Loop) closeHandle() {
	if l.handle != nil {
		_ = l.handle.Close()
		l.handle = nil
	}
}
