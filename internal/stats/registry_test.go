package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordDrop(t *testing.T) {
	r := New()
	r.RecordDrop(1000, 300)
	snap := r.Snapshot()
	assert.Equal(t, uint64(1000), snap.Drop.TotalPackets)
	assert.Equal(t, uint64(300), snap.Drop.TotalDropped)
	assert.InDelta(t, 0.3, snap.Drop.DropRate, 1e-9)
}

func TestRecordThrottle(t *testing.T) {
	r := New()
	r.RecordThrottle(true, 5)
	r.RecordThrottle(true, 5)
	snap := r.Snapshot()
	assert.True(t, snap.Throttle.IsThrottling)
	assert.Equal(t, uint64(10), snap.Throttle.DroppedCount)
}

func TestShouldUpdateTamper_RateLimited(t *testing.T) {
	r := New()
	now := time.Now()
	assert.True(t, r.ShouldUpdateTamper(now))
	r.RecordTamper(now, []byte{1, 2}, []bool{true, false}, true, true, true)
	assert.False(t, r.ShouldUpdateTamper(now.Add(100*time.Millisecond)))
	assert.True(t, r.ShouldUpdateTamper(now.Add(600*time.Millisecond)))
}

func TestRecordDuplicate(t *testing.T) {
	r := New()
	r.RecordDuplicate(100, 400)
	snap := r.Snapshot()
	assert.InDelta(t, 4.0, snap.Duplicate.Multiplier, 1e-9)
}

func TestRecordBandwidth_SkipsRateWhenNotSampled(t *testing.T) {
	r := New()
	r.RecordBandwidth(5, 0, false)
	snap := r.Snapshot()
	assert.Equal(t, 5, snap.Bandwidth.Buffered)
	assert.Equal(t, 0.0, snap.Bandwidth.RateKBps)

	r.RecordBandwidth(3, 12.5, true)
	snap = r.Snapshot()
	assert.InDelta(t, 12.5, snap.Bandwidth.RateKBps, 1e-9)
}
