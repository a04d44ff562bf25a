package pipeline

import (
	"time"

	"github.com/fumble/fumble/internal/pkt"
)

// newRecordBatch builds n records with distinct single-byte payloads
// and strictly increasing arrival times, for stage tests that only
// care about count and ordering.
func newRecordBatch(n int) []*pkt.Record {
	base := time.Now()
	batch := make([]*pkt.Record, n)
	for i := 0; i < n; i++ {
		batch[i] = pkt.New([]byte{byte(i)}, pkt.Direction{}, base.Add(time.Duration(i)*time.Millisecond))
	}
	return batch
}
