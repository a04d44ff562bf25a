package shared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fumble/fumble/internal/config"
)

func TestConfigCell_SnapshotAndSet(t *testing.T) {
	cell := NewConfigCell(config.Configuration{Filter: "tcp"})
	assert.Equal(t, "tcp", cell.Snapshot().Filter)

	cell.Set(config.Configuration{Filter: "udp"})
	assert.Equal(t, "udp", cell.Snapshot().Filter)
}

func TestConfigCell_Mutate(t *testing.T) {
	cell := NewConfigCell(config.Configuration{})
	cell.Mutate(func(c *config.Configuration) {
		c.Filter = "icmp"
	})
	assert.Equal(t, "icmp", cell.Snapshot().Filter)
}

func TestConfigCell_ConcurrentAccess(t *testing.T) {
	cell := NewConfigCell(config.Configuration{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cell.Mutate(func(c *config.Configuration) {
				c.Duplicate.Count++
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, cell.Snapshot().Duplicate.Count)
}
