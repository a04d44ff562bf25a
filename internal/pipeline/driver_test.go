package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/shared"
	"github.com/fumble/fumble/internal/stats"
)

func TestDriver_Run_InjectsSurvivorsAndStopsOnSignal(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	records := make(chan *pkt.Record, 4)
	records <- pkt.New([]byte{1}, pkt.Direction{}, time.Now())
	records <- pkt.New([]byte{2}, pkt.Direction{}, time.Now())

	var mu sync.Mutex
	var injected [][]byte
	inject := func(data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		cp := make([]byte, len(data))
		copy(cp, data)
		injected = append(injected, cp)
		return nil
	}

	var running atomic.Bool
	running.Store(true)

	driver := NewDriver(records, cell, stats.New(), inject, &running)

	done := make(chan error, 1)
	go func() { done <- driver.Run() }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(injected) == 2
	}, time.Second, time.Millisecond)

	running.Store(false)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []byte{1}, injected[0])
	assert.Equal(t, []byte{2}, injected[1])
}

func TestDriver_Run_StopsOnInjectError(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	records := make(chan *pkt.Record, 1)
	records <- pkt.New([]byte{1}, pkt.Direction{}, time.Now())

	injectErr := assert.AnError
	inject := func(data []byte) error { return injectErr }

	var running atomic.Bool
	running.Store(true)

	driver := NewDriver(records, cell, stats.New(), inject, &running)
	err := driver.Run()

	assert.ErrorIs(t, err, injectErr)
}
