package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/probability"
	"github.com/fumble/fumble/internal/stats"
)

// buildIPv4UDP returns a minimal valid IPv4+UDP packet with payloadLen
// bytes of application payload, suitable for transportPayloadOffset.
func buildIPv4UDP(payloadLen int) []byte {
	udpLen := 8 + payloadLen
	totalLen := 20 + udpLen

	data := make([]byte, totalLen)
	data[0] = 0x45 // version 4, IHL 5 (20 bytes)
	data[2] = byte(totalLen >> 8)
	data[3] = byte(totalLen)
	data[8] = 64 // TTL
	data[9] = 17 // protocol UDP
	data[20] = 0x00
	data[21] = 0x35
	data[22] = 0x00
	data[23] = 0x35
	data[24] = byte(udpLen >> 8)
	data[25] = byte(udpLen)

	for i := 0; i < payloadLen; i++ {
		data[28+i] = byte(i + 1)
	}
	return data
}

func TestTransportPayloadOffset_IPv4UDP(t *testing.T) {
	data := buildIPv4UDP(16)
	offset, protocol, ok := transportPayloadOffset(data)
	require.True(t, ok)
	assert.Equal(t, byte(17), protocol)
	assert.Equal(t, 28, offset)
}

func TestApplyTamper_AbsentIsIdentity(t *testing.T) {
	batch := []*pkt.Record{pkt.New(buildIPv4UDP(16), pkt.Direction{}, time.Now())}
	out := applyTamper(batch, &config.TamperConfig{}, time.Now(), stats.New())
	assert.Equal(t, batch, out)
}

func TestApplyTamper_MutatesExactlyCeilFractionOfPayload(t *testing.T) {
	p := mustProb(t, 1)
	amount, err := probability.New(0.5)
	require.NoError(t, err)

	data := buildIPv4UDP(10)
	original := make([]byte, len(data))
	copy(original, data)

	rec := pkt.New(data, pkt.Direction{}, time.Now())
	cfg := &config.TamperConfig{Probability: &p, Amount: amount, RecalculateChecksums: false}

	reg := stats.New()
	applyTamper([]*pkt.Record{rec}, cfg, time.Now(), reg)

	tamperedIndices := 0
	for _, f := range reg.Snapshot().Tamper.TamperedFlags {
		if f {
			tamperedIndices++
		}
	}
	assert.Equal(t, 5, tamperedIndices, "exactly ceil(10*0.5)=5 distinct payload bytes are tampered")

	payloadStart := 28
	changed := 0
	for i := payloadStart; i < len(rec.Payload); i++ {
		if rec.Payload[i] != original[i] {
			changed++
		}
	}
	assert.LessOrEqual(t, changed, 5, "at most ceil(10*0.5)=5 bytes should differ (a mutation can leave a byte unchanged)")

	for i := 0; i < payloadStart; i++ {
		assert.Equal(t, original[i], rec.Payload[i], "bytes outside the payload must never change")
	}
}

func TestApplyTamper_ChecksumValidityMatchesRecalculateSetting(t *testing.T) {
	p := mustProb(t, 1)
	amount, err := probability.New(1)
	require.NoError(t, err)

	makeRecord := func() *pkt.Record {
		return pkt.New(buildIPv4UDP(16), pkt.Direction{}, time.Now())
	}

	t.Run("disabled: tampering the payload invalidates the stale UDP checksum", func(t *testing.T) {
		reg := stats.New()
		cfg := &config.TamperConfig{Probability: &p, Amount: amount, RecalculateChecksums: false}
		applyTamper([]*pkt.Record{makeRecord()}, cfg, time.Now(), reg)

		snap := reg.Snapshot()
		assert.False(t, snap.Tamper.UDPChecksumValid, "payload changed but the UDP checksum field didn't, so it must no longer validate")
	})

	t.Run("enabled: recompute leaves the UDP checksum valid", func(t *testing.T) {
		reg := stats.New()
		cfg := &config.TamperConfig{Probability: &p, Amount: amount, RecalculateChecksums: true}
		applyTamper([]*pkt.Record{makeRecord()}, cfg, time.Now(), reg)

		snap := reg.Snapshot()
		assert.True(t, snap.Tamper.IPChecksumValid)
		assert.True(t, snap.Tamper.UDPChecksumValid)
	})
}
