package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/stats"
)

// applyTamper mutates a random subset of each record's transport
// payload and, when configured, recomputes IP/TCP/UDP checksums so
// the tampered packet survives downstream validation. Statistics are
// rate-limited to stats.ShouldUpdateTamper.
func applyTamper(batch []*pkt.Record, cfg *config.TamperConfig, now time.Time, reg *stats.Registry) []*pkt.Record {
	if cfg == nil || cfg.Probability == nil {
		return batch
	}
	p := cfg.Probability.Value()
	amount := cfg.Amount.Value()
	shouldUpdateStats := reg.ShouldUpdateTamper(now)

	for _, rec := range batch {
		if rand.Float64() >= p {
			continue
		}

		payloadOffset, protocol, ok := transportPayloadOffset(rec.Payload)
		if !ok {
			slog.Warn("tamper: unsupported IP version, skipping")
			continue
		}
		if payloadOffset >= len(rec.Payload) {
			continue
		}

		payload := rec.Payload[payloadOffset:]
		bytesToTamper := int(math.Ceil(float64(len(payload)) * amount))
		flags := tamperBytes(payload, bytesToTamper)

		if cfg.RecalculateChecksums {
			if err := recomputeChecksums(rec, protocol); err != nil {
				slog.Warn("tamper: failed to recompute checksums", "error", err)
			}
		}

		if shouldUpdateStats {
			snapshot := make([]byte, len(payload))
			copy(snapshot, payload)
			// checksum_valid is derived from the current on-wire state
			// regardless of recalculate_checksums, matching the
			// original's ip_checksum()/tcp_checksum()/udp_checksum()
			// post-tamper verification.
			ipOK, tcpOK, udpOK := verifyChecksums(rec.Payload, protocol)
			reg.RecordTamper(now, snapshot, flags, ipOK, tcpOK, udpOK)
		}
	}
	return batch
}

// transportPayloadOffset returns the byte offset where the transport
// payload begins and the transport protocol number, per spec §4.3.5
// steps 1-4.
func transportPayloadOffset(data []byte) (offset int, protocol byte, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	version := data[0] >> 4

	var ipHdrLen int
	switch version {
	case 4:
		if len(data) < 10 {
			return 0, 0, false
		}
		ipHdrLen = int(data[0]&0x0F) * 4
		protocol = data[9]
	case 6:
		if len(data) < 7 {
			return 0, 0, false
		}
		ipHdrLen = 40
		protocol = data[6]
	default:
		return 0, 0, false
	}

	transportHdrLen := 0
	switch protocol {
	case 17: // UDP
		transportHdrLen = 8
	case 6: // TCP
		tcpFlagsOffset := ipHdrLen + 12
		if tcpFlagsOffset >= len(data) {
			return ipHdrLen, protocol, true
		}
		transportHdrLen = int(data[tcpFlagsOffset]>>4) * 4
	default:
		transportHdrLen = 0
	}

	return ipHdrLen + transportHdrLen, protocol, true
}

// tamperBytes mutates exactly n distinct byte indices of payload
// in-place, each via one of three mutation kinds, and returns a
// parallel tampered-flags bit-vector.
func tamperBytes(payload []byte, n int) []bool {
	flags := make([]bool, len(payload))
	if len(payload) == 0 || n <= 0 {
		return flags
	}
	if n > len(payload) {
		n = len(payload)
	}

	tampered := 0
	seen := make(map[int]bool, n)
	for tampered < n {
		idx := rand.IntN(len(payload))
		if seen[idx] {
			continue
		}
		seen[idx] = true
		flags[idx] = true
		tampered++

		switch rand.IntN(3) {
		case 0: // set a random bit to 1
			bit := rand.IntN(8)
			payload[idx] |= 1 << bit
		case 1: // flip a random bit
			bit := rand.IntN(8)
			payload[idx] ^= 1 << bit
		case 2: // add a signed offset in [-64, 64), wrapping
			delta := int8(rand.IntN(128) - 64)
			payload[idx] = byte(int8(payload[idx]) + delta)
		}
	}
	return flags
}

// recomputeChecksums invokes gopacket's serialization path to
// recompute IP/TCP/UDP checksums in place.
func recomputeChecksums(rec *pkt.Record, protocol byte) error {
	version := rec.Payload[0] >> 4

	var netLayer gopacket.NetworkLayer
	packet := gopacket.NewPacket(rec.Payload, layerTypeForVersion(version), gopacket.NoCopy)

	if v4 := packet.Layer(layers.LayerTypeIPv4); v4 != nil {
		ip4 := v4.(*layers.IPv4)
		netLayer = ip4
	} else if v6 := packet.Layer(layers.LayerTypeIPv6); v6 != nil {
		ip6 := v6.(*layers.IPv6)
		netLayer = ip6
	}
	if netLayer == nil {
		return fmt.Errorf("tamper: no IP layer found to recompute checksums for")
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}

	var serializableLayers []gopacket.SerializableLayer
	for _, l := range packet.Layers() {
		if sl, ok := l.(gopacket.SerializableLayer); ok {
			serializableLayers = append(serializableLayers, sl)
		}
	}

	switch protocol {
	case 6:
		if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
			tcpLayer.(*layers.TCP).SetNetworkLayerForChecksum(netLayer)
		}
	case 17:
		if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
			udpLayer.(*layers.UDP).SetNetworkLayerForChecksum(netLayer)
		}
	}

	if err := gopacket.SerializeLayers(buf, opts, serializableLayers...); err != nil {
		return fmt.Errorf("tamper: serialize failed: %w", err)
	}
	copy(rec.Payload, buf.Bytes())
	return nil
}

// verifyChecksums decodes payload fresh (without mutating it) and
// reports, per protocol, whether the on-wire checksum matches what a
// correct recompute would produce. This runs regardless of whether
// recalculate_checksums is enabled, mirroring
// original_source/src/network/modules/tamper.rs's unconditional
// stats.checksum_valid = ip_checksum() && tcp_checksum() && udp_checksum()
// post-tamper verification: after tampering without recalculation, the
// stored checksum will no longer match and these report false.
func verifyChecksums(payload []byte, protocol byte) (ipOK, tcpOK, udpOK bool) {
	if len(payload) == 0 {
		return false, false, false
	}
	version := payload[0] >> 4
	packet := gopacket.NewPacket(payload, layerTypeForVersion(version), gopacket.NoCopy)

	var netLayer gopacket.NetworkLayer
	if v4, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		netLayer = v4
		ipOK = verifyIPv4Checksum(v4)
	} else if v6, ok := packet.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ok {
		// IPv6 headers carry no checksum of their own.
		netLayer = v6
		ipOK = true
	} else {
		return false, false, false
	}

	if protocol == 6 {
		if tcpLayer, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
			tcpOK = verifyTCPChecksum(tcpLayer, netLayer)
		}
	}
	if protocol == 17 {
		if udpLayer, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
			udpOK = verifyUDPChecksum(udpLayer, netLayer)
		}
	}
	return ipOK, tcpOK, udpOK
}

// verifyIPv4Checksum compares ip4's on-wire Checksum field against
// what SerializeTo would compute fresh. SerializeTo overwrites the
// field in place, so the original value is captured first.
func verifyIPv4Checksum(ip4 *layers.IPv4) bool {
	want := ip4.Checksum
	scratch := gopacket.NewSerializeBuffer()
	if err := ip4.SerializeTo(scratch, gopacket.SerializeOptions{ComputeChecksums: true}); err != nil {
		return false
	}
	return ip4.Checksum == want
}

func verifyTCPChecksum(tcp *layers.TCP, netLayer gopacket.NetworkLayer) bool {
	want := tcp.Checksum
	if err := tcp.SetNetworkLayerForChecksum(netLayer); err != nil {
		return false
	}
	scratch := gopacket.NewSerializeBuffer()
	if err := tcp.SerializeTo(scratch, gopacket.SerializeOptions{ComputeChecksums: true}); err != nil {
		return false
	}
	return tcp.Checksum == want
}

func verifyUDPChecksum(udp *layers.UDP, netLayer gopacket.NetworkLayer) bool {
	want := udp.Checksum
	if err := udp.SetNetworkLayerForChecksum(netLayer); err != nil {
		return false
	}
	scratch := gopacket.NewSerializeBuffer()
	if err := udp.SerializeTo(scratch, gopacket.SerializeOptions{ComputeChecksums: true}); err != nil {
		return false
	}
	return udp.Checksum == want
}

func layerTypeForVersion(version byte) gopacket.LayerType {
	if version == 6 {
		return layers.LayerTypeIPv6
	}
	return layers.LayerTypeIPv4
}
