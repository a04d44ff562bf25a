// Package bpf compiles and validates tcpdump-syntax filter strings,
// delegating syntax checking to libpcap and adding the port-range
// post-check spec.md §4.0 requires.
package bpf

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// ErrInvalidPort is returned when a filter names a port literal outside
// 0..=65535.
var ErrInvalidPort = errors.New("invalid port in filter")

// portLiteral matches tcpdump's port/src port/dst port keyword forms.
var portLiteral = regexp.MustCompile(`\b(?:src\s+|dst\s+)?port\s+(\d+)\b`)

// Compile assembles filter (tcpdump/BPF syntax) into raw BPF
// instructions for the Ethernet link type and the given capture snap
// length.
func Compile(filter string, snapLen int) ([]bpf.RawInstruction, error) {
	if err := CheckPortRange(filter); err != nil {
		return nil, err
	}

	pcapInstructions, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, snapLen, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter: %w", err)
	}

	raw := make([]bpf.RawInstruction, len(pcapInstructions))
	for i, ins := range pcapInstructions {
		raw[i] = bpf.RawInstruction{Op: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	return raw, nil
}

// CheckPortRange scans filter for port literals and rejects any value
// outside 0..=65535, independent of whatever libpcap itself accepts.
func CheckPortRange(filter string) error {
	for _, m := range portLiteral.FindAllStringSubmatch(filter, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidPort, m[1])
		}
		if n < 0 || n > 65535 {
			return fmt.Errorf("%w: %d out of range 0-65535", ErrInvalidPort, n)
		}
	}
	return nil
}

// Validate performs the "is this filter valid" check: opening then
// immediately closing a throwaway libpcap handle, plus the port-range
// post-check.
func Validate(filter string) error {
	if err := CheckPortRange(filter); err != nil {
		return err
	}

	inactive, err := pcap.NewInactiveHandle("any")
	if err != nil {
		return fmt.Errorf("failed to open throwaway handle: %w", err)
	}
	defer inactive.CleanUp()

	handle, err := inactive.Activate()
	if err != nil {
		return fmt.Errorf("failed to activate throwaway handle: %w", err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	return nil
}
