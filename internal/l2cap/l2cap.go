// Package l2cap declares the external L2CAP transport API this daemon
// consumes for the HID dual-channel connector (spec.md §6): connecting
// to a PSM, reading, and watching a channel for readability/hangup/
// error. Framing and the kernel socket layer themselves are out of
// scope (spec.md §1).
package l2cap

import "context"

// Security is the L2CAP security level requested at connect time.
type Security int

const (
	SecurityLow Security = iota
	SecurityMedium
	SecurityHigh
)

// PSM values this daemon connects to (spec.md §6).
const (
	PSMHIDControl   = 0x0011
	PSMHIDInterrupt = 0x0013
)

// WatchCondition mirrors the glib GIOCondition flags the original
// watches for (spec.md §4.5): readable data, hangup, error, or the
// channel having become invalid (used as a "did this already fire"
// guard to avoid a double shutdown, spec.md §4.5 "G_IO_NVAL guard").
type WatchCondition int

const (
	CondReadable WatchCondition = 1 << iota
	CondHangup
	CondError
	CondInvalid
)

// Channel is an open L2CAP connection to one PSM on one remote device.
type Channel interface {
	// Read reads up to len(buf) bytes. Mirrors a non-blocking socket
	// read; io.EOF or a transport error is returned the same way.
	Read(buf []byte) (int, error)
	// Shutdown closes the channel. Idempotent: a second call after the
	// channel is already closed returns nil (spec.md §7 "implementations
	// must tolerate redundant close/unref").
	Shutdown() error
	// Valid reports whether the channel has not yet been shut down,
	// implementing the G_IO_NVAL guard from spec.md §4.5.
	Valid() bool
}

// Watch is a registration reacting to conditions on a Channel. Watches
// are removed by calling Cancel exactly once; the HID connector tracks
// whether a watch is still armed by nilling out its handle.
type Watch interface {
	Cancel()
}

// ConnectResult is delivered to a connect callback once the connection
// either succeeds or fails.
type ConnectResult struct {
	Channel Channel
	Err     error
}

// Transport is the external L2CAP API consumed by internal/hid.
type Transport interface {
	// Connect initiates an outbound connection to addr on psm with the
	// given security level, sourced from the adapter's own address
	// (spec.md §4.5, §9 "always binds the local L2CAP socket to the
	// adapter's own address"). cb fires exactly once.
	Connect(ctx context.Context, srcAddr, dstAddr string, psm int, sec Security, cb func(ConnectResult))

	// WatchChannel arms a watch reacting to any of the given
	// conditions; onEvent fires once per matching event with the set of
	// conditions observed (may combine hangup|error in one callback).
	WatchChannel(ch Channel, conditions WatchCondition, onEvent func(WatchCondition)) Watch
}
