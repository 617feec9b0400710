package a2dp

import "github.com/holoware/btaudiod/internal/avdtp"

// StreamConsumer is notified when a SOURCE-role stream becomes
// available for playback (spec.md §4.3 "for SOURCE role, notify the
// sink consumer of a new inbound stream"). The audio routing itself is
// out of scope (spec.md §1 "media routing policy"); this is the seam a
// host would hang its decoder pipeline off of.
type StreamConsumer interface {
	StreamReady(stream *avdtp.Stream)
}

// noopConsumer is used when no StreamConsumer is configured.
type noopConsumer struct{}

func (noopConsumer) StreamReady(*avdtp.Stream) {}
