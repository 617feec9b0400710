// Package avdtp declares the external AVDTP signalling API this daemon
// consumes (spec.md §6): types, the capability wire format, and the
// indication/confirmation interfaces the SEP State Driver implements.
// The transport itself — packet framing, request/response correlation —
// is an external collaborator; this package only describes its surface.
package avdtp

import "fmt"

// Role is the local role of a Stream End Point.
type Role int

const (
	RoleSource Role = iota
	RoleSink
)

func (r Role) String() string {
	if r == RoleSink {
		return "sink"
	}
	return "source"
}

// MediaType identifies the kind of media a SEP carries. Only AUDIO is
// in scope (spec.md §1 non-goals exclude video/other media types).
type MediaType int

const (
	MediaTypeAudio MediaType = iota
)

// State is the AVDTP stream state of a SEP (spec.md §3).
type State int

const (
	StateIdle State = iota
	StateConfigured
	StateOpen
	StateStreaming
	StateClosing
	StateAborting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConfigured:
		return "CONFIGURED"
	case StateOpen:
		return "OPEN"
	case StateStreaming:
		return "STREAMING"
	case StateClosing:
		return "CLOSING"
	case StateAborting:
		return "ABORTING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// SEPHandle is the opaque handle AVDTP assigns a registered SEP
// (spec.md §3: "opaque handle assigned by AVDTP at registration").
type SEPHandle uint32

// MediaCodecType identifies which codec a media-codec capability
// payload describes. Only SBC is mandatory and in scope.
type MediaCodecType uint8

const (
	MediaCodecSBC MediaCodecType = 0x00
)

// Category identifies which AVDTP capability category a rejection
// refers to (spec.md §7).
type Category int

const (
	CategoryNone Category = iota
	CategoryMediaTransport
	CategoryMediaCodec
)

func (c Category) String() string {
	switch c {
	case CategoryMediaTransport:
		return "media-transport"
	case CategoryMediaCodec:
		return "media-codec"
	default:
		return "none"
	}
}
