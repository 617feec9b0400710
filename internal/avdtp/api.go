package avdtp

import "sync/atomic"

// Session is a reference-counted handle to an AVDTP signalling session
// with one remote device. The SEP, the Stream Setup and the idle-suspend
// timer closure each hold an alias (spec.md §9 "Reference-counted
// sessions"); Ref/Unref on Library manage the shared count, and
// drop-to-zero is what the real implementation treats as "tear the
// session down".
type Session struct {
	id         string
	localAddr  string
	remoteAddr string
	refCount   int32
}

// NewSession constructs a Session with an initial reference count of 1,
// owned by the caller that discovered/accepted the connection.
func NewSession(id, localAddr, remoteAddr string) *Session {
	return &Session{id: id, localAddr: localAddr, remoteAddr: remoteAddr, refCount: 1}
}

func (s *Session) ID() string { return s.id }

// Peers returns the local and remote Bluetooth addresses for this
// session (the consumed get_peers operation, spec.md §6).
func (s *Session) Peers() (local, remote string) { return s.localAddr, s.remoteAddr }

// Ref increments the session's reference count and returns the session
// itself, mirroring the consumed ref(session) operation (spec.md §6).
func (s *Session) Ref() *Session {
	atomic.AddInt32(&s.refCount, 1)
	return s
}

// Unref decrements the reference count and returns the count remaining,
// mirroring the consumed unref(session) operation. A Library
// implementation observes a 0 result as "tear the session down".
func (s *Session) Unref() int32 {
	return atomic.AddInt32(&s.refCount, -1)
}

// RefCount reports the current reference count, for tests and
// diagnostics.
func (s *Session) RefCount() int32 { return atomic.LoadInt32(&s.refCount) }

// Stream is the live AVDTP media stream created by a successful
// set_configuration. Its state-change listener is attached via
// StreamAddCB on the owning Library.
type Stream struct {
	session   *Session
	local     SEPHandle
	remote    SEPHandle
	caps      SBCCapability
	state     State
	listeners []func(old, new State)
}

// NewStream constructs a Stream in StateConfigured, as returned by a
// successful SetConfiguration. Any Library implementation (including
// test fakes) uses this to build the value it hands back to the daemon.
func NewStream(session *Session, local, remote SEPHandle, caps SBCCapability) *Stream {
	return &Stream{session: session, local: local, remote: remote, caps: caps, state: StateConfigured}
}

func (s *Stream) Session() *Session         { return s.session }
func (s *Stream) Capability() SBCCapability { return s.caps }
func (s *Stream) State() State              { return s.state }
func (s *Stream) Local() SEPHandle          { return s.local }
func (s *Stream) Remote() SEPHandle         { return s.remote }

// AddListener attaches a state-change listener, mirroring the consumed
// stream_add_cb operation (spec.md §6).
func (s *Stream) AddListener(fn func(old, new State)) {
	s.listeners = append(s.listeners, fn)
}

// SetState transitions the stream to a new state and notifies every
// attached listener in registration order, returning the prior state.
func (s *Stream) SetState(next State) State {
	old := s.state
	s.state = next
	for _, fn := range s.listeners {
		fn(old, next)
	}
	return old
}

// Indications is implemented by this daemon's SEP State Driver and
// invoked by the AVDTP library when the remote peer initiates an
// operation (spec.md §4.3, §6). Each method returns nil to accept, or
// an *Error naming the rejection code/category.
type Indications interface {
	GetCapability(s *Session) (SBCCapability, *Error)
	SetConfiguration(s *Session, sep SEPHandle, stream *Stream, remote SBCCapability) *Error
	GetConfiguration(s *Session, stream *Stream) *Error
	Open(s *Session, stream *Stream) *Error
	Start(s *Session, stream *Stream) *Error
	Suspend(s *Session, stream *Stream) *Error
	Close(s *Session, stream *Stream) *Error
	Abort(s *Session, stream *Stream) *Error
	Reconfigure(s *Session, stream *Stream, remote SBCCapability) *Error
}

// Confirmations is implemented by this daemon's SEP State Driver and
// invoked by the AVDTP library with the outcome of an operation this
// daemon issued (spec.md §4.3, §6). A nil *Error is success.
type Confirmations interface {
	SetConfigurationCfm(s *Session, sep SEPHandle, stream *Stream, err *Error)
	OpenCfm(s *Session, stream *Stream, err *Error)
	StartCfm(s *Session, stream *Stream, err *Error)
	SuspendCfm(s *Session, stream *Stream, err *Error)
	CloseCfm(s *Session, stream *Stream, err *Error)
	AbortCfm(s *Session, stream *Stream, err *Error)
	ReconfigureCfm(s *Session, stream *Stream, err *Error)
}

// Library is the external AVDTP signalling API this daemon consumes
// (spec.md §6). The packet framing and request/response correlation
// behind it are out of scope (spec.md §1); this daemon only issues
// operations and reacts to the Indications/Confirmations callbacks
// supplied at RegisterSEP time.
type Library interface {
	RegisterSEP(role Role, mediaType MediaType, ind Indications, cfm Confirmations) (SEPHandle, error)
	UnregisterSEP(h SEPHandle)

	Discover(s *Session, cb func(err *Error))
	// GetSEPs reports the local/remote SEP pair discover(s) selected for
	// role/mediaType/codec, together with the remote's advertised SBC
	// capability. The reference get_seps only returns handles; this
	// daemon folds the remote capability fetch into the same call since
	// discover's SEP list already carries each SEP's capability payload
	// (get_capability_ind round trips happen during discovery, not
	// afterward).
	GetSEPs(s *Session, role Role, mediaType MediaType, codec MediaCodecType) (local, remote SEPHandle, remoteCaps SBCCapability, ok bool)

	SetConfiguration(s *Session, remote, local SEPHandle, caps SBCCapability) *Stream
	Open(s *Session, stream *Stream)
	Start(s *Session, stream *Stream)
	Suspend(s *Session, stream *Stream)
	Close(s *Session, stream *Stream)
	Abort(s *Session, stream *Stream)

	StreamAddCB(s *Session, stream *Stream, listener func(old, new State))
	StreamHasCapability(stream *Stream, caps SBCCapability) bool
	SEPGetState(sep SEPHandle) State
	GetPeers(s *Session) (local, remote string)

	Ref(s *Session) *Session
	Unref(s *Session)
}
