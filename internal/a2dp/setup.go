package a2dp

import (
	"github.com/holoware/btaudiod/internal/avdtp"
	"github.com/holoware/btaudiod/internal/btlog"
)

// Callback is invoked exactly once when a Stream Setup finalizes: with a
// non-nil stream on success, or a nil stream and non-nil err on failure
// (spec.md §7 "every client callback fires exactly once").
type Callback func(stream *avdtp.Stream, err *avdtp.Error)

type callbackRecord struct {
	id       uint64
	fn       Callback
	userData interface{}
}

// Setup is the per-session ephemeral record tracking an in-flight stream
// setup attempt (spec.md §3 "Stream Setup"). At most one Setup exists
// per AVDTP session at any time.
type Setup struct {
	session *avdtp.Session
	sep     *SEP

	// remote is the peer SEP handle discovery resolved, held here while
	// auto_config is off and set_configuration awaits a manual trigger
	// (see Pool.ConfigureManual).
	remote avdtp.SEPHandle

	preferredCodec *avdtp.SBCCapability
	start          bool
	canceled       bool

	callbacks []callbackRecord
}

// addCallback appends a new callback record with a freshly allocated id
// — the process-wide monotonic counter spec.md §4.2 calls for, 0
// reserved for failure — and returns it.
func (s *Setup) addCallback(fn Callback, userData interface{}) uint64 {
	id := btlog.NextID()
	s.callbacks = append(s.callbacks, callbackRecord{id: id, fn: fn, userData: userData})
	return id
}

// removeCallback deletes the callback with the given id, returning
// whether one was found.
func (s *Setup) removeCallback(id uint64) bool {
	for i, cb := range s.callbacks {
		if cb.id == id {
			s.callbacks = append(s.callbacks[:i], s.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// finalize invokes every waiting callback, in insertion order, with the
// given outcome (spec.md §5 "delivered to the client in insertion
// order"), then clears the callback list. The Setup itself is removed
// from the Pool by the caller.
func (s *Setup) finalize(stream *avdtp.Stream, err *avdtp.Error) {
	cbs := s.callbacks
	s.callbacks = nil
	for _, cb := range cbs {
		cb.fn(stream, err)
	}
}
