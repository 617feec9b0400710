// SEP State Driver: the avdtp.Indications and avdtp.Confirmations
// implementations (spec.md §4.3). Bundled onto *Pool itself rather than
// a separate type, since every handler immediately needs the Pool's
// SEP table and in-flight Setup map — see the package doc comment.
package a2dp

import "github.com/holoware/btaudiod/internal/avdtp"

// GetCapability answers get_capability_ind with the full local SBC
// capability (spec.md §4.3): every frequency, every channel mode, every
// block length, both subbands options, both allocation methods, and the
// full [2,64] bitpool range. The capability is the same for every SEP,
// so which one asked is immaterial.
func (p *Pool) GetCapability(s *avdtp.Session) (avdtp.SBCCapability, *avdtp.Error) {
	return avdtp.LocalSBCCapability(), nil
}

// SetConfiguration answers set_configuration_ind: a remote peer offering
// to configure one of our SEPs. Rejects if the offered bitpool range
// falls outside [2,64]; otherwise records the stream on the SEP, arms
// its state-change listener, and — for a SOURCE SEP — notifies the
// stream consumer (spec.md §4.3).
func (p *Pool) SetConfiguration(s *avdtp.Session, sepHandle avdtp.SEPHandle, stream *avdtp.Stream, remote avdtp.SBCCapability) *avdtp.Error {
	if remote.MinBitpool < avdtp.MinBitpool || remote.MaxBitpool > avdtp.MaxBitpool || remote.MinBitpool > remote.MaxBitpool {
		return avdtp.NewError(avdtp.ErrUnsupportedConfiguration, avdtp.CategoryMediaCodec, "bitpool range outside [2,64]")
	}

	p.mu.Lock()
	sep := p.findByHandleLocked(sepHandle)
	if sep == nil {
		p.mu.Unlock()
		return avdtp.NewError(avdtp.ErrInvalidCommand, avdtp.CategoryNone, "unknown SEP")
	}
	sep.session = s
	sep.stream = stream
	sep.state = avdtp.StateConfigured
	role := sep.Role
	consumer := p.consumer
	p.mu.Unlock()

	p.lib.StreamAddCB(s, stream, func(old, next avdtp.State) { p.onStreamStateChanged(sep, old, next) })
	if role == avdtp.RoleSource {
		consumer.StreamReady(stream)
	}
	return nil
}

// GetConfiguration, Open, Start, Suspend, Close, Abort and Reconfigure
// are all remote-initiated requests this daemon always accepts
// (spec.md §4.3), with abort additionally clearing the SEP's stream
// slot.
func (p *Pool) GetConfiguration(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return nil
}

func (p *Pool) Open(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return nil
}

// Start answers start_ind: takes a reference on the session and arms
// the idle-suspend timer (spec.md §4.3).
func (p *Pool) Start(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	p.mu.Lock()
	sep := p.findByHandleLocked(stream.Local())
	if sep != nil {
		sep.state = avdtp.StateStreaming
		p.armIdleTimer(sep)
	}
	p.mu.Unlock()
	p.lib.Ref(s)
	return nil
}

func (p *Pool) Suspend(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return nil
}

func (p *Pool) Close(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return nil
}

// Abort answers abort_ind: accepted, and clears the SEP's stream slot.
func (p *Pool) Abort(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	p.mu.Lock()
	if sep := p.findByHandleLocked(stream.Local()); sep != nil {
		p.clearSEPLocked(sep)
	}
	p.mu.Unlock()
	return nil
}

func (p *Pool) Reconfigure(s *avdtp.Session, stream *avdtp.Stream, remote avdtp.SBCCapability) *avdtp.Error {
	return nil
}

// clearSEPLocked resets a SEP back to IDLE, disarming its timer and
// dropping its session/stream references. Must be called with p.mu
// held.
func (p *Pool) clearSEPLocked(sep *SEP) {
	p.disarmIdleTimer(sep)
	sep.stream = nil
	sep.session = nil
	sep.state = avdtp.StateIdle
	sep.suspending = false
	sep.starting = false
}

// onStreamStateChanged is the stream_add_cb listener attached by
// SetConfiguration (both indication and confirmation paths). On a
// transition to IDLE it cancels the idle-suspend timer, drops the
// session reference, and clears the stream slot (spec.md §4.3).
func (p *Pool) onStreamStateChanged(sep *SEP, old, next avdtp.State) {
	if next != avdtp.StateIdle {
		return
	}
	p.mu.Lock()
	session := sep.session
	p.clearSEPLocked(sep)
	p.mu.Unlock()
	if session != nil {
		p.lib.Unref(session)
	}
}

// --- Confirmations ---

// SetConfigurationCfm answers the outcome of a locally issued
// set_configuration (spec.md §4.3). On success it attaches the
// state-change listener, records the stream, notifies the consumer for
// SOURCE SEPs, and issues open; on error it finalizes the Setup as
// failure.
func (p *Pool) SetConfigurationCfm(s *avdtp.Session, sepHandle avdtp.SEPHandle, stream *avdtp.Stream, err *avdtp.Error) {
	if err != nil {
		p.completeSetup(s, nil, err)
		return
	}

	p.mu.Lock()
	sep := p.findByHandleLocked(sepHandle)
	if sep == nil {
		p.mu.Unlock()
		return
	}
	sep.session = s
	sep.stream = stream
	sep.state = avdtp.StateConfigured
	role := sep.Role
	consumer := p.consumer
	p.mu.Unlock()

	p.lib.StreamAddCB(s, stream, func(old, next avdtp.State) { p.onStreamStateChanged(sep, old, next) })
	if role == avdtp.RoleSource {
		consumer.StreamReady(stream)
	}
	p.lib.Open(s, stream)
}

// OpenCfm answers the outcome of a locally issued open (spec.md §4.3).
func (p *Pool) OpenCfm(s *avdtp.Session, stream *avdtp.Stream, err *avdtp.Error) {
	p.mu.Lock()
	setup, ok := p.setups[s]
	canceled := ok && setup.canceled
	if canceled {
		delete(p.setups, s)
	}
	if !canceled && err == nil {
		if sep := p.findByHandleLocked(stream.Local()); sep != nil {
			sep.state = avdtp.StateOpen
		}
	}
	p.mu.Unlock()

	if canceled {
		p.lib.Close(s, stream)
		return
	}
	if err != nil {
		p.completeSetup(s, nil, err)
		return
	}
	if ok && setup.start {
		p.lib.Start(s, stream)
		return
	}
	p.completeSetup(s, stream, nil)
}

// StartCfm answers the outcome of a locally issued start (spec.md
// §4.3).
func (p *Pool) StartCfm(s *avdtp.Session, stream *avdtp.Stream, err *avdtp.Error) {
	p.mu.Lock()
	setup, ok := p.setups[s]
	canceled := ok && setup.canceled
	if !canceled && err == nil {
		if sep := p.findByHandleLocked(stream.Local()); sep != nil {
			sep.state = avdtp.StateStreaming
		}
	}
	p.mu.Unlock()

	if canceled {
		p.mu.Lock()
		delete(p.setups, s)
		p.mu.Unlock()
		p.lib.Close(s, stream)
		return
	}
	if err != nil {
		p.completeSetup(s, nil, err)
		return
	}
	p.completeSetup(s, stream, nil)
}

// SuspendCfm answers the outcome of a locally issued suspend (spec.md
// §4.3). A canceled waiting Setup is dropped rather than restarted —
// resolving spec.md §9's open question on canceled-during-suspend in
// favour of "drop, do not restart".
func (p *Pool) SuspendCfm(s *avdtp.Session, stream *avdtp.Stream, err *avdtp.Error) {
	p.mu.Lock()
	if sep := p.findByHandleLocked(stream.Local()); sep != nil {
		sep.suspending = false
		if err == nil {
			sep.state = avdtp.StateOpen
		}
	}
	setup, ok := p.setups[s]
	p.mu.Unlock()

	if !ok {
		return
	}
	if setup.canceled {
		p.mu.Lock()
		delete(p.setups, s)
		p.mu.Unlock()
		return
	}
	if setup.start {
		p.lib.Start(s, stream)
	}
}

// CloseCfm answers the outcome of a locally issued close (spec.md
// §4.3). When the close was the codec-mismatch recovery path
// (setup.start) it reissues discover instead of finalizing.
func (p *Pool) CloseCfm(s *avdtp.Session, stream *avdtp.Stream, err *avdtp.Error) {
	p.mu.Lock()
	setup, ok := p.setups[s]
	if ok && setup.canceled {
		delete(p.setups, s)
		p.mu.Unlock()
		return
	}
	if ok && setup.start {
		sep := setup.sep
		if sep != nil {
			p.clearSEPLocked(sep)
			role := sep.Role
			p.mu.Unlock()
			p.beginDiscover(s, role)
			return
		}
	}
	p.mu.Unlock()
	p.completeSetup(s, nil, err)
}

// ReconfigureCfm answers the outcome of a locally issued reconfigure;
// same shape as OpenCfm (spec.md §4.3).
func (p *Pool) ReconfigureCfm(s *avdtp.Session, stream *avdtp.Stream, err *avdtp.Error) {
	p.mu.Lock()
	setup, ok := p.setups[s]
	if ok && setup.canceled {
		delete(p.setups, s)
		p.mu.Unlock()
		p.lib.Close(s, stream)
		return
	}
	p.mu.Unlock()

	if err != nil {
		p.completeSetup(s, nil, err)
		return
	}
	if ok && setup.start {
		p.lib.Start(s, stream)
		return
	}
	p.completeSetup(s, stream, nil)
}

// AbortCfm is a no-op beyond what the caller logs (spec.md §4.3).
func (p *Pool) AbortCfm(s *avdtp.Session, stream *avdtp.Stream, err *avdtp.Error) {
}
