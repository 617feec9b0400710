package a2dp

import (
	"github.com/holoware/btaudiod/internal/avdtp"
	"github.com/holoware/btaudiod/internal/codec"
)

// selectEligible picks the first SEP of the given role that is not
// locked and either idle or already owned by session (spec.md §4.2
// request_stream "Eligible ="). Must be called with p.mu held.
func (p *Pool) selectEligible(role avdtp.Role, session *avdtp.Session) *SEP {
	for _, s := range p.seps {
		if s.Role != role || s.locked {
			continue
		}
		if s.stream == nil || s.session == session {
			return s
		}
	}
	return nil
}

// RequestStream is the request_stream entry point (spec.md §4.2). The
// reference operation dispatches against "the" SEP pool; since this
// daemon runs both A2DP roles at once, role names which pool (SOURCE or
// SINK) to scan — an explicit parameter the single-role reference had
// no need for.
func (p *Pool) RequestStream(session *avdtp.Session, role avdtp.Role, start bool, cb Callback, userData interface{}, mediaCodec *avdtp.SBCCapability) (id uint64) {
	p.mu.Lock()
	var effects []func()
	defer func() {
		p.mu.Unlock()
		for _, fn := range effects {
			fn()
		}
	}()

	if setup, ok := p.setups[session]; ok {
		setup.canceled = false
		if mediaCodec != nil {
			setup.preferredCodec = mediaCodec
		}
		setup.start = setup.start || start
		// CancelStream clears the target SEP when its last callback is
		// removed (coordinator.go CancelStream), but an in-flight AVDTP
		// op keeps the Setup alive. Re-requesting against that same
		// session must re-run the eligibility scan and set a fresh
		// target SEP (spec.md §4.2 "set target SEP";
		// original_source/audio/a2dp.c:1071-1100), or the pending
		// confirmation has nothing to dereference.
		if setup.sep == nil {
			setup.sep = p.selectEligible(role, session)
		}
		id = setup.addCallback(cb, userData)
		return id
	}

	sep := p.selectEligible(role, session)
	if sep == nil {
		return 0
	}

	setup := &Setup{session: session, sep: sep, preferredCodec: mediaCodec, start: start}
	id = setup.addCallback(cb, userData)
	p.setups[session] = setup

	switch sep.state {
	case avdtp.StateIdle:
		effects = append(effects, func() { p.beginDiscover(session, role) })

	case avdtp.StateOpen:
		stream := sep.stream
		switch {
		case !start:
			effects = append(effects, func() { p.completeSetup(session, stream, nil) })
		case mediaCodec != nil && !p.lib.StreamHasCapability(stream, *mediaCodec):
			effects = append(effects, func() { p.lib.Close(session, stream) })
		default:
			effects = append(effects, func() { p.lib.Start(session, stream) })
		}

	case avdtp.StateStreaming:
		stream := sep.stream
		if !start || sep.suspending {
			effects = append(effects, func() { p.completeSetup(session, stream, nil) })
		} else {
			p.disarmIdleTimer(sep)
			effects = append(effects, func() { p.completeSetup(session, stream, nil) })
		}

	default:
		delete(p.setups, session)
		failErr := avdtp.NewError(avdtp.ErrAlreadyPresent, avdtp.CategoryNone, "sep not in a requestable state")
		effects = append(effects, func() { setup.finalize(nil, failErr) })
		return 0
	}

	return id
}

// completeSetup pops the setup for session (if still present — a
// cancellation may have already removed it) and finalizes it with the
// given outcome. It takes p.mu itself, so it is only ever run as a
// deferred effect after the caller that decided to finalize has
// released the lock.
func (p *Pool) completeSetup(session *avdtp.Session, stream *avdtp.Stream, err *avdtp.Error) {
	p.mu.Lock()
	setup, ok := p.setups[session]
	if ok {
		delete(p.setups, session)
	}
	p.mu.Unlock()
	if ok {
		setup.finalize(stream, err)
	}
}

// beginDiscover issues discover(session) and arranges the Codec
// Selector and set_configuration to run when it completes (spec.md
// §4.2 IDLE dispatch).
func (p *Pool) beginDiscover(session *avdtp.Session, role avdtp.Role) {
	p.lib.Discover(session, func(err *avdtp.Error) {
		p.onDiscoverComplete(session, role, err)
	})
}

func (p *Pool) onDiscoverComplete(session *avdtp.Session, role avdtp.Role, err *avdtp.Error) {
	if err != nil {
		p.completeSetup(session, nil, err)
		return
	}

	p.mu.Lock()
	setup, ok := p.setups[session]
	if !ok {
		p.mu.Unlock()
		return
	}
	sep := setup.sep
	if sep == nil {
		delete(p.setups, session)
		p.mu.Unlock()
		setup.finalize(nil, avdtp.NewError(avdtp.ErrAlreadyPresent, avdtp.CategoryNone, "no eligible sep for session"))
		return
	}

	_, remote, remoteCaps, found := p.lib.GetSEPs(session, role, avdtp.MediaTypeAudio, avdtp.MediaCodecSBC)
	if !found {
		delete(p.setups, session)
		p.mu.Unlock()
		setup.finalize(nil, avdtp.NewError(avdtp.ErrAlreadyPresent, avdtp.CategoryNone, "no matching remote SEP"))
		return
	}

	// auto_config off (SPEC_FULL.md §4 "auto_config preference"): leave
	// the remote SEP discovered and the Setup waiting rather than issue
	// set_configuration automatically — a management tool is expected to
	// drive configuration manually via ConfigureManual.
	if !p.autoConfigure {
		setup.remote = remote
		p.mu.Unlock()
		return
	}
	localHandle := sep.Handle
	p.mu.Unlock()

	p.selectAndConfigure(session, localHandle, remote, remoteCaps)
}

// selectAndConfigure runs the Codec Selector against remoteCaps and, on
// success, issues set_configuration toward remote and records the
// returned stream on the local SEP. On failure it finalizes the waiting
// Setup. Must be called with p.mu unheld.
func (p *Pool) selectAndConfigure(session *avdtp.Session, localHandle, remote avdtp.SEPHandle, remoteCaps avdtp.SBCCapability) {
	params, selErr := codec.Select(avdtp.LocalSBCCapability(), remoteCaps)
	if selErr != nil {
		p.completeSetup(session, nil, selErr)
		return
	}
	stream := p.lib.SetConfiguration(session, remote, localHandle, params.ToCapability())
	if stream != nil {
		// The stream slot is populated as soon as set_configuration is
		// issued; the outcome arrives asynchronously via
		// Confirmations.SetConfigurationCfm.
		p.mu.Lock()
		if sep := p.findByHandleLocked(localHandle); sep != nil {
			sep.session = session
			sep.stream = stream
			sep.state = avdtp.StateConfigured
		}
		p.mu.Unlock()
	}
}

// ConfigureManual drives set_configuration for a session whose discovery
// completed while auto_config was off (SPEC_FULL.md §4): a management
// tool supplies the remote capability it chose (e.g. from its own
// get_capability round-trip) and this issues set_configuration against
// the SEP and remote endpoint discovery already resolved. Returns false
// if no Setup is waiting for manual configuration on this session.
func (p *Pool) ConfigureManual(session *avdtp.Session, remoteCaps avdtp.SBCCapability) bool {
	p.mu.Lock()
	setup, ok := p.setups[session]
	if !ok || setup.remote == 0 || setup.sep == nil {
		p.mu.Unlock()
		return false
	}
	localHandle, remote := setup.sep.Handle, setup.remote
	setup.remote = 0
	p.mu.Unlock()

	p.selectAndConfigure(session, localHandle, remote, remoteCaps)
	return true
}

// CancelStream is the cancel_stream entry point (spec.md §4.2). It only
// flips flags and removes the callback record; an in-flight AVDTP
// operation is never preempted, its result is dropped on arrival
// instead (spec.md §5 "Cancellation").
func (p *Pool) CancelStream(session *avdtp.Session, id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	setup, ok := p.setups[session]
	if !ok {
		return false
	}
	if !setup.removeCallback(id) {
		return false
	}
	if len(setup.callbacks) == 0 {
		setup.canceled = true
		setup.sep = nil
	}
	return true
}

// Lock is the lock(sep, session) entry point (spec.md §4.2): cooperative
// exclusion for external consumers such as AVRCP.
func (p *Pool) Lock(sep *SEP, session *avdtp.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sep.locked {
		return avdtp.NewError(avdtp.ErrAlreadyPresent, avdtp.CategoryNone, "sep already locked")
	}
	sep.locked = true
	return nil
}

// Unlock is the unlock(sep, session) entry point (spec.md §4.2):
// STREAMING issues suspend, OPEN arms the idle-suspend timer, IDLE is a
// no-op.
func (p *Pool) Unlock(sep *SEP, session *avdtp.Session) {
	p.mu.Lock()
	sep.locked = false

	var effect func()
	switch sep.state {
	case avdtp.StateStreaming:
		sep.suspending = true
		s, stream := sep.session, sep.stream
		effect = func() { p.lib.Suspend(s, stream) }
	case avdtp.StateOpen:
		p.armIdleTimer(sep)
	}
	p.mu.Unlock()

	if effect != nil {
		effect()
	}
}

// StartStream is the start_stream(device, session) entry point (spec.md
// §4.2): idempotent if the bound SEP is already STREAMING.
func (p *Pool) StartStream(session *avdtp.Session) bool {
	p.mu.Lock()
	sep := p.findBySessionLocked(session)
	if sep == nil {
		p.mu.Unlock()
		return false
	}
	switch sep.state {
	case avdtp.StateStreaming:
		p.mu.Unlock()
		return true
	case avdtp.StateOpen:
		stream := sep.stream
		p.mu.Unlock()
		p.lib.Start(session, stream)
		return true
	default:
		p.mu.Unlock()
		return false
	}
}

// SuspendStream is the suspend_stream(device, session) entry point
// (spec.md §4.2): idempotent if the bound SEP is not STREAMING.
func (p *Pool) SuspendStream(session *avdtp.Session) bool {
	p.mu.Lock()
	sep := p.findBySessionLocked(session)
	if sep == nil {
		p.mu.Unlock()
		return false
	}
	if sep.state != avdtp.StateStreaming {
		p.mu.Unlock()
		return true
	}
	stream := sep.stream
	sep.suspending = true
	p.mu.Unlock()
	p.lib.Suspend(session, stream)
	return true
}
