package a2dp

import (
	"time"

	"github.com/holoware/btaudiod/internal/avdtp"
)

// armIdleTimer arms sep's idle-suspend timer (spec.md §4.3 start_ind,
// §5 "Timeouts"). Must be called with p.mu held; the timer itself fires
// on its own goroutine and re-enters the Pool through onIdleTimeout,
// which takes the lock fresh rather than assuming it's still held.
func (p *Pool) armIdleTimer(sep *SEP) {
	if sep.idleTimer != nil {
		return
	}
	sep.idleTimer = time.AfterFunc(p.idleTimeout, func() {
		p.onIdleTimeout(sep)
	})
}

// disarmIdleTimer cancels sep's idle timer if one is armed. Must be
// called with p.mu held.
func (p *Pool) disarmIdleTimer(sep *SEP) {
	if sep.idleTimer != nil {
		sep.idleTimer.Stop()
		sep.idleTimer = nil
	}
}

// onIdleTimeout is the idle-suspend timer firing (spec.md §4.3): issues
// suspend, marks the SEP suspending, drops the session reference, and
// clears the timer handle. Fires exactly once per arm.
func (p *Pool) onIdleTimeout(sep *SEP) {
	p.mu.Lock()
	sep.idleTimer = nil
	if sep.state != avdtp.StateStreaming || sep.session == nil {
		p.mu.Unlock()
		return
	}
	session := sep.session
	stream := sep.stream
	sep.suspending = true
	p.mu.Unlock()

	p.lib.Suspend(session, stream)
	p.lib.Unref(session)
}
