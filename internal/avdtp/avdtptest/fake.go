// Package avdtptest provides a hand-written fake of avdtp.Library for
// driving the SEP State Driver and Session Coordinator in tests without
// a real Bluetooth stack, mirroring the pack's mockTransport packages
// (pkg/dialog/mockTransport, pkg/dialog2/dialog/mockTransport).
package avdtptest

import (
	"sync"

	"github.com/holoware/btaudiod/internal/avdtp"
)

// Registration records what a SEP registered with the fake library.
type Registration struct {
	Handle avdtp.SEPHandle
	Role   avdtp.Role
	Ind    avdtp.Indications
	Cfm    avdtp.Confirmations
}

// Fake is a scriptable avdtp.Library. Tests drive it by calling the
// Complete* methods to simulate the signalling transport completing an
// operation the daemon issued, and the Fire* methods to simulate the
// remote peer initiating one.
type Fake struct {
	mu sync.Mutex

	regs       map[avdtp.SEPHandle]*Registration
	nextHandle avdtp.SEPHandle
	states     map[avdtp.SEPHandle]avdtp.State

	// Ops records every operation issued by the daemon, in order, for
	// assertions.
	Ops []Op

	discoverCB     func(*avdtp.Error)
	discoverLocal  avdtp.SEPHandle
	discoverRemote avdtp.SEPHandle
	discoverCaps   avdtp.SBCCapability
	discoverOK     bool
}

// Op is one recorded Library call.
type Op struct {
	Name    string
	Session *avdtp.Session
	Stream  *avdtp.Stream
}

func New() *Fake {
	return &Fake{
		regs:   make(map[avdtp.SEPHandle]*Registration),
		states: make(map[avdtp.SEPHandle]avdtp.State),
	}
}

func (f *Fake) RegisterSEP(role avdtp.Role, mediaType avdtp.MediaType, ind avdtp.Indications, cfm avdtp.Confirmations) (avdtp.SEPHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHandle++
	h := f.nextHandle
	f.regs[h] = &Registration{Handle: h, Role: role, Ind: ind, Cfm: cfm}
	f.states[h] = avdtp.StateIdle
	return h, nil
}

func (f *Fake) UnregisterSEP(h avdtp.SEPHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.regs, h)
	delete(f.states, h)
}

func (f *Fake) Discover(s *avdtp.Session, cb func(*avdtp.Error)) {
	f.mu.Lock()
	f.Ops = append(f.Ops, Op{Name: "discover", Session: s})
	f.discoverCB = cb
	f.mu.Unlock()
}

// SetDiscoverResult arranges the remote SEP and capability GetSEPs will
// subsequently return, and fires the pending discover callback with err
// (nil for success).
func (f *Fake) SetDiscoverResult(local, remote avdtp.SEPHandle, caps avdtp.SBCCapability, err *avdtp.Error) {
	f.mu.Lock()
	f.discoverLocal = local
	f.discoverRemote = remote
	f.discoverCaps = caps
	f.discoverOK = err == nil
	cb := f.discoverCB
	f.discoverCB = nil
	f.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

func (f *Fake) GetSEPs(s *avdtp.Session, role avdtp.Role, mediaType avdtp.MediaType, codec avdtp.MediaCodecType) (local, remote avdtp.SEPHandle, remoteCaps avdtp.SBCCapability, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discoverLocal, f.discoverRemote, f.discoverCaps, f.discoverOK
}

func (f *Fake) SetConfiguration(s *avdtp.Session, remote, local avdtp.SEPHandle, caps avdtp.SBCCapability) *avdtp.Stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, Op{Name: "set_configuration", Session: s})
	stream := avdtp.NewStream(s, local, remote, caps)
	f.states[local] = avdtp.StateConfigured
	return stream
}

func (f *Fake) Open(s *avdtp.Session, stream *avdtp.Stream) {
	f.record("open", s, stream)
}

func (f *Fake) Start(s *avdtp.Session, stream *avdtp.Stream) {
	f.record("start", s, stream)
}

func (f *Fake) Suspend(s *avdtp.Session, stream *avdtp.Stream) {
	f.record("suspend", s, stream)
}

func (f *Fake) Close(s *avdtp.Session, stream *avdtp.Stream) {
	f.record("close", s, stream)
}

func (f *Fake) Abort(s *avdtp.Session, stream *avdtp.Stream) {
	f.record("abort", s, stream)
}

func (f *Fake) record(name string, s *avdtp.Session, stream *avdtp.Stream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, Op{Name: name, Session: s, Stream: stream})
}

func (f *Fake) StreamAddCB(s *avdtp.Session, stream *avdtp.Stream, listener func(old, new avdtp.State)) {
	stream.AddListener(listener)
}

func (f *Fake) StreamHasCapability(stream *avdtp.Stream, caps avdtp.SBCCapability) bool {
	return stream.Capability() == caps
}

func (f *Fake) SEPGetState(sep avdtp.SEPHandle) avdtp.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[sep]
}

func (f *Fake) GetPeers(s *avdtp.Session) (local, remote string) {
	return s.Peers()
}

func (f *Fake) Ref(s *avdtp.Session) *avdtp.Session {
	return s.Ref()
}

func (f *Fake) Unref(s *avdtp.Session) {
	s.Unref()
}

// SetSEPState lets a test move a SEP's recorded state directly, useful
// for asserting SEPGetState reflects side effects the driver caused.
func (f *Fake) SetSEPState(sep avdtp.SEPHandle, st avdtp.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[sep] = st
}

// LastOp returns the most recently recorded operation name, or "" if
// none were recorded.
func (f *Fake) LastOp() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Ops) == 0 {
		return ""
	}
	return f.Ops[len(f.Ops)-1].Name
}

func (f *Fake) reg(h avdtp.SEPHandle) *Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[h]
}

// --- Confirmation delivery: simulate the signalling transport reporting
// the outcome of an operation this daemon issued. ---

func (f *Fake) CompleteSetConfiguration(stream *avdtp.Stream, err *avdtp.Error) {
	f.reg(stream.Local()).Cfm.SetConfigurationCfm(stream.Session(), stream.Local(), stream, err)
}

func (f *Fake) CompleteOpen(stream *avdtp.Stream, err *avdtp.Error) {
	f.reg(stream.Local()).Cfm.OpenCfm(stream.Session(), stream, err)
}

func (f *Fake) CompleteStart(stream *avdtp.Stream, err *avdtp.Error) {
	f.reg(stream.Local()).Cfm.StartCfm(stream.Session(), stream, err)
}

func (f *Fake) CompleteSuspend(stream *avdtp.Stream, err *avdtp.Error) {
	f.reg(stream.Local()).Cfm.SuspendCfm(stream.Session(), stream, err)
}

func (f *Fake) CompleteClose(stream *avdtp.Stream, err *avdtp.Error) {
	f.reg(stream.Local()).Cfm.CloseCfm(stream.Session(), stream, err)
}

func (f *Fake) CompleteAbort(stream *avdtp.Stream, err *avdtp.Error) {
	f.reg(stream.Local()).Cfm.AbortCfm(stream.Session(), stream, err)
}

func (f *Fake) CompleteReconfigure(stream *avdtp.Stream, err *avdtp.Error) {
	f.reg(stream.Local()).Cfm.ReconfigureCfm(stream.Session(), stream, err)
}

// --- Indication delivery: simulate the remote peer initiating an
// operation. ---

func (f *Fake) FireGetCapabilityInd(s *avdtp.Session, local avdtp.SEPHandle) (avdtp.SBCCapability, *avdtp.Error) {
	return f.reg(local).Ind.GetCapability(s)
}

func (f *Fake) FireSetConfigurationInd(s *avdtp.Session, local, remote avdtp.SEPHandle, remoteCaps avdtp.SBCCapability) (*avdtp.Stream, *avdtp.Error) {
	stream := avdtp.NewStream(s, local, remote, remoteCaps)
	err := f.reg(local).Ind.SetConfiguration(s, local, stream, remoteCaps)
	return stream, err
}

func (f *Fake) FireOpenInd(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return f.reg(stream.Local()).Ind.Open(s, stream)
}

func (f *Fake) FireStartInd(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return f.reg(stream.Local()).Ind.Start(s, stream)
}

func (f *Fake) FireSuspendInd(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return f.reg(stream.Local()).Ind.Suspend(s, stream)
}

func (f *Fake) FireCloseInd(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return f.reg(stream.Local()).Ind.Close(s, stream)
}

func (f *Fake) FireAbortInd(s *avdtp.Session, stream *avdtp.Stream) *avdtp.Error {
	return f.reg(stream.Local()).Ind.Abort(s, stream)
}
