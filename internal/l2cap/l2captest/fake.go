// Package l2captest provides a hand-written fake of l2cap.Transport for
// driving the HID connector in tests, mirroring the pack's
// mockTransport packages.
package l2captest

import (
	"context"
	"sync"

	"github.com/holoware/btaudiod/internal/l2cap"
)

// Channel is a fake, in-memory l2cap.Channel.
type Channel struct {
	mu      sync.Mutex
	psm     int
	addr    string
	open    bool
	reads   [][]byte
	readErr error
}

func newChannel(psm int, addr string) *Channel {
	return &Channel{psm: psm, addr: addr, open: true}
}

func (c *Channel) Read(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return 0, c.readErr
	}
	if len(c.reads) == 0 {
		return 0, nil
	}
	data := c.reads[0]
	c.reads = c.reads[1:]
	n := copy(buf, data)
	return n, nil
}

func (c *Channel) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *Channel) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// PushRead queues a payload a subsequent Read will return.
func (c *Channel) PushRead(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads = append(c.reads, data)
}

// SetReadError arranges the next Read to fail.
func (c *Channel) SetReadError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

type watch struct {
	canceled bool
	onEvent  func(l2cap.WatchCondition)
}

func (w *watch) Cancel() { w.canceled = true }

// Fake is a scriptable l2cap.Transport.
type Fake struct {
	mu sync.Mutex

	// ConnectResults maps "addr:ctrl" or "addr:intr" (the PSM as named
	// by key) to the result Connect should deliver; if absent, Connect
	// succeeds with a fresh open Channel.
	ConnectResults map[string]l2cap.ConnectResult

	channels map[*Channel]*watch
	last     map[string]*Channel
	Ops      []string
}

func New() *Fake {
	return &Fake{
		ConnectResults: make(map[string]l2cap.ConnectResult),
		channels:       make(map[*Channel]*watch),
		last:           make(map[string]*Channel),
	}
}

// LastChannel returns the fake Channel most recently created by Connect
// for addr/psm, for tests that need to drive events on it directly.
func (f *Fake) LastChannel(addr string, psm int) (*Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.last[key(addr, psm)]
	return ch, ok
}

func key(addr string, psm int) string {
	if psm == l2cap.PSMHIDControl {
		return addr + ":ctrl"
	}
	return addr + ":intr"
}

func (f *Fake) Connect(ctx context.Context, srcAddr, dstAddr string, psm int, sec l2cap.Security, cb func(l2cap.ConnectResult)) {
	f.mu.Lock()
	f.Ops = append(f.Ops, "connect:"+key(dstAddr, psm))
	res, scripted := f.ConnectResults[key(dstAddr, psm)]
	f.mu.Unlock()

	if !scripted {
		res = l2cap.ConnectResult{Channel: newChannel(psm, dstAddr)}
	}
	if fc, ok := res.Channel.(*Channel); ok {
		f.mu.Lock()
		f.last[key(dstAddr, psm)] = fc
		f.mu.Unlock()
	}
	cb(res)
}

func (f *Fake) WatchChannel(ch l2cap.Channel, conditions l2cap.WatchCondition, onEvent func(l2cap.WatchCondition)) l2cap.Watch {
	w := &watch{onEvent: onEvent}
	f.mu.Lock()
	if fc, ok := ch.(*Channel); ok {
		f.channels[fc] = w
	}
	f.mu.Unlock()
	return w
}

// FireEvent delivers a watch condition on a channel, as if the event
// loop observed it, unless the watch guarding it was already canceled
// (the G_IO_NVAL double-shutdown guard, spec.md §4.5).
func (f *Fake) FireEvent(ch *Channel, cond l2cap.WatchCondition) {
	f.mu.Lock()
	w := f.channels[ch]
	f.mu.Unlock()
	if w == nil || w.canceled {
		return
	}
	w.onEvent(cond)
}
