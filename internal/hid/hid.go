// Package hid implements the HID dual-channel connector (spec.md
// §4.5): bringing up a device's control and interrupt L2CAP channels in
// order, tearing them down as a pair, and forwarding inbound interrupt
// reports. Grounded on the teacher's paired-leg lifecycle in
// internal/signaling/b2bua/bridge.go, generalized from "two SIP legs"
// to "two L2CAP channels that must open and close together".
package hid

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/holoware/btaudiod/internal/btlog"
	"github.com/holoware/btaudiod/internal/l2cap"
)

// connState is a HID device's position in the Connecting-Ctrl →
// Connecting-Intr → Connected → Closing lifecycle (spec.md §4.5).
type connState int

const (
	stateConnectingCtrl connState = iota
	stateConnectingIntr
	stateConnected
	stateClosing
)

// ReportInjector hands off inbound HID interrupt payloads (spec.md §1
// "UHID kernel delivery of HID reports — stubbed").
type ReportInjector interface {
	InjectReport(addr string, payload []byte)
}

// device is one HID device's channel pair and watch handles (spec.md
// §3 "HID Device").
type device struct {
	addr string

	state connState

	ctrl      l2cap.Channel
	ctrlWatch l2cap.Watch
	intr      l2cap.Channel
	intrWatch l2cap.Watch
}

// Connector owns the table of HID devices (spec.md §3 "HID table
// exclusively owns HID Devices").
type Connector struct {
	mu sync.Mutex

	transport l2cap.Transport
	injector  ReportInjector
	localAddr string

	devices map[string]*device

	log *slog.Logger
}

// NewConnector constructs an empty HID connector. localAddr is the
// adapter's own Bluetooth address, used as the source address for every
// outbound L2CAP connect (spec.md §9 "adapter's own address").
func NewConnector(transport l2cap.Transport, injector ReportInjector, localAddr string) *Connector {
	return &Connector{
		transport: transport,
		injector:  injector,
		localAddr: localAddr,
		devices:   make(map[string]*device),
		log:       btlog.For("hid"),
	}
}

// Connect is the connect(address) operation (spec.md §4.5): rejects if
// a device for that address already exists, otherwise initiates the
// control-channel connect.
func (c *Connector) Connect(ctx context.Context, addr string) error {
	c.mu.Lock()
	if _, exists := c.devices[addr]; exists {
		c.mu.Unlock()
		return fmt.Errorf("hid: device %s already present", addr)
	}
	d := &device{addr: addr, state: stateConnectingCtrl}
	c.devices[addr] = d
	c.mu.Unlock()

	c.log.Info("hid control connect", "addr", addr)
	c.transport.Connect(ctx, c.localAddr, addr, l2cap.PSMHIDControl, l2cap.SecurityLow, func(res l2cap.ConnectResult) {
		c.onControlConnect(ctx, addr, res)
	})
	return nil
}

func (c *Connector) onControlConnect(ctx context.Context, addr string, res l2cap.ConnectResult) {
	c.mu.Lock()
	d, ok := c.devices[addr]
	if !ok {
		c.mu.Unlock()
		return
	}
	if res.Err != nil {
		delete(c.devices, addr)
		c.mu.Unlock()
		c.log.Warn("hid control connect failed", "addr", addr, "err", res.Err)
		return
	}
	d.ctrl = res.Channel
	d.state = stateConnectingIntr
	c.mu.Unlock()

	d.ctrlWatch = c.transport.WatchChannel(d.ctrl, l2cap.CondHangup|l2cap.CondError|l2cap.CondInvalid, func(cond l2cap.WatchCondition) {
		c.onControlEvent(addr, cond)
	})

	c.log.Info("hid interrupt connect", "addr", addr)
	c.transport.Connect(ctx, c.localAddr, addr, l2cap.PSMHIDInterrupt, l2cap.SecurityLow, func(res l2cap.ConnectResult) {
		c.onInterruptConnect(addr, res)
	})
}

func (c *Connector) onInterruptConnect(addr string, res l2cap.ConnectResult) {
	c.mu.Lock()
	d, ok := c.devices[addr]
	if !ok {
		c.mu.Unlock()
		return
	}
	if res.Err != nil {
		// Order matters: interrupt must close before control to leave the
		// remote in a defined state (spec.md §4.5 interrupt_connect_cb).
		ctrl, ctrlWatch := d.ctrl, d.ctrlWatch
		delete(c.devices, addr)
		c.mu.Unlock()

		c.log.Warn("hid interrupt connect failed", "addr", addr, "err", res.Err)
		if res.Channel != nil {
			res.Channel.Shutdown()
		}
		if ctrlWatch != nil {
			ctrlWatch.Cancel()
		}
		if ctrl != nil {
			ctrl.Shutdown()
		}
		return
	}

	d.intr = res.Channel
	d.state = stateConnected
	c.mu.Unlock()

	d.intrWatch = c.transport.WatchChannel(d.intr, l2cap.CondReadable|l2cap.CondHangup|l2cap.CondError|l2cap.CondInvalid, func(cond l2cap.WatchCondition) {
		c.onInterruptEvent(addr, cond)
	})
	c.log.Info("hid connected", "addr", addr)
}

// onInterruptEvent handles readability and hangup/error on the
// interrupt channel (spec.md §4.5).
func (c *Connector) onInterruptEvent(addr string, cond l2cap.WatchCondition) {
	if cond&l2cap.CondReadable != 0 {
		c.readInterrupt(addr)
		if cond == l2cap.CondReadable {
			return
		}
	}
	if cond&(l2cap.CondHangup|l2cap.CondError|l2cap.CondInvalid) == 0 {
		return
	}

	c.mu.Lock()
	d, ok := c.devices[addr]
	if !ok {
		c.mu.Unlock()
		return
	}
	d.state = stateClosing
	intr, intrWatch := d.intr, d.intrWatch
	d.intr, d.intrWatch = nil, nil
	ctrlStillArmed := d.ctrlWatch != nil
	ctrl, ctrlWatch := d.ctrl, d.ctrlWatch
	delete(c.devices, addr)
	c.mu.Unlock()

	c.log.Info("hid interrupt closed", "addr", addr)
	if intrWatch != nil {
		intrWatch.Cancel()
	}
	if intr != nil {
		intr.Shutdown()
	}
	if ctrlStillArmed {
		if ctrlWatch != nil {
			ctrlWatch.Cancel()
		}
		if ctrl != nil {
			ctrl.Shutdown()
		}
	}
}

// onControlEvent handles hangup/error on the control channel,
// symmetric to onInterruptEvent (spec.md §4.5 "Control hangup/error").
func (c *Connector) onControlEvent(addr string, cond l2cap.WatchCondition) {
	c.mu.Lock()
	d, ok := c.devices[addr]
	if !ok {
		c.mu.Unlock()
		return
	}
	d.state = stateClosing
	ctrl, ctrlWatch := d.ctrl, d.ctrlWatch
	d.ctrl, d.ctrlWatch = nil, nil
	intrStillArmed := d.intrWatch != nil
	intr, intrWatch := d.intr, d.intrWatch
	delete(c.devices, addr)
	c.mu.Unlock()

	c.log.Info("hid control closed", "addr", addr)
	if ctrlWatch != nil {
		ctrlWatch.Cancel()
	}
	if ctrl != nil {
		ctrl.Shutdown()
	}
	if intrStillArmed {
		if intrWatch != nil {
			intrWatch.Cancel()
		}
		if intr != nil {
			intr.Shutdown()
		}
	}
}

func (c *Connector) readInterrupt(addr string) {
	c.mu.Lock()
	d, ok := c.devices[addr]
	var ch l2cap.Channel
	if ok {
		ch = d.intr
	}
	c.mu.Unlock()
	if ch == nil {
		return
	}

	buf := make([]byte, 4096)
	n, err := ch.Read(buf)
	if err != nil {
		c.log.Warn("hid interrupt read error", "addr", addr, "err", err)
		return
	}
	if n == 0 {
		return
	}
	c.injector.InjectReport(addr, buf[:n])
}

// Connected reports whether addr currently has a live HID session.
func (c *Connector) Connected(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.devices[addr]
	return ok && d.state == stateConnected
}
