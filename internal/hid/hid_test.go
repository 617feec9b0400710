package hid_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holoware/btaudiod/internal/hid"
	"github.com/holoware/btaudiod/internal/l2cap"
	"github.com/holoware/btaudiod/internal/l2cap/l2captest"
)

type recordingInjector struct {
	payloads [][]byte
}

func (r *recordingInjector) InjectReport(addr string, payload []byte) {
	r.payloads = append(r.payloads, append([]byte(nil), payload...))
}

// TestHIDBringUp is spec.md §8 scenario 5.
func TestHIDBringUp(t *testing.T) {
	transport := l2captest.New()
	injector := &recordingInjector{}
	conn := hid.NewConnector(transport, injector, "00:00:00:00:00:00")

	require.NoError(t, conn.Connect(context.Background(), "AA:BB:CC:DD:EE:FF"))
	assert.True(t, conn.Connected("AA:BB:CC:DD:EE:FF"))
	assert.Contains(t, transport.Ops, "connect:AA:BB:CC:DD:EE:FF:ctrl")
	assert.Contains(t, transport.Ops, "connect:AA:BB:CC:DD:EE:FF:intr")
}

func TestHIDConnectAlreadyPresent(t *testing.T) {
	transport := l2captest.New()
	conn := hid.NewConnector(transport, &recordingInjector{}, "00:00:00:00:00:00")

	require.NoError(t, conn.Connect(context.Background(), "AA"))
	assert.Error(t, conn.Connect(context.Background(), "AA"))
}

func TestHIDInterruptHangupClosesPair(t *testing.T) {
	transport := l2captest.New()
	conn := hid.NewConnector(transport, &recordingInjector{}, "00:00:00:00:00:00")
	require.NoError(t, conn.Connect(context.Background(), "AA"))
	require.True(t, conn.Connected("AA"))

	intrCh := channelFor(t, transport, "AA", l2cap.PSMHIDInterrupt)
	ctrlCh := channelFor(t, transport, "AA", l2cap.PSMHIDControl)
	transport.FireEvent(intrCh, l2cap.CondHangup)

	assert.False(t, conn.Connected("AA"))
	assert.False(t, intrCh.Valid())
	assert.False(t, ctrlCh.Valid())
}

func TestHIDControlHangupClosesPair(t *testing.T) {
	transport := l2captest.New()
	conn := hid.NewConnector(transport, &recordingInjector{}, "00:00:00:00:00:00")
	require.NoError(t, conn.Connect(context.Background(), "AA"))
	require.True(t, conn.Connected("AA"))

	ctrlCh := channelFor(t, transport, "AA", l2cap.PSMHIDControl)
	intrCh := channelFor(t, transport, "AA", l2cap.PSMHIDInterrupt)
	transport.FireEvent(ctrlCh, l2cap.CondHangup)

	assert.False(t, conn.Connected("AA"))
	assert.False(t, ctrlCh.Valid())
	assert.False(t, intrCh.Valid())
}

func TestHIDInterruptReadForwardsReport(t *testing.T) {
	transport := l2captest.New()
	injector := &recordingInjector{}
	conn := hid.NewConnector(transport, injector, "00:00:00:00:00:00")
	require.NoError(t, conn.Connect(context.Background(), "AA"))
	require.True(t, conn.Connected("AA"))

	intrCh := channelFor(t, transport, "AA", l2cap.PSMHIDInterrupt)
	intrCh.PushRead([]byte{0x01, 0x02, 0x03})
	transport.FireEvent(intrCh, l2cap.CondReadable)

	require.Len(t, injector.payloads, 1)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, injector.payloads[0])
}

// channelFor recovers the fake Channel the connector is holding for
// addr/psm from the channels the transport's Connect created; the test
// relies on l2captest.Fake always returning a
// fresh channel per successful connect when no result is scripted.
func channelFor(t *testing.T, transport *l2captest.Fake, addr string, psm int) *l2captest.Channel {
	t.Helper()
	ch, ok := transport.LastChannel(addr, psm)
	require.True(t, ok)
	return ch
}
