package ipc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holoware/btaudiod/internal/ipc"
)

type fakeHandler struct {
	connected string
	err       error
}

func (f *fakeHandler) Connect(addr string) error {
	if f.err != nil {
		return f.err
	}
	f.connected = addr
	return nil
}

func TestDispatchHIDConnectSuccess(t *testing.T) {
	h := &fakeHandler{}
	s := ipc.NewServer(h)

	msg := append([]byte{byte(ipc.OpHIDConnect)}, []byte("AA:BB:CC:DD:EE:FF")...)
	status := s.Dispatch(msg)

	assert.Equal(t, ipc.StatusSuccess, status)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", h.connected)
}

func TestDispatchHIDConnectFailed(t *testing.T) {
	h := &fakeHandler{err: errors.New("no route to device")}
	s := ipc.NewServer(h)

	msg := append([]byte{byte(ipc.OpHIDConnect)}, []byte("AA:BB:CC:DD:EE:FF")...)
	status := s.Dispatch(msg)

	assert.Equal(t, ipc.StatusFailed, status)
}

func TestDispatchHIDConnectShortMessageIsInvalid(t *testing.T) {
	h := &fakeHandler{}
	s := ipc.NewServer(h)

	msg := append([]byte{byte(ipc.OpHIDConnect)}, []byte("AA:BB")...)
	status := s.Dispatch(msg)

	assert.Equal(t, ipc.StatusInvalid, status)
	assert.Empty(t, h.connected)
}

func TestDispatchEmptyMessageIsInvalid(t *testing.T) {
	s := ipc.NewServer(&fakeHandler{})
	assert.Equal(t, ipc.StatusInvalid, s.Dispatch(nil))
}

func TestDispatchHIDDisconnectIsNoOp(t *testing.T) {
	h := &fakeHandler{}
	s := ipc.NewServer(h)

	status := s.Dispatch([]byte{byte(ipc.OpHIDDisconnect)})

	assert.Equal(t, ipc.StatusSuccess, status)
	assert.Empty(t, h.connected)
}

func TestDispatchUnknownOpcodeFails(t *testing.T) {
	s := ipc.NewServer(&fakeHandler{})
	status := s.Dispatch([]byte{0xFF})
	assert.Equal(t, ipc.StatusFailed, status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "SUCCESS", ipc.StatusSuccess.String())
	assert.Equal(t, "INVALID", ipc.StatusInvalid.String())
	assert.Equal(t, "FAILED", ipc.StatusFailed.String())
}
