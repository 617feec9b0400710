// Package ipc implements the command surface between this daemon and
// its host stack (spec.md §6 "IPC command surface"). Dispatch decodes
// one message and executes it; ListenAndServe is a minimal Unix-socket
// accept loop that treats each connection's first read as one message
// and replies with a single status byte.
package ipc

import (
	"context"
	"log/slog"
	"net"
	"os"

	"github.com/google/uuid"

	"github.com/holoware/btaudiod/internal/btlog"
)

// Opcode identifies an IPC command.
type Opcode uint8

const (
	OpHIDConnect Opcode = iota
	OpHIDDisconnect
)

// Status is the result code returned for a dispatched command (spec.md
// §6).
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalid:
		return "INVALID"
	default:
		return "FAILED"
	}
}

const bdaddrLen = 17 // "AA:BB:CC:DD:EE:FF"

// Handler is implemented by the HID connector.
type Handler interface {
	Connect(addr string) error
}

// Server dispatches decoded IPC commands to a Handler.
type Server struct {
	handler Handler
	log     *slog.Logger
}

func NewServer(h Handler) *Server {
	return &Server{handler: h, log: btlog.For("ipc")}
}

// Dispatch decodes and executes one IPC command (spec.md §6, §7
// "InvalidCommand — IPC message shorter than declared"). msg[0] is the
// opcode; HID_CONNECT carries a 17-byte ASCII Bluetooth address.
func (s *Server) Dispatch(msg []byte) Status {
	if len(msg) < 1 {
		return StatusInvalid
	}
	switch Opcode(msg[0]) {
	case OpHIDConnect:
		if len(msg) < 1+bdaddrLen {
			return StatusInvalid
		}
		addr := string(msg[1 : 1+bdaddrLen])
		if err := s.handler.Connect(addr); err != nil {
			s.log.Warn("hid_connect failed", "addr", addr, "err", err)
			return StatusFailed
		}
		return StatusSuccess
	case OpHIDDisconnect:
		return StatusSuccess
	default:
		return StatusFailed
	}
}

// ListenAndServe accepts connections on a Unix domain socket at
// socketPath, treating each connection's full contents as one message
// and writing back a single status byte (spec.md §1 "the IPC layer
// between this daemon and its host stack" — framing is this package's
// concern only to the extent needed to exercise Dispatch). Returns when
// ctx is canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, socketPath string) error {
	os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	reqID := uuid.NewString()

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		s.log.Debug("ipc read failed", "request_id", reqID, "err", err)
		return
	}
	status := s.Dispatch(buf[:n])
	s.log.Debug("ipc dispatched", "request_id", reqID, "status", status)
	conn.Write([]byte{byte(status)})
}
