// Command btaudiod runs the A2DP stream-setup coordinator and HID
// dual-channel connector (spec.md §1). Wiring mirrors
// cmd/signaling/main.go: load config, initialize logging, construct the
// component graph, serve until a termination signal arrives.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/holoware/btaudiod/internal/a2dp"
	"github.com/holoware/btaudiod/internal/avdtp/avdtptest"
	"github.com/holoware/btaudiod/internal/btlog"
	"github.com/holoware/btaudiod/internal/config"
	"github.com/holoware/btaudiod/internal/hid"
	"github.com/holoware/btaudiod/internal/ipc"
	"github.com/holoware/btaudiod/internal/l2cap/l2captest"
	"github.com/holoware/btaudiod/internal/sdprecord/sdprecordtest"
)

// stubInjector is the UHID report sink until a real kernel-delivery
// backend is wired (spec.md §1 "stubbed").
type stubInjector struct{ log *slog.Logger }

func (s stubInjector) InjectReport(addr string, payload []byte) {
	s.log.Debug("hid report", "addr", addr, "bytes", len(payload))
}

// hidHandler adapts hid.Connector to ipc.Handler.
type hidHandler struct{ conn *hid.Connector }

func (h hidHandler) Connect(addr string) error {
	return h.conn.Connect(context.Background(), addr)
}

func main() {
	cfg := config.Load()
	btlog.Init(os.Stdout, cfg.LogLevel)
	log := btlog.For("main")

	// No BlueZ signalling/transport binding exists among this module's
	// dependency surface (spec.md §1 treats the AVDTP library, SDP
	// publication and L2CAP transport as external collaborators). The
	// in-memory fakes built for tests double as the loopback reference
	// backend here until a real platform binding is wired in — see
	// DESIGN.md.
	lib := avdtptest.New()
	transport := l2captest.New()
	publisher := sdprecordtest.New()

	pool := a2dp.NewPool(lib, cfg.IdleSuspendTimeout, cfg.AutoConfigure)
	sourceID, sinkID, err := pool.RegisterAll(cfg.Sources, cfg.Sinks, publisher)
	if err != nil {
		log.Error("SEP registration failed", "error", err)
		os.Exit(1)
	}
	log.Info("registered SEPs", "sources", cfg.Sources, "sinks", cfg.Sinks)

	hidConn := hid.NewConnector(transport, stubInjector{log: btlog.For("hid-report")}, cfg.AdapterAddr)
	ipcSrv := ipc.NewServer(hidHandler{conn: hidConn})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := ipcSrv.ListenAndServe(ctx, cfg.SocketPath); err != nil {
			log.Error("ipc listener stopped", "error", err)
		}
	}()
	log.Info("btaudiod started", "socket", cfg.SocketPath, "adapter", cfg.AdapterAddr)

	<-ctx.Done()
	log.Info("shutting down")
	pool.Shutdown(publisher, sourceID, sinkID)
}
