// Package config loads daemon configuration from command-line flags and
// environment-variable overrides, the way services/signaling/config does
// for the sibling signaling daemon.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the A2DP/HID daemon configuration.
type Config struct {
	// Sources is the number of local A2DP source SEPs to register.
	Sources int
	// Sinks is the number of local A2DP sink SEPs to register.
	Sinks int
	// IdleSuspendTimeout is how long a STREAMING SEP with no client may
	// sit idle before the daemon suspends it (spec.md §4.3).
	IdleSuspendTimeout time.Duration
	// AutoConfigure mirrors the original's auto_config adapter toggle
	// (SPEC_FULL.md §4): when false, set_configuration is never issued
	// automatically on discovery completion.
	AutoConfigure bool
	// SocketPath is where the IPC command surface listens (HID_CONNECT
	// / HID_DISCONNECT, spec.md §6).
	SocketPath string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// AdapterAddr is the local Bluetooth adapter address, used as the
	// source address for outbound HID L2CAP connects (spec.md §4.5,
	// §9 "adapter's own address").
	AdapterAddr string
}

// Load parses flags, then applies BTAUDIOD_* environment overrides.
func Load() *Config {
	cfg := &Config{
		IdleSuspendTimeout: 5000 * time.Millisecond,
		AutoConfigure:      true,
	}

	flag.IntVar(&cfg.Sources, "sources", 1, "number of local A2DP source SEPs to register")
	flag.IntVar(&cfg.Sinks, "sinks", 0, "number of local A2DP sink SEPs to register")
	flag.DurationVar(&cfg.IdleSuspendTimeout, "idle-timeout", cfg.IdleSuspendTimeout, "idle-suspend timer duration")
	flag.BoolVar(&cfg.AutoConfigure, "auto-configure", cfg.AutoConfigure, "automatically configure streams on discovery")
	flag.StringVar(&cfg.SocketPath, "socket", "/var/run/btaudiod.sock", "IPC command socket path")
	flag.StringVar(&cfg.LogLevel, "loglevel", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.AdapterAddr, "adapter-addr", "00:00:00:00:00:00", "local Bluetooth adapter address")
	flag.Parse()

	if v := os.Getenv("BTAUDIOD_SOURCES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sources = n
		}
	}
	if v := os.Getenv("BTAUDIOD_SINKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sinks = n
		}
	}
	if v := os.Getenv("BTAUDIOD_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.IdleSuspendTimeout = d
		}
	}
	if v := os.Getenv("BTAUDIOD_AUTO_CONFIGURE"); v != "" {
		cfg.AutoConfigure = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("BTAUDIOD_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("BTAUDIOD_LOGLEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BTAUDIOD_ADAPTER_ADDR"); v != "" {
		cfg.AdapterAddr = v
	}

	return cfg
}
