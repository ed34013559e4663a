// Command denetwork-server runs a standalone DENetwork listener: it
// accepts connections, echoes every message it receives back to the
// sender, publishes a small demo state every connecting client can link
// read-only, and exposes connection/reliability counters on an optional
// debug HTTP endpoint. It exists to exercise pkg/server end to end, the
// way cmd/atlas exercises pkg/atlas.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dragonlace/denetwork/pkg/config"
	"github.com/dragonlace/denetwork/pkg/connection"
	"github.com/dragonlace/denetwork/pkg/ledger"
	"github.com/dragonlace/denetwork/pkg/logger"
	"github.com/dragonlace/denetwork/pkg/metrics"
	"github.com/dragonlace/denetwork/pkg/server"
	"github.com/dragonlace/denetwork/pkg/state"
	"github.com/dragonlace/denetwork/pkg/value"
)

const version = "1.0.0"

var opt struct {
	Help       bool
	Listen     string
	DebugAddr  string
	LedgerPath string
}

func init() {
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
	pflag.StringVarP(&opt.Listen, "listen", "l", "", "Address to listen on (overrides DENETWORK_LISTEN_ADDR)")
	pflag.StringVar(&opt.DebugAddr, "debug-addr", "", "Address to serve /metrics on (disabled if empty)")
	pflag.StringVar(&opt.LedgerPath, "ledger", "", "Path to a sqlite3 audit ledger (overrides DENETWORK_LEDGER_PATH)")
}

// newDemoState builds the [Sint16, String] schema every connecting
// client is offered: a tick counter and a status message, enough for a
// client to observe convergence without any domain-specific payload.
func newDemoState() (*state.State, *value.IntValue[int16], *value.StringValue) {
	s := state.New(false)
	tick := value.NewSint16(0)
	status := value.NewString("hello from denetwork-server")
	s.AddValue(tick)
	s.AddValue(status)
	return s, tick, status
}

func main() {
	pflag.Parse()
	if opt.Help {
		fmt.Printf("usage: %s [options] [env_file]\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		os.Exit(2)
	}

	logger.Banner("DENetwork Server", version)

	var cfg config.Config
	if pflag.NArg() == 1 {
		c, err := config.LoadFile(pflag.Arg(0))
		if err != nil {
			logger.Fatal("load config: %v", err)
		}
		cfg = c
	} else {
		cfg = config.LoadEnviron()
	}
	if opt.Listen != "" {
		cfg.ListenAddr = opt.Listen
	}
	if opt.LedgerPath != "" {
		cfg.LedgerPath = opt.LedgerPath
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":3413"
	}

	m := metrics.New()

	demoState, demoTick, _ := newDemoState()

	srv := server.New(cfg.ConnectionConfig(), server.Callbacks{
		ConnectionAccepted: func(c *connection.Connection) {
			logger.Info("connection accepted: %s", c.RemoteAddress())
			// A server-hosted Connection is already Connected by the time
			// this fires (the accept decision was made before it existed),
			// so it never sees its own ConnectionEstablished callback —
			// that only fires client-side, after the handshake round trip.
			// This is the hook that plays the same role here.
			if _, err := c.PublishState(demoState, true, []byte("demo")); err != nil {
				logger.Warn("publish state to %s: %v", c.RemoteAddress(), err)
			}
		},
		ConnectionClosed: func(c *connection.Connection) {
			logger.Info("connection closed: %s", c.RemoteAddress())
		},
		ConnectionCallbacks: func(c *connection.Connection) connection.Callbacks {
			return connection.Callbacks{
				MessageReceived: func(data []byte) {
					c.SendUnreliable(data)
				},
			}
		},
	}, cfg.MaxConnections, logger.Logger())
	srv.SetMetrics(m)

	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			logger.Fatal("open ledger: %v", err)
		}
		defer l.Close()
		srv.SetLedger(l)
		logger.Success("audit ledger opened: %s", cfg.LedgerPath)
	}

	if opt.DebugAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			m.WritePrometheus(w)
		})
		go func() {
			if err := http.ListenAndServe(opt.DebugAddr, mux); err != nil {
				logger.Warn("debug server stopped: %v", err)
			}
		}()
		logger.Info("metrics available on http://%s/metrics", opt.DebugAddr)
	}

	if err := srv.ListenOn(cfg.ListenAddr); err != nil {
		logger.Fatal("listen: %v", err)
	}
	logger.Success("listening on %s", srv.LocalAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				demoTick.Set(demoTick.Get() + 1)
				demoState.InvalidateValue(0)
			}
		}
	}()

	<-ctx.Done()

	logger.Warn("shutting down")
	if err := srv.Close(); err != nil {
		logger.Error("close: %v", err)
	}
	logger.Success("server stopped")
}
