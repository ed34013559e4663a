// Command denetwork-client dials a DENetwork server, sends each line of
// stdin as a reliable message as soon as it is read, and prints whatever
// the server echoes back. It exercises pkg/connection's client role end to
// end, the way example/connection.py exercises the original library.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dragonlace/denetwork/pkg/config"
	"github.com/dragonlace/denetwork/pkg/connection"
	"github.com/dragonlace/denetwork/pkg/logger"
	"github.com/dragonlace/denetwork/pkg/netaddr"
	"github.com/dragonlace/denetwork/pkg/protocol"
	"github.com/dragonlace/denetwork/pkg/state"
	"github.com/dragonlace/denetwork/pkg/statelink"
	"github.com/dragonlace/denetwork/pkg/value"
)

const version = "1.0.0"

var opt struct {
	Help   bool
	Server string
}

func init() {
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
	pflag.StringVarP(&opt.Server, "server", "s", "127.0.0.1:3413", "Server address to connect to")
}

func main() {
	pflag.Parse()
	if opt.Help {
		fmt.Printf("usage: %s [options]\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		os.Exit(2)
	}

	logger.Banner("DENetwork Client", version)

	cfg := config.LoadEnviron()

	remote, err := netaddr.Resolve(opt.Server)
	if err != nil {
		logger.Fatal("resolve %q: %v", opt.Server, err)
	}

	ep := netaddr.NewUDPEndpoint()
	established := make(chan struct{})
	failed := make(chan error, 1)

	c := connection.New(ep, true, cfg.ConnectionConfig(), connection.Callbacks{
		ConnectionEstablished: func() {
			logger.Success("connected to %s", remote)
			close(established)
		},
		ConnectionFailed: func(reason protocol.Reason) {
			failed <- fmt.Errorf("connection failed: %s", reason.String())
		},
		ConnectionClosed: func() {
			logger.Warn("connection closed")
		},
		MessageReceived: func(data []byte) {
			logger.Info("received: %s", string(data))
		},
		// CreateState answers the server's demo LINK_STATE with a
		// matching [Sint16, String] schema, mirroring the server's own
		// newDemoState. readOnly is true: the server owns this state,
		// the client only observes it.
		CreateState: func(identify []byte, readOnly bool) (*state.State, error) {
			logger.Info("linking remote state %q", string(identify))
			s := state.New(readOnly)
			s.AddValue(value.NewSint16(0))
			s.AddValue(value.NewString(""))
			s.SetChangeListener(func(index int, v value.Value) {
				logger.Info("state value %d changed: %v", index, v)
			})
			return s, nil
		},
		LinkEstablished: func(link *statelink.StateLink) {
			logger.Success("state link %d established", link.ID())
		},
		LinkDown: func(id uint16, reason protocol.LinkDownReason) {
			logger.Warn("state link %d torn down: %s", id, reason.String())
		},
	}, logger.Logger())

	if err := ep.Open(netaddr.IPv4Any(), c); err != nil {
		logger.Fatal("open local socket: %v", err)
	}
	if err := c.ConnectTo(remote); err != nil {
		logger.Fatal("connect: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.Update(now)
			}
		}
	}()

	select {
	case <-established:
	case err := <-failed:
		logger.Fatal("%v", err)
	case <-ctx.Done():
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	go func() {
		for scanner.Scan() {
			if err := c.SendReliable(scanner.Bytes()); err != nil {
				logger.Warn("send: %v", err)
			}
		}
	}()

	<-ctx.Done()
	logger.Warn("shutting down")
	c.Dispose()
	logger.Success("client stopped")
}
