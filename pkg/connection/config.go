package connection

import (
	"time"

	"github.com/dragonlace/denetwork/pkg/protocol"
)

// Config holds the five tunables a Connection clamps to a documented
// minimum before use.
type Config struct {
	ConnectResendInterval  time.Duration
	ConnectTimeout         time.Duration
	ReliableResendInterval time.Duration
	ReliableTimeout        time.Duration
	ReliableWindowSize     int
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{
		ConnectResendInterval:  secondsToDuration(protocol.DefaultConnectResendInterval),
		ConnectTimeout:         secondsToDuration(protocol.DefaultConnectTimeout),
		ReliableResendInterval: secondsToDuration(protocol.DefaultReliableResendInterval),
		ReliableTimeout:        secondsToDuration(protocol.DefaultReliableTimeout),
		ReliableWindowSize:     protocol.DefaultReliableWindowSize,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// clamp enforces the documented minimum interval (10ms) and a window
// size of at least 1, rewriting any caller-supplied value that violates
// it rather than rejecting the whole Config.
func (c Config) clamp() Config {
	minInterval := secondsToDuration(protocol.MinInterval)
	if c.ConnectResendInterval < minInterval {
		c.ConnectResendInterval = minInterval
	}
	if c.ConnectTimeout < minInterval {
		c.ConnectTimeout = minInterval
	}
	if c.ReliableResendInterval < minInterval {
		c.ReliableResendInterval = minInterval
	}
	if c.ReliableTimeout < minInterval {
		c.ReliableTimeout = minInterval
	}
	if c.ReliableWindowSize < 1 {
		c.ReliableWindowSize = 1
	}
	return c
}
