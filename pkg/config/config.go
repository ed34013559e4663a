// Package config loads DENetwork's runtime tunables from an env file or
// the process environment, the way R2Northstar-Atlas's cmd/atlas reads
// ATLAS_* variables: an optional dotenv-style file parsed with
// github.com/hashicorp/go-envparse, falling back to os.Environ().
package config

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-envparse"
	"github.com/pkg/errors"

	"github.com/dragonlace/denetwork/pkg/connection"
	"github.com/dragonlace/denetwork/pkg/protocol"
)

// Config holds everything a denetwork-server/denetwork-client binary
// needs beyond the library's own defaults: where to listen/connect, how
// many peers to accept, and overrides for the five reliability tunables
// spec.md §6 names.
type Config struct {
	ListenAddr     string `env:"DENETWORK_LISTEN_ADDR"`
	MaxConnections int    `env:"DENETWORK_MAX_CONNECTIONS"`

	ConnectResendInterval  time.Duration `env:"DENETWORK_CONNECT_RESEND_INTERVAL"`
	ConnectTimeout         time.Duration `env:"DENETWORK_CONNECT_TIMEOUT"`
	ReliableResendInterval time.Duration `env:"DENETWORK_RELIABLE_RESEND_INTERVAL"`
	ReliableTimeout        time.Duration `env:"DENETWORK_RELIABLE_TIMEOUT"`
	ReliableWindowSize     int           `env:"DENETWORK_RELIABLE_WINDOW_SIZE"`

	LedgerPath string `env:"DENETWORK_LEDGER_PATH"`
	LogPretty  bool   `env:"DENETWORK_LOG_PRETTY"`
}

// Default returns the library defaults with an empty listen address
// (left for the caller to fill in) and no ledger (disabled unless a path
// is configured).
func Default() Config {
	return Config{
		ListenAddr:             "",
		MaxConnections:         0,
		ConnectResendInterval:  secondsToDuration(protocol.DefaultConnectResendInterval),
		ConnectTimeout:         secondsToDuration(protocol.DefaultConnectTimeout),
		ReliableResendInterval: secondsToDuration(protocol.DefaultReliableResendInterval),
		ReliableTimeout:        secondsToDuration(protocol.DefaultReliableTimeout),
		ReliableWindowSize:     protocol.DefaultReliableWindowSize,
		LogPretty:              true,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ConnectionConfig projects the reliability tunables into a
// connection.Config, which clamps each to the documented minimum.
func (c Config) ConnectionConfig() connection.Config {
	return connection.Config{
		ConnectResendInterval:  c.ConnectResendInterval,
		ConnectTimeout:         c.ConnectTimeout,
		ReliableResendInterval: c.ReliableResendInterval,
		ReliableTimeout:        c.ReliableTimeout,
		ReliableWindowSize:     c.ReliableWindowSize,
	}
}

// LoadFile parses name as a dotenv-style file via envparse and layers it
// over Default(). An env_file, when given, replaces the process
// environment entirely — it is never merged with it — mirroring
// cmd/atlas's "if env_file is provided, config from the environment is
// ignored" behaviour.
func LoadFile(name string) (Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: open env file")
	}
	defer f.Close()
	return Load(f)
}

// Load parses r as dotenv-style KEY=VALUE lines and layers them over
// Default().
func Load(r io.Reader) (Config, error) {
	m, err := envparse.Parse(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: parse env")
	}
	return fromMap(m), nil
}

// LoadEnviron layers the current process environment over Default().
func LoadEnviron() Config {
	m := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return fromMap(m)
}

func fromMap(m map[string]string) Config {
	c := Default()
	if v, ok := m["DENETWORK_LISTEN_ADDR"]; ok {
		c.ListenAddr = v
	}
	if v, ok := m["DENETWORK_MAX_CONNECTIONS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConnections = n
		}
	}
	if v, ok := m["DENETWORK_CONNECT_RESEND_INTERVAL"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ConnectResendInterval = d
		}
	}
	if v, ok := m["DENETWORK_CONNECT_TIMEOUT"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ConnectTimeout = d
		}
	}
	if v, ok := m["DENETWORK_RELIABLE_RESEND_INTERVAL"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ReliableResendInterval = d
		}
	}
	if v, ok := m["DENETWORK_RELIABLE_TIMEOUT"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ReliableTimeout = d
		}
	}
	if v, ok := m["DENETWORK_RELIABLE_WINDOW_SIZE"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.ReliableWindowSize = n
		}
	}
	if v, ok := m["DENETWORK_LEDGER_PATH"]; ok {
		c.LedgerPath = v
	}
	if v, ok := m["DENETWORK_LOG_PRETTY"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogPretty = b
		}
	}
	return c
}
