package connection

import (
	"testing"
	"time"
)

func TestClampEnforcesMinimumsAndWindow(t *testing.T) {
	c := Config{
		ConnectResendInterval:  time.Millisecond,
		ConnectTimeout:         time.Millisecond,
		ReliableResendInterval: time.Millisecond,
		ReliableTimeout:        time.Millisecond,
		ReliableWindowSize:     0,
	}.clamp()

	min := secondsToDuration(0.01)
	if c.ConnectResendInterval != min || c.ConnectTimeout != min ||
		c.ReliableResendInterval != min || c.ReliableTimeout != min {
		t.Fatalf("expected all intervals clamped to %v, got %+v", min, c)
	}
	if c.ReliableWindowSize != 1 {
		t.Fatalf("expected window clamped to 1, got %d", c.ReliableWindowSize)
	}
}

func TestDefaultConfigIsAlreadyValid(t *testing.T) {
	d := DefaultConfig()
	if d.clamp() != d {
		t.Fatal("default config should already satisfy clamp()")
	}
}
