package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: false}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect(disabled) error = %v, want ErrDisabled", err)
	}
}

// A nil client must be safe everywhere so call sites don't guard on
// whether telemetry is configured.
func TestNilClientIsNoOp(t *testing.T) {
	var c *Client

	if c.IsConnected() {
		t.Error("IsConnected() on nil client = true, want false")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}

	// None of these may panic.
	c.Flush()
	c.SetOnError(func(error) {})
	c.RecordCommand("DIMMER", "SET", true)
	c.RecordStateLine("SHADE")
	c.RecordSession("connect")
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1})
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
