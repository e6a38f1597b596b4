package telemetry

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordCommand writes one point per command the bridge translated.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - resourceType: The protocol resource type (e.g. "DIMMER", "SHADE")
//   - command: The command name (e.g. "SET", "RAISE")
//   - ok: Whether the backend call succeeded
func (c *Client) RecordCommand(resourceType, command string, ok bool) {
	if !c.IsConnected() {
		return
	}

	outcome := "ok"
	if !ok {
		outcome = "error"
	}

	point := write.NewPoint(
		"commands",
		map[string]string{
			"resource_type": resourceType,
			"command":       command,
			"outcome":       outcome,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordStateLine writes one point per state notification pushed to a
// protocol session.
func (c *Client) RecordStateLine(resourceType string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"state_lines",
		map[string]string{
			"resource_type": resourceType,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordSession writes a protocol session lifecycle event.
//
// Parameters:
//   - event: One of "connect", "login", "login_failed", "disconnect"
func (c *Client) RecordSession(event string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sessions",
		map[string]string{
			"event": event,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordRequest writes one point per HTTP request served.
func (c *Client) RecordRequest(method, path string, status int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"http_requests",
		map[string]string{
			"method": method,
			"status": strconv.Itoa(status),
		},
		map[string]interface{}{
			"path":        path,
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
