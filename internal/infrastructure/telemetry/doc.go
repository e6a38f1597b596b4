// Package telemetry records bridge activity in InfluxDB.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking batched writes of command and state metrics
//   - Health monitoring for the readiness endpoint
//
// Telemetry is entirely optional. When disabled in config, Connect
// returns ErrDisabled and callers run without a client; all write
// helpers on a nil-safe wrapper become no-ops.
//
// Recorded measurements:
//   - commands: one point per translated command (resource type, command, outcome)
//   - state_lines: one point per state notification pushed to a session
//   - sessions: protocol session lifecycle events (connect, login, disconnect)
package telemetry
