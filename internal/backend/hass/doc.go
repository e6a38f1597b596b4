// Package hass implements the backend gateway against a Home Assistant
// instance.
//
// The heavy lifting happens over the WebSocket API: one authenticated
// connection carries a single state_changed subscription (fanned out
// locally to per-entity subscribers), request/response commands for
// state and registry enumeration, and service calls. Camera snapshots
// come from the REST camera proxy because the WebSocket API does not
// serve image bytes.
//
// The connection reconnects with exponential backoff. While
// disconnected, read operations fail with backend.ErrNotConnected and
// subscribers simply receive no events until the stream resumes.
package hass
