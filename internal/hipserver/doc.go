// Package hipserver implements the line-oriented TCP protocol spoken
// by B&O control devices.
//
// Each accepted connection runs an independent session state machine:
// login prompt, credential check against the backend gateway, then
// command dispatch. Enumeration (`q`) rebuilds the resource catalogue,
// registers every controllable resource for command lookup, and opens
// one backend subscription per resource so state changes stream to the
// peer as unsolicited `s` lines.
//
// Outbound frames are ASCII and CRLF-terminated. Each session writes
// through a bounded queue drained by its own goroutine; a peer that
// stops reading long enough to fill the queue is disconnected rather
// than allowed to stall backend event dispatch.
package hipserver
