// Package auth manages browser sessions for the HTTP surface.
//
// A session is issued after a successful credential check and handed to
// the client as a signed JWT in the "blgwsession" cookie. The token's ID
// doubles as the primary key of a SQLite session row, so revocation and
// expiry sweeps work without parsing stored tokens.
package auth
