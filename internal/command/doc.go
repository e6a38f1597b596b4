// Package command translates protocol commands into backend service
// calls.
//
// Translation is pure: the translator never performs I/O. Anything it
// needs beyond the command itself (the resource's source list, the
// entity's current mute state) is passed in by the caller. A nil call
// with a nil error means "no-op": the command was understood well
// enough to acknowledge but maps to nothing, which the wire protocol
// treats identically to success.
package command
