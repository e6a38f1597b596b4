// Package hip implements the wire-level building blocks of the HIP
// protocol: percent-encoding, resource path construction and state
// fragment rendering.
//
// Everything here is pure and shared by both front ends. The TCP
// session layer frames lines from these pieces; the HTTP gateway and
// the MQTT mirror reuse the same paths and fragments so that a value
// observed on one surface matches the others byte for byte.
//
// The encoding scheme is not standard URL escaping: the unreserved set
// deliberately includes '/', '?', '=' and '&' so that whole protocol
// lines survive encoding, and space is always %20 (never '+'). B&O
// devices depend on this exact scheme.
package hip
