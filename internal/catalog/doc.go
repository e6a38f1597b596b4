// Package catalog classifies backend entities into protocol resources
// and groups them into the zone/area hierarchy B&O devices expect.
//
// A snapshot is rebuilt from scratch on every enumeration; the only
// state retained across builds is the AV-renderer source cache, which
// exists to bound enumeration latency (fetching a renderer's source
// list is a network call on first sight of the entity).
//
// The hierarchy always has exactly two top-level areas: "House",
// holding one zone per backend area, and "Main", holding the single
// synthetic "global" zone that carries the SYSTEM handler.
package catalog
