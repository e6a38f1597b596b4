// Package backend defines the home-automation backend abstraction.
//
// The bridge never talks to a backend directly from its protocol code.
// Everything it needs (entity enumeration, area lookups, state
// subscriptions, service calls, camera frames) goes through the Gateway
// interface defined here. The concrete Home Assistant implementation
// lives in the hass subpackage; tests use the in-memory fake in
// backendtest.
//
// Entities carry their resolved area: implementations are expected to
// fall back to the owning device's area when an entity has none of its
// own, so consumers only ever look at Entity.AreaID.
package backend
