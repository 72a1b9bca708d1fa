// Package model defines the domain types shared across the controller:
// device identity and addressing, per-device playback state, group
// topology snapshots, and the StateChange records produced by the
// event-streaming subsystem.
//
// Types in this package are plain values. Anything handed out by the
// state cache or the event stream is a snapshot the caller owns; mutating
// it never affects the cache.
package model
