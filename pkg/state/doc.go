// Package state holds the reconciled view of the device fleet: one
// entry per device plus a single topology snapshot. The cache is the
// only mutable shared state of the subsystem; everything handed out of
// it is a copy.
package state
