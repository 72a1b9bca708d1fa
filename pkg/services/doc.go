// Package services defines the per-service event variants. Each variant
// knows the event endpoint path of its UPnP service and how to turn the
// variables of a notification into state changes. Parsing is isolated
// per service: a malformed payload from one service never affects the
// others.
package services
