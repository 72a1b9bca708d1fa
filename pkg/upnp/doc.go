// Package upnp implements the GENA eventing wire layer: SUBSCRIBE,
// renewal and UNSUBSCRIBE requests against a device's event endpoint,
// and decoding of the property-set XML documents devices push to the
// callback receiver via NOTIFY.
//
// The package knows nothing about subscription lifecycle or state; it
// only speaks the wire protocol. Higher layers (pkg/eventing) own
// renewal scheduling, retries and failure isolation.
package upnp
