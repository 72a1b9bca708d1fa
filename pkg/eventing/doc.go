// Package eventing implements the subscription subsystem: it leases
// event subscriptions on the devices of a roster, receives their
// notifications on an embedded HTTP callback endpoint, keeps the leases
// renewed, and folds parsed changes into the state cache while handing
// them to the consumer through a bounded stream.
//
// The Manager is the single entry point. A typical consumer:
//
//	mgr, err := eventing.NewManager(eventing.DefaultConfig())
//	if err != nil { ... }
//	if err := mgr.Start(ctx, roster); err != nil { ... }
//	defer mgr.Stop()
//
//	for {
//	    change, ok := mgr.Events().Recv()
//	    if !ok {
//	        break // Stop() was called
//	    }
//	    ...
//	}
//
// Failures are isolated per (device, service) pair: a device that stops
// renewing drops out alone, reported through the stream and the
// lifecycle callback, while every other subscription keeps running.
package eventing
