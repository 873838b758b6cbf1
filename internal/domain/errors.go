package domain

import "errors"

// Sentinel errors for the relay core. These provide consistent, checkable
// errors for the few failures that are allowed to leave the hub.
var (
	// ErrHubClosed is returned by publish and receive calls once the hub
	// has been shut down.
	ErrHubClosed = errors.New("hub is closed")

	// ErrSubscriptionClosed is returned by Recv on a subscription that was
	// closed by its owner.
	ErrSubscriptionClosed = errors.New("subscription is closed")
)
