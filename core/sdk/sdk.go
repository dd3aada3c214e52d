// Package sdk describes the ad SDK the executor drives.
//
// Load and Show are opaque asynchronous operations with unknown latency. They
// are not required to honour the context passed to them.
package sdk

import "context"

// SDK creates interstitial handles.
//
//go:generate mockgen -destination=../../mocks/mock_sdk.go -package=mocks . SDK,Handle
type SDK interface {
	// Start initialises the SDK once per process.
	Start(ctx context.Context) error
	// NewInterstitial binds a handle to an ad unit.
	NewInterstitial(resourceRef string) Handle
}

// Handle is a single interstitial slot bound to one ad unit.
type Handle interface {
	Load(ctx context.Context) error
	Show(ctx context.Context) error
}
