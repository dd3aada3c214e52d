// Package channel defines the transport both bridge contexts talk through.
//
// The channel is fire-and-forget: a successful Post only means the payload was
// handed to the transport. Delivery and ordering are not guaranteed.
package channel

import "context"

// Endpoint accepts outbound payloads for the other side of the channel.
//
//go:generate mockgen -destination=../../mocks/mock_endpoint.go -package=mocks . Endpoint
type Endpoint interface {
	Post(ctx context.Context, payload []byte) error
}

// Message is an inbound payload together with the endpoint replies go to.
type Message struct {
	Data   []byte
	Source Endpoint
}
