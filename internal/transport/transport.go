// Package transport contains the wire adapters used to deliver recording
// commands to capture devices. Each adapter owns one connection to one
// device endpoint and is driven synchronously by that device's dispatch
// worker; adapters are not safe for concurrent use.
package transport

import "context"

// Reply is the device's answer to a single command. Fire-and-forget
// transports synthesize a successful Reply locally.
type Reply struct {
	OK   bool
	Data []byte
}

// Transport sends encoded commands to one device endpoint.
//
// Open establishes the connection and performs any identification handshake
// the protocol requires. Send delivers one command and blocks for the result,
// bounded by the transport's own timeout. Any error from Open or Send is
// fatal to the connection; callers tear the transport down with Close and do
// not retry.
type Transport interface {
	Open(ctx context.Context) error
	Send(ctx context.Context, name string, fields map[string]any) (Reply, error)
	Close() error
}
