package client

import "context"

// Transport is a message-framed connection to one speaker. Read blocks until
// the next message arrives; messages arrive in the order they were sent.
type Transport interface {
	Connect(addr string) error
	Send(msg []byte) error
	Read() ([]byte, error) // for one-at-a-time processing
	Close() error
}

// Lookup resolves a hostname to an IPv4 address string.
type Lookup interface {
	LookupIPv4(ctx context.Context, host string) (string, error)
}
