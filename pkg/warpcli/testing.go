package warpcli

import "net"

// NewClientForTesting wraps an existing connection, skipping the dial.
func NewClientForTesting(conn net.Conn) *Client {
	return newClient(conn)
}

// ReadForTesting reads one framed message from conn.
func ReadForTesting(conn net.Conn) ([]byte, error) {
	return read(conn)
}
