package transport

import "net"

// Transport owns the listening socket: it binds it and hands every accepted connection
// over to the callback.
type Transport interface {
	// Bind listens on the first free port of [first, last) and returns it.
	Bind(host string, first, last int) (port int, err error)
	// Listen blocks accepting connections until Stop is called. Every connection is passed
	// to the callback in its own goroutine and closed once the callback returns.
	Listen(cb func(conn net.Conn)) error
	Stop()
	Wait()
}
