package domain

// Conn is a peer connection as seen by the relay. Implementations must make
// Send non-blocking: a peer that cannot take the message right now reports
// false and the message is dropped.
type Conn interface {
	ID() string
	IsOpen() bool
	Send(message interface{}) bool
}
