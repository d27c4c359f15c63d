package domain

import "errors"

var (
	// ErrMalformedMessage is returned when inbound bytes do not decode into a
	// known message shape.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrNotJoined is returned when a connection sends anything but a join
	// before it has joined a room.
	ErrNotJoined = errors.New("connection has not joined a room")

	// ErrUnknownMessageType is returned for a well-formed message whose type
	// the relay does not route.
	ErrUnknownMessageType = errors.New("unknown message type")
)
