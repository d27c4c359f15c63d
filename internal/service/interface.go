package service

import (
	"context"
	"encoding/json"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
)

// SignalService routes signaling messages between the host and viewers of a room.
type SignalService interface {
	// HandleJoin binds the connection to a room as host or viewer.
	HandleJoin(ctx context.Context, conn domain.Conn, roomID string, role domain.Role) error

	// HandleOffer forwards an SDP offer to every open viewer of the sender's room.
	HandleOffer(ctx context.Context, conn domain.Conn, sdp, sdpType string) error

	// HandleAnswer forwards an SDP answer to the host of the sender's room.
	HandleAnswer(ctx context.Context, conn domain.Conn, sdp, sdpType string) error

	// HandleICECandidate forwards a candidate host->viewers or viewer->host
	// depending on the role the sender joined with.
	HandleICECandidate(ctx context.Context, conn domain.Conn, candidate json.RawMessage) error

	// HandleDisconnect removes the connection from its room.
	HandleDisconnect(ctx context.Context, conn domain.Conn) error

	// Session returns the join state of a connection.
	Session(conn domain.Conn) domain.Session

	// Rooms returns a summary of every live room.
	Rooms() []registry.RoomSummary

	// Room returns the summary of one room.
	Room(roomID string) (registry.RoomSummary, bool)

	// Stats returns room and joined-connection counts.
	Stats() Stats

	// Start starts background goroutines (e.g., event publishing).
	Start(ctx context.Context) error

	// Stop stops background goroutines.
	Stop() error
}

// Stats is a point-in-time count of relay state.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// Options tunes optional router behaviour.
type Options struct {
	// NotifyHostLeft sends a hostLeft message to the remaining viewers when
	// a host disconnects.
	NotifyHostLeft bool

	// EventBuffer bounds the queue of lifecycle events awaiting publication.
	EventBuffer int
}
