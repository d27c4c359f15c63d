package pubsub

import "fmt"

// ChannelRoomEvents is the channel carrying lifecycle events of one room.
const ChannelRoomEvents = "relay:room:%s:events"

// Room lifecycle event types.
const (
	EventRoomCreated  = "room_created"
	EventRoomDeleted  = "room_deleted"
	EventHostJoined   = "host_joined"
	EventHostLeft     = "host_left"
	EventViewerJoined = "viewer_joined"
	EventViewerLeft   = "viewer_left"
)

// RoomEventsChannel returns the lifecycle channel name for roomID.
func RoomEventsChannel(roomID string) string {
	return fmt.Sprintf(ChannelRoomEvents, roomID)
}

// RoomEventPayload describes a membership change and the room's shape
// right after it.
type RoomEventPayload struct {
	RoomID      string `json:"room_id"`
	ConnID      string `json:"conn_id,omitempty"`
	Role        string `json:"role,omitempty"`
	HasHost     bool   `json:"has_host"`
	ViewerCount int    `json:"viewer_count"`
}
