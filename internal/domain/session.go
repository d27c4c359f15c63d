package domain

import "time"

// Role is the part a connection plays in its room.
type Role string

const (
	RoleHost   Role = "host"
	RoleViewer Role = "viewer"
)

// ParseRole maps a wire role to a Role. Anything other than "host" joins as
// a viewer.
func ParseRole(s string) Role {
	if s == string(RoleHost) {
		return RoleHost
	}
	return RoleViewer
}

// Session is the join state of one connection. The zero value is an
// unjoined connection.
type Session struct {
	RoomID   string
	Role     Role
	JoinedAt time.Time
}

// NewSession returns the joined state for roomID and role.
func NewSession(roomID string, role Role) Session {
	return Session{
		RoomID:   roomID,
		Role:     role,
		JoinedAt: time.Now(),
	}
}

// IsJoined reports whether the connection has joined a room.
func (s Session) IsJoined() bool {
	return s.Role != ""
}

// IsHost reports whether the connection joined as host.
func (s Session) IsHost() bool {
	return s.Role == RoleHost
}
