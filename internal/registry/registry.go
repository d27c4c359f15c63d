package registry

import (
	"sort"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
)

// Room binds an optional host and a set of viewers under one room id.
type Room struct {
	ID      string
	host    domain.Conn
	viewers map[string]domain.Conn // connID -> conn
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		viewers: make(map[string]domain.Conn),
	}
}

// Host returns the room's host, or nil.
func (r *Room) Host() domain.Conn {
	return r.host
}

// Viewers returns a snapshot of the viewer set in no particular order.
func (r *Room) Viewers() []domain.Conn {
	out := make([]domain.Conn, 0, len(r.viewers))
	for _, c := range r.viewers {
		out = append(out, c)
	}
	return out
}

// ViewerCount returns the number of viewers.
func (r *Room) ViewerCount() int {
	return len(r.viewers)
}

// HasViewer reports whether conn is in the viewer set.
func (r *Room) HasViewer(conn domain.Conn) bool {
	_, ok := r.viewers[conn.ID()]
	return ok
}

// IsEmpty reports whether the room has neither host nor viewers.
func (r *Room) IsEmpty() bool {
	return r.host == nil && len(r.viewers) == 0
}

// RoomSummary is a read-only view of a room.
type RoomSummary struct {
	RoomID      string `json:"room_id"`
	HasHost     bool   `json:"has_host"`
	ViewerCount int    `json:"viewer_count"`
}

// Registry maps room ids to rooms. It is not safe for concurrent use; the
// signal service serializes every call under its own lock.
type Registry struct {
	rooms map[string]*Room
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for roomID, creating an empty one if needed.
// created is true when a new room was inserted.
func (r *Registry) GetOrCreate(roomID string) (room *Room, created bool) {
	if room, ok := r.rooms[roomID]; ok {
		return room, false
	}
	room = newRoom(roomID)
	r.rooms[roomID] = room
	return room, true
}

// Get returns the room for roomID without creating it.
func (r *Registry) Get(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// SetHost overwrites the host slot of roomID and returns the displaced host,
// if any. The room is created when missing.
func (r *Registry) SetHost(roomID string, conn domain.Conn) (previous domain.Conn) {
	room, _ := r.GetOrCreate(roomID)
	previous = room.host
	room.host = conn
	if previous != nil && previous.ID() == conn.ID() {
		return nil
	}
	return previous
}

// AddViewer inserts conn into the viewer set of roomID. Adding a connection
// that is already a viewer is a no-op and returns false.
func (r *Registry) AddViewer(roomID string, conn domain.Conn) bool {
	room, _ := r.GetOrCreate(roomID)
	if room.HasViewer(conn) {
		return false
	}
	room.viewers[conn.ID()] = conn
	return true
}

// RemoveHost clears the host slot of roomID if it currently holds conn. A
// host that was already displaced by a later join leaves the slot alone.
func (r *Registry) RemoveHost(roomID string, conn domain.Conn) bool {
	room, ok := r.rooms[roomID]
	if !ok || room.host == nil || room.host.ID() != conn.ID() {
		return false
	}
	room.host = nil
	return true
}

// RemoveViewer removes conn from the viewer set of roomID.
func (r *Registry) RemoveViewer(roomID string, conn domain.Conn) bool {
	room, ok := r.rooms[roomID]
	if !ok || !room.HasViewer(conn) {
		return false
	}
	delete(room.viewers, conn.ID())
	return true
}

// PruneIfEmpty deletes roomID when it has no host and no viewers. It reports
// whether the room was deleted.
func (r *Registry) PruneIfEmpty(roomID string) bool {
	room, ok := r.rooms[roomID]
	if !ok || !room.IsEmpty() {
		return false
	}
	delete(r.rooms, roomID)
	return true
}

// Len returns the number of rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// Summaries returns a summary of every room sorted by room id.
func (r *Registry) Summaries() []RoomSummary {
	out := make([]RoomSummary, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Summary returns a read-only view of the room.
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		RoomID:      r.ID,
		HasHost:     r.host != nil,
		ViewerCount: len(r.viewers),
	}
}
