package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string
}

func (c *fakeConn) ID() string              { return c.id }
func (c *fakeConn) IsOpen() bool            { return true }
func (c *fakeConn) Send(_ interface{}) bool { return true }

func TestGetOrCreate_Idempotent(t *testing.T) {
	r := New()

	first, created := r.GetOrCreate("r1")
	require.True(t, created)
	second, created := r.GetOrCreate("r1")
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestSetHost_LastWriterWins(t *testing.T) {
	r := New()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}

	assert.Nil(t, r.SetHost("r1", a))
	assert.Equal(t, a, r.SetHost("r1", b))

	room, ok := r.Get("r1")
	require.True(t, ok)
	assert.Equal(t, b, room.Host())

	// Re-joining as the current host displaces nobody.
	assert.Nil(t, r.SetHost("r1", b))
}

func TestAddViewer_SetSemantics(t *testing.T) {
	r := New()
	v := &fakeConn{id: "v"}

	assert.True(t, r.AddViewer("r1", v))
	assert.False(t, r.AddViewer("r1", v))

	room, _ := r.Get("r1")
	assert.Equal(t, 1, room.ViewerCount())
}

func TestRemoveHost_OnlyCurrentHost(t *testing.T) {
	r := New()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	r.SetHost("r1", a)
	r.SetHost("r1", b)

	assert.False(t, r.RemoveHost("r1", a), "displaced host must not clear the slot")
	room, _ := r.Get("r1")
	assert.Equal(t, b, room.Host())

	assert.True(t, r.RemoveHost("r1", b))
	assert.Nil(t, room.Host())
	assert.False(t, r.RemoveHost("missing", b))
}

func TestPruneIfEmpty(t *testing.T) {
	r := New()
	h := &fakeConn{id: "h"}
	v := &fakeConn{id: "v"}
	r.SetHost("r1", h)
	r.AddViewer("r1", v)

	r.RemoveHost("r1", h)
	assert.False(t, r.PruneIfEmpty("r1"), "room with a viewer stays")

	r.RemoveViewer("r1", v)
	assert.True(t, r.PruneIfEmpty("r1"))
	_, ok := r.Get("r1")
	assert.False(t, ok)

	room, created := r.GetOrCreate("r1")
	assert.True(t, created)
	assert.True(t, room.IsEmpty())
}

func TestViewersSnapshot(t *testing.T) {
	r := New()
	r.AddViewer("r1", &fakeConn{id: "v1"})
	r.AddViewer("r1", &fakeConn{id: "v2"})
	room, _ := r.Get("r1")

	snap := room.Viewers()
	r.RemoveViewer("r1", &fakeConn{id: "v1"})

	assert.Len(t, snap, 2)
	assert.Equal(t, 1, room.ViewerCount())
}

func TestSummaries_SortedByID(t *testing.T) {
	r := New()
	r.AddViewer("b", &fakeConn{id: "v"})
	r.SetHost("a", &fakeConn{id: "h"})

	got := r.Summaries()
	assert.Equal(t, []RoomSummary{
		{RoomID: "a", HasHost: true, ViewerCount: 0},
		{RoomID: "b", HasHost: false, ViewerCount: 1},
	}, got)
}
