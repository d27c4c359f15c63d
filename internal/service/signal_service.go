package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/pubsub"
)

const defaultEventBuffer = 256

type signalService struct {
	// mu guards registry and sessions. Nothing blocks while it is held;
	// sends happen after unlock against a snapshot of the targets.
	mu       sync.Mutex
	registry *registry.Registry
	sessions map[string]domain.Session // connID -> join state

	publisher pubsub.Publisher
	events    chan roomEvent
	opts      Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSignalService creates a new SignalService instance. publisher may be
// nil, in which case lifecycle events are not published.
func NewSignalService(reg *registry.Registry, publisher pubsub.Publisher, opts Options) SignalService {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	return &signalService{
		registry:  reg,
		sessions:  make(map[string]domain.Session),
		publisher: publisher,
		events:    make(chan roomEvent, opts.EventBuffer),
		opts:      opts,
	}
}

func (s *signalService) HandleJoin(ctx context.Context, c domain.Conn, roomID string, role domain.Role) error {
	l := pkglog.Ctx(ctx)

	s.mu.Lock()
	var (
		evs    []roomEvent
		notify []domain.Conn
		left   bool
	)
	prev := s.sessions[c.ID()]
	if prev.IsJoined() && (prev.RoomID != roomID || prev.Role != role) {
		// A connection belongs to one room with one role; the latest join wins.
		notify, evs = s.leaveLocked(c, prev)
		left = true
	}

	room, created := s.registry.GetOrCreate(roomID)
	if created {
		evs = append(evs, newRoomEvent(pubsub.EventRoomCreated, room, nil, ""))
	}

	var displaced domain.Conn
	if role == domain.RoleHost {
		if cur := room.Host(); cur == nil || cur.ID() != c.ID() {
			if cur != nil {
				// The replaced host stays joined but no longer holds the slot.
				s.registry.RemoveHost(roomID, cur)
				evs = append(evs, newRoomEvent(pubsub.EventHostLeft, room, cur, domain.RoleHost))
				displaced = cur
			}
			s.registry.SetHost(roomID, c)
			evs = append(evs, newRoomEvent(pubsub.EventHostJoined, room, c, domain.RoleHost))
		}
	} else if s.registry.AddViewer(roomID, c) {
		evs = append(evs, newRoomEvent(pubsub.EventViewerJoined, room, c, domain.RoleViewer))
	}
	if !prev.IsJoined() || left {
		s.sessions[c.ID()] = domain.NewSession(roomID, role)
	}
	viewerCount := room.ViewerCount()
	// Queued under the lock so one room's events keep the order of its state changes.
	s.emit(ctx, evs)
	s.mu.Unlock()

	if left {
		s.notifyHostLeft(ctx, prev.RoomID, notify)
	}

	evt := l.Info().
		Str(pkglog.FieldConnID, c.ID()).
		Str(pkglog.FieldRoomID, roomID).
		Str(pkglog.FieldRole, string(role)).
		Int(pkglog.FieldViewerCount, viewerCount)
	if left {
		evt = evt.Str("previous_room_id", prev.RoomID)
	}
	if displaced != nil {
		evt = evt.Str("displaced_conn_id", displaced.ID())
	}
	evt.Msg("client joined room")
	return nil
}

func (s *signalService) HandleOffer(ctx context.Context, c domain.Conn, sdp, sdpType string) error {
	s.mu.Lock()
	sess, ok := s.joinedLocked(c)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("offer: %w", domain.ErrNotJoined)
	}
	targets := s.viewersLocked(sess.RoomID)
	s.mu.Unlock()

	s.sendAll(ctx, c, targets, domain.NewOffer(sess.RoomID, sdp, sdpType))
	return nil
}

func (s *signalService) HandleAnswer(ctx context.Context, c domain.Conn, sdp, sdpType string) error {
	s.mu.Lock()
	sess, ok := s.joinedLocked(c)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("answer: %w", domain.ErrNotJoined)
	}
	host := s.hostLocked(sess.RoomID)
	s.mu.Unlock()

	s.sendOne(ctx, c, host, sess.RoomID, domain.NewAnswer(sess.RoomID, sdp, sdpType))
	return nil
}

func (s *signalService) HandleICECandidate(ctx context.Context, c domain.Conn, candidate json.RawMessage) error {
	s.mu.Lock()
	sess, ok := s.joinedLocked(c)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("ice candidate: %w", domain.ErrNotJoined)
	}
	// Direction follows the role cached at join, not current membership.
	var (
		targets []domain.Conn
		host    domain.Conn
	)
	if sess.IsHost() {
		targets = s.viewersLocked(sess.RoomID)
	} else {
		host = s.hostLocked(sess.RoomID)
	}
	s.mu.Unlock()

	msg := domain.NewICECandidate(sess.RoomID, candidate)
	if sess.IsHost() {
		s.sendAll(ctx, c, targets, msg)
	} else {
		s.sendOne(ctx, c, host, sess.RoomID, msg)
	}
	return nil
}

func (s *signalService) HandleDisconnect(ctx context.Context, c domain.Conn) error {
	l := pkglog.Ctx(ctx)

	s.mu.Lock()
	sess, ok := s.sessions[c.ID()]
	delete(s.sessions, c.ID())
	if !ok || !sess.IsJoined() {
		s.mu.Unlock()
		return nil
	}
	notify, evs := s.leaveLocked(c, sess)
	_, stillExists := s.registry.Get(sess.RoomID)
	s.emit(ctx, evs)
	s.mu.Unlock()

	s.notifyHostLeft(ctx, sess.RoomID, notify)

	l.Info().
		Str(pkglog.FieldConnID, c.ID()).
		Str(pkglog.FieldRoomID, sess.RoomID).
		Str(pkglog.FieldRole, string(sess.Role)).
		Dur("joined_for", time.Since(sess.JoinedAt)).
		Bool("room_deleted", !stillExists).
		Msg("client left room")
	return nil
}

func (s *signalService) Session(c domain.Conn) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[c.ID()]
}

func (s *signalService) Rooms() []registry.RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Summaries()
}

func (s *signalService) Room(roomID string) (registry.RoomSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.registry.Get(roomID)
	if !ok {
		return registry.RoomSummary{}, false
	}
	return room.Summary(), true
}

func (s *signalService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Rooms:       s.registry.Len(),
		Connections: len(s.sessions),
	}
}

// leaveLocked removes c from the room recorded in sess and prunes the room
// if it became empty. It returns the viewers to tell about a departed host.
func (s *signalService) leaveLocked(c domain.Conn, sess domain.Session) ([]domain.Conn, []roomEvent) {
	var (
		evs    []roomEvent
		notify []domain.Conn
	)
	room, ok := s.registry.Get(sess.RoomID)
	if !ok {
		return nil, nil
	}

	if sess.IsHost() {
		if s.registry.RemoveHost(sess.RoomID, c) {
			evs = append(evs, newRoomEvent(pubsub.EventHostLeft, room, c, domain.RoleHost))
			if s.opts.NotifyHostLeft {
				notify = room.Viewers()
			}
		}
	} else if s.registry.RemoveViewer(sess.RoomID, c) {
		evs = append(evs, newRoomEvent(pubsub.EventViewerLeft, room, c, domain.RoleViewer))
	}

	if s.registry.PruneIfEmpty(sess.RoomID) {
		evs = append(evs, newRoomEvent(pubsub.EventRoomDeleted, room, nil, ""))
	}
	return notify, evs
}

func (s *signalService) joinedLocked(c domain.Conn) (domain.Session, bool) {
	sess := s.sessions[c.ID()]
	return sess, sess.IsJoined()
}

// viewersLocked never creates a room: a displaced host can outlive the room
// it last joined, and an empty room must not be brought back.
func (s *signalService) viewersLocked(roomID string) []domain.Conn {
	room, ok := s.registry.Get(roomID)
	if !ok {
		return nil
	}
	return room.Viewers()
}

func (s *signalService) hostLocked(roomID string) domain.Conn {
	room, ok := s.registry.Get(roomID)
	if !ok {
		return nil
	}
	return room.Host()
}

// sendAll delivers message to every open target except the sender.
func (s *signalService) sendAll(ctx context.Context, from domain.Conn, targets []domain.Conn, message interface{}) {
	l := pkglog.Ctx(ctx)
	for _, t := range targets {
		if t.ID() == from.ID() {
			continue
		}
		if !t.IsOpen() || !t.Send(message) {
			l.Debug().Str(pkglog.FieldConnID, t.ID()).Msg("delivery missed")
		}
	}
}

func (s *signalService) sendOne(ctx context.Context, from, target domain.Conn, roomID string, message interface{}) {
	l := pkglog.Ctx(ctx)
	if target == nil || target.ID() == from.ID() {
		l.Debug().Str(pkglog.FieldRoomID, roomID).Msg("no host to deliver to")
		return
	}
	if !target.IsOpen() || !target.Send(message) {
		l.Debug().Str(pkglog.FieldConnID, target.ID()).Msg("delivery missed")
	}
}

func (s *signalService) notifyHostLeft(ctx context.Context, roomID string, viewers []domain.Conn) {
	if len(viewers) == 0 {
		return
	}
	l := pkglog.Ctx(ctx)
	msg := &domain.HostLeftMessage{Type: domain.MsgTypeHostLeft, RoomID: roomID}
	for _, v := range viewers {
		if !v.IsOpen() || !v.Send(msg) {
			l.Debug().Str(pkglog.FieldConnID, v.ID()).Msg("delivery missed")
		}
	}
}
