package service

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/registry"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/pubsub"
)

const publishTimeout = 5 * time.Second

// roomEvent is a lifecycle change captured under the lock and published
// after it is released.
type roomEvent struct {
	Type    string
	Payload pubsub.RoomEventPayload
}

func newRoomEvent(eventType string, room *registry.Room, c domain.Conn, role domain.Role) roomEvent {
	summary := room.Summary()
	ev := roomEvent{
		Type: eventType,
		Payload: pubsub.RoomEventPayload{
			RoomID:      summary.RoomID,
			Role:        string(role),
			HasHost:     summary.HasHost,
			ViewerCount: summary.ViewerCount,
		},
	}
	if c != nil {
		ev.Payload.ConnID = c.ID()
	}
	return ev
}

// emit queues events for publication without blocking, so it may be called
// with s.mu held. A full queue drops the event.
func (s *signalService) emit(ctx context.Context, evs []roomEvent) {
	if s.publisher == nil {
		return
	}
	l := pkglog.Ctx(ctx)
	for _, ev := range evs {
		select {
		case s.events <- ev:
		default:
			l.Warn().
				Str(pkglog.FieldEventType, ev.Type).
				Str(pkglog.FieldRoomID, ev.Payload.RoomID).
				Msg("event queue full, dropping room event")
		}
	}
}

func (s *signalService) Start(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.publishEvents(ctx)

	l := pkglog.L()
	l.Info().Msg("room event publisher started")
	return nil
}

func (s *signalService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *signalService) publishEvents(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.publish(ctx, ev)
		}
	}
}

func (s *signalService) publish(ctx context.Context, ev roomEvent) {
	l := pkglog.L()

	event, err := pubsub.NewEvent(ev.Type, ev.Payload.RoomID, &ev.Payload)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldEventType, ev.Type).Msg("failed to build room event")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, pubsub.RoomEventsChannel(ev.Payload.RoomID), event); err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldEventType, ev.Type).
			Str(pkglog.FieldRoomID, ev.Payload.RoomID).
			Msg("failed to publish room event")
	}
}
