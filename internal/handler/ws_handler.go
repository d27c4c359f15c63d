package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/weiawesome/wes-io-live/relay-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Rooms are unauthenticated; any origin may signal.
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub          *hub.Hub
	service      service.SignalService
	reportErrors bool
}

// NewWSHandler creates a new WebSocket handler. With reportErrors set,
// discarded messages are answered with an error frame.
func NewWSHandler(h *hub.Hub, svc service.SignalService, reportErrors bool) *WSHandler {
	return &WSHandler{
		hub:          h,
		service:      svc,
		reportErrors: reportErrors,
	}
}

// HandleWebSocket handles WebSocket upgrade and message routing.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.Ctx(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	client := hub.NewClient(clientID, h.hub, conn)

	ctx := pkglog.ConnContext(r.Context(), clientID)
	cl := pkglog.Ctx(ctx)

	client.SetDisconnectHandler(func(c *hub.Client) {
		if err := h.service.HandleDisconnect(ctx, c); err != nil {
			cl.Error().Err(err).Msg("disconnect handler error")
		}
	})

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(func(c *hub.Client, message []byte) {
		h.handleMessage(ctx, c, message)
	})
}

// handleMessage routes one inbound frame. Failures are per message: the
// connection always stays open.
func (h *WSHandler) handleMessage(ctx context.Context, c domain.Conn, message []byte) {
	err := h.dispatch(ctx, c, message)
	if err == nil {
		return
	}

	var base domain.BaseMessage
	_ = json.Unmarshal(message, &base)

	l := pkglog.Ctx(ctx)
	l.Warn().Err(err).
		Str(pkglog.FieldConnID, c.ID()).
		Str(pkglog.FieldMessageType, base.Type).
		Msg("message discarded")

	if !h.reportErrors {
		return
	}
	code := domain.ErrCodeBadRequest
	if errors.Is(err, domain.ErrNotJoined) {
		code = domain.ErrCodeNotJoined
	}
	c.Send(domain.NewErrorMessage(code, err.Error()))
}

func (h *WSHandler) dispatch(ctx context.Context, c domain.Conn, message []byte) error {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}

	switch base.Type {
	case domain.MsgTypeJoin:
		var msg domain.JoinMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return fmt.Errorf("%w: invalid join message: %v", domain.ErrMalformedMessage, err)
		}
		return h.service.HandleJoin(ctx, c, msg.RoomID, domain.ParseRole(msg.Role))

	case domain.MsgTypeOffer:
		var msg domain.SessionDescriptionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return fmt.Errorf("%w: invalid offer message: %v", domain.ErrMalformedMessage, err)
		}
		return h.service.HandleOffer(ctx, c, msg.SDP, msg.SDPType)

	case domain.MsgTypeAnswer:
		var msg domain.SessionDescriptionMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return fmt.Errorf("%w: invalid answer message: %v", domain.ErrMalformedMessage, err)
		}
		return h.service.HandleAnswer(ctx, c, msg.SDP, msg.SDPType)

	case domain.MsgTypeICECandidate:
		var msg domain.ICECandidateMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return fmt.Errorf("%w: invalid iceCandidate message: %v", domain.ErrMalformedMessage, err)
		}
		return h.service.HandleICECandidate(ctx, c, msg.Candidate)

	default:
		if !h.service.Session(c).IsJoined() {
			return fmt.Errorf("%s: %w", base.Type, domain.ErrNotJoined)
		}
		return fmt.Errorf("%w: %q", domain.ErrUnknownMessageType, base.Type)
	}
}

// RegisterRoutes registers the WebSocket routes.
func (h *WSHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleWebSocket)
	// Clients may also dial the bare host.
	router.HandleFunc("/", h.HandleWebSocket)
}
