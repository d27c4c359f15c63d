package domain

import "encoding/json"

// WebSocket message types exchanged with peers.
const (
	MsgTypeJoin         = "join"
	MsgTypeOffer        = "offer"
	MsgTypeAnswer       = "answer"
	MsgTypeICECandidate = "iceCandidate"
)

// WebSocket message types only sent by the relay.
const (
	MsgTypeHostLeft = "hostLeft"
	MsgTypeError    = "error"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// JoinMessage binds a connection to a room with a role.
type JoinMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Role   string `json:"role"`
}

// SessionDescriptionMessage carries an SDP offer or answer. It is used for
// both directions; Type tells them apart.
type SessionDescriptionMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	SDP     string `json:"sdp"`
	SDPType string `json:"sdpType"`
}

// ICECandidateMessage carries an opaque ICE candidate.
type ICECandidateMessage struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId"`
	Candidate json.RawMessage `json:"candidate"`
}

// HostLeftMessage tells viewers that the host of their room disconnected.
type HostLeftMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// ErrorMessage is sent when an error occurs and error reporting is enabled.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotJoined  = "NOT_JOINED"
)

// NewErrorMessage creates a new error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}

// NewOffer builds the offer forwarded to viewers.
func NewOffer(roomID, sdp, sdpType string) *SessionDescriptionMessage {
	return &SessionDescriptionMessage{Type: MsgTypeOffer, RoomID: roomID, SDP: sdp, SDPType: sdpType}
}

// NewAnswer builds the answer forwarded to the host.
func NewAnswer(roomID, sdp, sdpType string) *SessionDescriptionMessage {
	return &SessionDescriptionMessage{Type: MsgTypeAnswer, RoomID: roomID, SDP: sdp, SDPType: sdpType}
}

// NewICECandidate builds a forwarded candidate.
func NewICECandidate(roomID string, candidate json.RawMessage) *ICECandidateMessage {
	return &ICECandidateMessage{Type: MsgTypeICECandidate, RoomID: roomID, Candidate: candidate}
}
