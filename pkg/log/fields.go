package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Signaling
	FieldConnID      = "conn_id"
	FieldRoomID      = "room_id"
	FieldRole        = "role"
	FieldMessageType = "message_type"
	FieldViewerCount = "viewer_count"
	FieldEventType   = "event_type"
)
