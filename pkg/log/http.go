package log

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPMiddleware logs plain HTTP requests and WebSocket upgrades. Mount it
// with router.Use on gorilla/mux routes that are not served by gin.
//
// An upgraded request is logged once, when the handler hijacks the
// connection, with status 101. The connection's own lifetime is logged by
// whoever owns the socket.
func HTTPMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(headerRequestID)
			if reqID == "" {
				reqID = uuid.New().String()
			}

			child := logger.With().
				Str(FieldRequestID, reqID).
				Str(FieldMethod, r.Method).
				Str(FieldPath, r.URL.Path).
				Str(FieldClientIP, clientIP(r)).
				Logger()

			w.Header().Set(headerRequestID, reqID)
			r = r.WithContext(WithLogger(r.Context(), child))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, start: time.Now(), logger: child}
			next.ServeHTTP(rec, r)

			if rec.hijacked {
				return
			}
			child.Info().
				Int(FieldStatus, rec.status).
				Float64(FieldLatency, float64(time.Since(rec.start).Milliseconds())).
				Msg("request completed")
		})
	}
}

// statusRecorder captures the status code, and notices when the handler
// takes over the connection.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	hijacked bool
	start    time.Time
	logger   zerolog.Logger
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack hands the connection to the caller. After a successful hijack the
// upgrade handshake is written straight to the socket, so 101 is recorded
// here rather than through WriteHeader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not implement http.Hijacker")
	}
	conn, rw, err := h.Hijack()
	if err != nil {
		return nil, nil, err
	}
	r.hijacked = true
	r.status = http.StatusSwitchingProtocols
	r.logger.Info().
		Int(FieldStatus, r.status).
		Float64(FieldLatency, float64(time.Since(r.start).Milliseconds())).
		Msg("connection upgraded")
	return conn, rw, nil
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// clientIP extracts the client IP from X-Forwarded-For, X-Real-IP, or RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
