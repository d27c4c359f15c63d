package ice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/relay-service/internal/config"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

const (
	defaultCloudflareURL = "https://rtc.live.cloudflare.com/v1/turn/keys/%s/credentials/generate"
	fallbackSTUN         = "stun:stun.l.google.com:19302"
	turnTTLSeconds       = 86400

	// Credentials are reused for half their lifetime so peers never get
	// ones that expire mid-session.
	turnCacheFor = turnTTLSeconds * time.Second / 2
)

// Server is an ICE server entry as browsers expect it in RTCConfiguration.
type Server struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Resolver builds the ICE server list handed to peers.
type Resolver struct {
	cfg           config.WebRTCConfig
	httpClient    *http.Client
	cloudflareURL string
	now           func() time.Time

	mu          sync.Mutex
	turn        *Server
	turnExpires time.Time
}

// NewResolver creates a Resolver for cfg.
func NewResolver(cfg config.WebRTCConfig) *Resolver {
	return &Resolver{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		cloudflareURL: defaultCloudflareURL,
		now:           time.Now,
	}
}

// Servers returns the configured servers, Cloudflare TURN credentials when
// configured, and a public STUN server when no STUN entry is present. A
// failing TURN lookup is logged and skipped.
func (r *Resolver) Servers(ctx context.Context) []Server {
	l := pkglog.Ctx(ctx)

	servers := make([]Server, 0, len(r.cfg.ICEServers)+2)
	for _, s := range r.cfg.ICEServers {
		servers = append(servers, Server{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}

	if r.cfg.TurnKeyID != "" && r.cfg.TurnKey != "" {
		turn, err := r.cachedTURN(ctx)
		if err != nil {
			l.Warn().Err(err).Str("turn_key", maskKey(r.cfg.TurnKey)).Msg("failed to get cloudflare TURN credentials")
		} else {
			servers = append(servers, *turn)
		}
	}

	if !hasSTUN(servers) {
		servers = append([]Server{{URLs: []string{fallbackSTUN}}}, servers...)
	}
	return servers
}

func hasSTUN(servers []Server) bool {
	for _, s := range servers {
		for _, u := range s.URLs {
			if strings.HasPrefix(u, "stun:") || strings.HasPrefix(u, "stuns:") {
				return true
			}
		}
	}
	return false
}

// cachedTURN returns cached Cloudflare credentials, fetching new ones when
// none are cached or the cached ones are past turnCacheFor. Failures are
// not cached.
func (r *Resolver) cachedTURN(ctx context.Context) (*Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.turn != nil && r.now().Before(r.turnExpires) {
		return r.turn, nil
	}
	turn, err := r.cloudflareTURN(ctx)
	if err != nil {
		return nil, err
	}
	r.turn = turn
	r.turnExpires = r.now().Add(turnCacheFor)
	return turn, nil
}

type cloudflareTURNResponse struct {
	ICEServers struct {
		URLs       []string `json:"urls"`
		Username   string   `json:"username"`
		Credential string   `json:"credential"`
	} `json:"iceServers"`
}

func (r *Resolver) cloudflareTURN(ctx context.Context) (*Server, error) {
	url := fmt.Sprintf(r.cloudflareURL, r.cfg.TurnKeyID)
	body, err := json.Marshal(map[string]int{"ttl": turnTTLSeconds})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.TurnKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call TURN API: %w", err)
	}
	defer resp.Body.Close()

	// Cloudflare TURN API returns 201 (Created) on success, not 200
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TURN API returned status %d: %s", resp.StatusCode, string(b))
	}

	var turnResp cloudflareTURNResponse
	if err := json.NewDecoder(resp.Body).Decode(&turnResp); err != nil {
		return nil, fmt.Errorf("failed to decode TURN response: %w", err)
	}

	return &Server{
		URLs:       turnResp.ICEServers.URLs,
		Username:   turnResp.ICEServers.Username,
		Credential: turnResp.ICEServers.Credential,
	}, nil
}

// maskKey masks a key for logging purposes
func maskKey(key string) string {
	if key == "" {
		return "<empty>"
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
