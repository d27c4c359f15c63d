package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/ice"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relay-service/pkg/response"
)

// AdminHandler serves read-only relay state and ICE configuration.
type AdminHandler struct {
	service  service.SignalService
	hub      *hub.Hub
	resolver *ice.Resolver
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc service.SignalService, h *hub.Hub, resolver *ice.Resolver) *AdminHandler {
	return &AdminHandler{
		service:  svc,
		hub:      h,
		resolver: resolver,
	}
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Rooms             int `json:"rooms"`
	JoinedConnections int `json:"joined_connections"`
	OpenConnections   int `json:"open_connections"`
}

// ListRooms handles GET /api/rooms.
func (h *AdminHandler) ListRooms(c *gin.Context) {
	response.Success(c, h.service.Rooms())
}

// GetRoom handles GET /api/rooms/:id.
func (h *AdminHandler) GetRoom(c *gin.Context) {
	room, ok := h.service.Room(c.Param("id"))
	if !ok {
		response.NotFound(c, "Room not found")
		return
	}
	response.Success(c, room)
}

// GetStats handles GET /api/stats.
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := h.service.Stats()
	response.Success(c, StatsResponse{
		Rooms:             stats.Rooms,
		JoinedConnections: stats.Connections,
		OpenConnections:   h.hub.Count(),
	})
}

// GetICEServers handles GET /api/ice-servers. The body is the bare
// RTCConfiguration shape browsers consume, not the response envelope.
func (h *AdminHandler) GetICEServers(c *gin.Context) {
	c.JSON(200, gin.H{"iceServers": h.resolver.Servers(c.Request.Context())})
}

// NewRouter builds the gin engine serving the admin API.
func (h *AdminHandler) NewRouter(logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), pkglog.GinMiddleware(logger), cors())

	api := r.Group("/api")
	{
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:id", h.GetRoom)
		api.GET("/stats", h.GetStats)
		api.GET("/ice-servers", h.GetICEServers)
	}
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
