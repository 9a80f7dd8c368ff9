package admin

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"topglass/internal/pkg/logger"
)

type FeedHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewFeedHandler accepts upgrades from the given origins. An empty list or
// "*" accepts any origin.
func NewFeedHandler(hub *Hub, allowedOrigins []string, log *zap.Logger) *FeedHandler {
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &FeedHandler{
		hub: hub,
		log: logger.OrNop(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Feed handles GET /api/v1/admin/leads/feed
func (h *FeedHandler) Feed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	adminID := c.GetString(ContextAdminID)
	h.log.Info("dashboard connected", zap.String("admin_id", adminID))
	h.hub.ServeWS(conn, adminID)
	h.log.Info("dashboard disconnected", zap.String("admin_id", adminID))
}
