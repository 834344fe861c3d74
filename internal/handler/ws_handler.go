package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/service"
	ws "github.com/paperflow/paperflow-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams bundle processing progress to operator UIs.
type WSHandler struct {
	rdb           *redis.Client
	bundleService *service.BundleService
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, bundleService *service.BundleService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:           rdb,
		bundleService: bundleService,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// BundleProgressStream godoc
// WS /ws/v1/scan/bundles/:bundleId/progress
// Upgrades to WebSocket and forwards the bundle's progress events
// (QR read, push) as they are published.
func (h *WSHandler) BundleProgressStream(c *gin.Context) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return
	}
	if _, err := h.bundleService.Get(c.Request.Context(), bundleID); err != nil {
		failFromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("bundle_id", bundleID.String()).Logger()
	wsLog.Info().Msg("Operator connected")

	channel := config.CacheKey.BundleProgressChannel(bundleID.String())
	sub := h.rdb.Subscribe(c.Request.Context(), channel)
	defer sub.Close()

	ws.WriteTyped(conn, ws.WatchingResponse{Event: ws.EventWatching, BundleID: bundleID.String()})

	// Reader goroutine: answers pings and notices the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Connection closed")
			return
		case msg, open := <-sub.Channel():
			if !open {
				return
			}
			var event ws.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("unreadable progress payload")
				continue
			}
			if err := ws.WriteTyped(conn, event); err != nil {
				wsLog.Debug().Err(err).Msg("client write failed")
				return
			}
		}
	}
}
