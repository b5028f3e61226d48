// internal/app/features/live/live.go
package live

import (
	"net/http"
	"time"

	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/jsonutil"
	"github.com/dalemusser/setliststudio/internal/app/system/live"
	"github.com/dalemusser/setliststudio/internal/app/system/network"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Path is where browsers open the realtime connection.
const Path = "/_blazor"

const (
	readLimit  = 4 << 10
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler upgrades signed-in browsers to a websocket registered with the hub.
type Handler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a new live Handler. Cross-origin upgrades are refused.
func NewHandler(hub *live.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Routes returns a chi.Router with the websocket endpoint mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.connect)
	return r
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	if !websocket.IsWebSocketUpgrade(r) {
		jsonutil.BadRequest(w, "websocket upgrade required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err), network.IPField(r))
		return
	}

	client := live.NewClient(conn)
	h.hub.Register(user.ID, client)
	h.logger.Debug("live connection opened",
		zap.String("user_id", user.ID), zap.String("conn_id", client.ID()))

	done := make(chan struct{})
	go h.keepAlive(client, done)
	go func() {
		defer func() {
			close(done)
			h.hub.Unregister(user.ID, client)
			client.Close()
			h.logger.Debug("live connection closed", zap.String("conn_id", client.ID()))
		}()
		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// keepAlive pings until the read loop ends; a missed pong ends the read loop.
func (h *Handler) keepAlive(c *live.Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				return
			}
		}
	}
}
