package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/pacegrid/pkg/logger"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WSHandler pushes the visible set to WebSocket clients.
type WSHandler struct {
	deps     Dependencies
	subs     Subscriber
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a push handler.
func NewWSHandler(deps Dependencies, subs Subscriber, log logger.Logger) *WSHandler {
	return &WSHandler{
		deps: deps,
		subs: subs,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// overlays are served from arbitrary origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS handles GET /ws. The client first receives the current visible
// set, then every later update in sequence order.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	// subscribe before reading the snapshot so no update falls in between
	q, unsubscribe := h.subs.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	go h.readPump(ctx, cancel, conn)

	snap := h.deps.Current()
	if err := writeMessage(conn, snap); err != nil {
		return
	}
	last := snap.Sequence

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	updates := q.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			if u.Sequence <= last {
				continue
			}
			last = u.Sequence
			if err := writeMessage(conn, u); err != nil {
				h.log.Debug(ctx, "websocket write failed", logger.Error(err))
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed and
// cancels ctx once the client goes away.
func (h *WSHandler) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug(ctx, "websocket closed", logger.Error(err))
			}
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
