package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type statusConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *statusConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *statusConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

type statusMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// statusFeed pushes the overview on connect and after every change.
func (a *api) statusFeed(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}
	conn := &statusConn{conn: ws, send: make(chan []byte, 8)}
	log.Info().Str("module", "adapters.http").Str("client_ip", c.ClientIP()).Msg("status feed connected")

	ctx, cancel := context.WithCancel(a.ctx)
	changes, unsubscribe := a.streams.Subscribe()

	go a.writePump(ctx, conn)
	go func() {
		defer unsubscribe()
		a.readPump(ctx, conn)
		cancel()
	}()
	go a.publish(ctx, conn, changes)
}

func (a *api) publish(ctx context.Context, c *statusConn, changes <-chan struct{}) {
	a.sendOverview(c)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			a.sendOverview(c)
		}
	}
}

func (a *api) sendOverview(c *statusConn) {
	a.sendJSON(c, statusMessage{Type: "overview", Data: a.streams.Overview()})
}

func (a *api) writePump(ctx context.Context, c *statusConn) {
	ping := time.NewTicker(a.ping)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("writePump ping")
				c.Close()
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("writePump write error")
				c.Close()
				return
			}
		}
	}
}

// readPump only serves client pings; the feed is one-way.
func (a *api) readPump(ctx context.Context, c *statusConn) {
	defer func() {
		log.Info().Str("module", "adapters.http").Msg("status feed closed")
		c.Close()
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			log.Debug().Err(err).Str("module", "adapters.http").Msg("bad json")
			continue
		}
		switch env.Type {
		case "ping":
			a.sendJSON(c, statusMessage{Type: "pong"})
		case "refresh":
			a.sendOverview(c)
		default:
			log.Debug().Str("module", "adapters.http").Str("type", env.Type).Msg("unknown message")
		}
	}
}

func (a *api) sendJSON(c *statusConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); errors.Is(err, ErrBackpressure) {
		log.Debug().Str("module", "adapters.http").Msg("status feed lagging, update dropped")
	}
}
