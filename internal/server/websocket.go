package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/pipeline"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Envelope is a WebSocket frame: a pipeline message plus a client-chosen
// id echoed on the reply, since replies may arrive out of order.
type Envelope struct {
	ID string `json:"id,omitempty"`
	pipeline.Message
}

// Reply is the WebSocket answer to one Envelope.
type Reply struct {
	ID string `json:"id,omitempty"`
	pipeline.Response
}

type wsConn struct {
	id   string
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *wsConn) write(v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &wsConn{id: uuid.NewString(), conn: conn}

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	logging.Debug("websocket connected", "conn", c.id)

	ctx, cancel := context.WithCancel(context.Background())
	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
		s.mu.Lock()
		delete(s.conns, c.id)
		s.mu.Unlock()
		conn.Close()
		logging.Debug("websocket closed", "conn", c.id)
	}()

	conn.SetReadLimit(maxBodySize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	inflight.Add(1)
	go func() {
		defer inflight.Done()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("websocket read", "conn", c.id, "err", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.write(Reply{Response: pipeline.Response{Error: "invalid message: " + err.Error()}})
			continue
		}
		s.trace(env.Type, "ws")

		// Replies go out as they complete; clients match on ID.
		inflight.Add(1)
		go func(env Envelope) {
			defer inflight.Done()
			resp := s.handler.Handle(ctx, env.Message)
			if err := c.write(Reply{ID: env.ID, Response: resp}); err != nil {
				logging.Debug("websocket write", "conn", c.id, "err", err)
			}
		}(env)
	}
}

func (s *Server) closeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		c.wmu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		c.wmu.Unlock()
		c.conn.Close()
	}
}
