package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/codec"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/session"

	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The agent listens for a local screen reader.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type frame struct {
	binary bool
	data   []byte
}

// Connection is one screen-reader client. Each connection drives at most
// one career session at a time.
type Connection struct {
	ID        string
	Conn      *websocket.Conn
	Send      chan frame
	Gateway   *Gateway
	SessionID string
	LastPing  time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Gateway manages websocket connections.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64
	sessions    *session.Manager
	readLimit   int64
	digest      string
}

func New(sessions *session.Manager, readLimit int64, digest string) *Gateway {
	if readLimit <= 0 {
		readLimit = 65536
	}
	return &Gateway{
		connections: make(map[string]*Connection),
		sessions:    sessions,
		readLimit:   readLimit,
		digest:      digest,
	}
}

// HandleWebSocket upgrades the request and starts the connection pumps.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID),
		Conn:     conn,
		Send:     make(chan frame, sendBuffer),
		Gateway:  g,
		LastPing: time.Now(),
		ctx:      ctx,
		cancel:   cancel,
	}
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s, total: %d", c.ID, total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Gateway.readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		switch messageType {
		case websocket.TextMessage:
			c.handleMessage(false, message)
		case websocket.BinaryMessage:
			c.handleMessage(true, message)
		}
	}
}

func (c *Connection) handleMessage(binary bool, data []byte) {
	decode := codec.DecodeJSON
	if binary {
		decode = codec.DecodeBinary
	}
	env, err := decode(data)
	if err != nil {
		log.Printf("[Gateway] Rejected frame from %s: %v", c.ID, err)
		code := codec.ErrCodeMalformed
		if errors.Is(err, codec.ErrUnknownType) {
			code = codec.ErrCodeUnknownType
		}
		c.send(binary, codec.ErrorEnvelope(c.SessionID, code, err.Error()))
		return
	}

	switch env.Type {
	case codec.TypeHello:
		c.handleHello(binary)
	case codec.TypeReset:
		c.handleReset(binary)
	case codec.TypeObservation:
		c.handleObservation(binary, env)
	}
}

func (c *Connection) sessionEnvelope() *codec.Envelope {
	s, _ := c.Gateway.sessions.Get(c.SessionID)
	env := &codec.Envelope{Type: codec.TypeSession, Session: c.SessionID, Digest: c.Gateway.digest}
	if s != nil {
		env.Policy = s.Name()
	}
	return env
}

func (c *Connection) handleHello(binary bool) {
	if c.SessionID == "" {
		c.SessionID = c.Gateway.sessions.Open(c.ctx).ID
	}
	c.send(binary, c.sessionEnvelope())
}

func (c *Connection) handleReset(binary bool) {
	if c.SessionID == "" {
		c.handleHello(binary)
		return
	}
	if _, err := c.Gateway.sessions.Reset(c.ctx, c.SessionID); err != nil {
		c.SessionID = c.Gateway.sessions.Open(c.ctx).ID
	}
	c.send(binary, c.sessionEnvelope())
}

func (c *Connection) handleObservation(binary bool, env *codec.Envelope) {
	if c.SessionID == "" {
		c.SessionID = c.Gateway.sessions.Open(c.ctx).ID
	}
	obs, err := codec.ObservationOf(env)
	if err != nil {
		c.send(binary, codec.ErrorEnvelope(c.SessionID, codec.ErrCodeObservation, err.Error()))
		return
	}
	d, err := c.Gateway.sessions.Decide(c.ctx, c.SessionID, &obs)
	if err != nil {
		c.send(binary, codec.ErrorEnvelope(c.SessionID, codec.ErrCodeSession, err.Error()))
		return
	}
	c.send(binary, codec.ActionEnvelope(d.SessionID, d.Seq, d.State.String(), d.VirtualTurn, d.Action))
}

func (c *Connection) send(binary bool, env *codec.Envelope) {
	encode := codec.EncodeJSON
	if binary {
		encode = codec.EncodeBinary
	}
	data, err := encode(env)
	if err != nil {
		log.Printf("[Gateway] Encode %s failed: %v", env.Type, err)
		return
	}
	select {
	case c.Send <- frame{binary: binary, data: data}:
	case <-c.ctx.Done():
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case f := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.Conn.WriteMessage(kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	c.cancel()
	if c.SessionID != "" {
		g.sessions.Close(c.SessionID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, len(g.connections))
}

// Count returns the number of open connections.
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
