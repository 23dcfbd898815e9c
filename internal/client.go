package internal

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/zefir/reakcja-go-backend/logger"
)

const writeTimeout = 5 * time.Second

// Client is one connected websocket peer. The client id doubles as the
// player id inside whatever session the client is bound to. GameCode is
// only touched from the connection's own goroutine.
type Client struct {
	ID       string
	GameCode string
	conn     net.Conn
	mu       sync.Mutex
}

func NewClient(id string, conn net.Conn) *Client {
	return &Client{ID: id, conn: conn}
}

// Send marshals an envelope and writes it as a single text frame.
// Delivery is best-effort: a client without an open connection is
// skipped, and write failures are the caller's to log, never fatal.
func (c *Client) Send(msgType string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	payload, err := json.Marshal(outEnvelope{Type: msgType, Data: data})
	if err != nil {
		return err
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	writer := wsutil.NewWriter(c.conn, ws.StateServerSide, ws.OpText)
	if _, err := writer.Write(payload); err != nil {
		return err
	}
	return writer.Flush()
}

// ClientRegistry maps client ids to live connections. It is the only
// shared view of who is reachable; sessions track players, not sockets.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*Client)}
}

func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

func (r *ClientRegistry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

func (r *ClientRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// send delivers to one player id if a live client is bound to it. Missing
// bindings and failed writes are logged and skipped so one dead peer never
// stalls a broadcast.
func (r *ClientRegistry) send(playerID, msgType string, data any) {
	c, ok := r.Get(playerID)
	if !ok {
		logger.Log.Debug().Str("player", playerID).Str("msg", msgType).Msg("no client bound, skipping send")
		return
	}
	if err := c.Send(msgType, data); err != nil {
		logger.Log.Warn().Err(err).Str("player", playerID).Str("msg", msgType).Msg("send failed")
	}
}
