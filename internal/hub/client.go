package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"marketpulse/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard frontend is served from a different origin in dev.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one WebSocket peer. subs is guarded by the hub mutex.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	subs map[Key]bool

	sendMu sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		subs: make(map[Key]bool),
	}
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[hub] upgrade failed: %v", err)
		return
	}
	c := newClient(h, conn)
	h.register(c)
	go c.writePump()
	go c.readPump()
}

// enqueue hands a frame to the write pump without blocking; a client
// that cannot drain its queue misses frames instead of stalling pollers.
// Safe against a concurrent teardown closing the channel.
func (c *Client) enqueue(msg []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// shutdown closes the send channel exactly once.
func (c *Client) shutdown() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// clientMsg is the one shape clients may send. Anything that does not
// decode into it, or names an unknown asset or timeframe, is ignored
// without closing the connection.
type clientMsg struct {
	Type      string `json:"type"`
	Asset     string `json:"asset"`
	Timeframe string `json:"timeframe"`
	Currency  string `json:"currency"`
}

func (m clientMsg) key() (Key, bool) {
	asset, ok := model.ParseAsset(m.Asset)
	if !ok {
		return Key{}, false
	}
	interval, ok := model.ParseInterval(m.Timeframe)
	if !ok {
		return Key{}, false
	}
	currency := m.Currency
	if currency == "" {
		currency = "USD"
	}
	return Key{Asset: asset, Interval: interval, Currency: currency}, true
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMsg
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}
		key, ok := msg.key()
		if !ok {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.hub.Subscribe(c, key)
		case "unsubscribe":
			c.hub.Unsubscribe(c, key)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
