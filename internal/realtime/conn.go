package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"innovatefund/internal/common"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type inEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Conn is one live websocket connection owned by an authenticated principal.
type Conn struct {
	userID string
	ws     *websocket.Conn
	send   chan outEvent
	gw     *Gateway

	closeOnce sync.Once
}

func (c *Conn) UserID() string { return c.userID }

// Emit queues an event for this connection only.
func (c *Conn) Emit(event string, payload any) {
	c.gw.deliver(c, event, payload)
}

// close tears down the socket. The send channel is left open on purpose:
// broadcasters may still hold a reference to this Conn, and writes to a
// full buffer are simply dropped once the pumps exit.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		if c.ws == nil {
			return
		}
		c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
		c.ws.Close()
	})
}

// ServeWS authenticates the handshake and, on success, upgrades and starts
// the connection's pumps. Unauthenticated requests are refused before the
// upgrade.
func ServeWS(gw *Gateway, w http.ResponseWriter, r *http.Request) {
	claims, err := common.ClaimsFromRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("ws: upgrade failed:", err)
		return
	}

	c := &Conn{
		userID: claims.UserID,
		ws:     ws,
		send:   make(chan outEvent, sendBuffer),
		gw:     gw,
	}
	gw.register(c)

	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer c.gw.unregister(c)

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("ws: read error:", err)
			}
			return
		}

		var msg inEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.Emit("error", map[string]string{"message": "invalid event payload"})
			continue
		}
		c.gw.dispatch(c, msg)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				log.Println("ws: write error:", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
