// Package realtime is the websocket delivery layer: it tracks live
// connections per principal, manages named channels (personal and per-chat),
// and fans events out to them.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"innovatefund/internal/common"
)

// ThreadDirectory answers who participates in a chat thread. The gateway
// only needs it for channel join authorization.
type ThreadDirectory interface {
	Participants(ctx context.Context, threadID string) ([]string, error)
}

// HandlerFunc processes one inbound client event.
type HandlerFunc func(c *Conn, data json.RawMessage)

// Gateway owns all live connections in this process. All state is in-memory
// and rebuilt from scratch as clients reconnect.
type Gateway struct {
	mu       sync.RWMutex
	conns    map[*Conn]struct{}
	byUser   map[string]map[*Conn]struct{}
	channels map[string]map[*Conn]struct{}
	joined   map[*Conn]map[string]struct{}
	closed   bool

	threads  ThreadDirectory
	handlers map[string]HandlerFunc
}

func NewGateway(threads ThreadDirectory) *Gateway {
	g := &Gateway{
		conns:    make(map[*Conn]struct{}),
		byUser:   make(map[string]map[*Conn]struct{}),
		channels: make(map[string]map[*Conn]struct{}),
		joined:   make(map[*Conn]map[string]struct{}),
		threads:  threads,
	}
	// Explicit dispatch table: event name -> handler.
	g.handlers = map[string]HandlerFunc{
		"join_chat":     g.handleJoinChat,
		"leave_chat":    g.handleLeaveChat,
		"typing_start":  g.handleTypingStart,
		"typing_stop":   g.handleTypingStop,
		"update_status": g.handleUpdateStatus,
	}
	return g
}

// UserChannel names the principal's personal channel.
func UserChannel(userID string) string { return "user_" + userID }

// ChatChannel names a conversation's channel.
func ChatChannel(threadID string) string { return "chat_" + threadID }

// register adds the connection, auto-joins its personal channel, and
// announces the principal online if this is their first live connection.
func (g *Gateway) register(c *Conn) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		c.close()
		return
	}
	g.conns[c] = struct{}{}
	first := len(g.byUser[c.userID]) == 0
	if g.byUser[c.userID] == nil {
		g.byUser[c.userID] = make(map[*Conn]struct{})
	}
	g.byUser[c.userID][c] = struct{}{}
	g.joined[c] = make(map[string]struct{})
	g.joinLocked(c, UserChannel(c.userID))
	g.mu.Unlock()

	log.Printf("ws: client connected user=%s", c.userID)
	if first {
		g.broadcastExceptUser(c.userID, "user_status_update", common.StatusUpdate{
			UserID:   c.userID,
			Status:   "online",
			LastSeen: time.Now(),
		})
	}
}

// unregister removes the connection from every channel it joined and
// announces the principal offline when their last connection goes away.
func (g *Gateway) unregister(c *Conn) {
	g.mu.Lock()
	if _, ok := g.conns[c]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.conns, c)
	for channel := range g.joined[c] {
		g.leaveLocked(c, channel)
	}
	delete(g.joined, c)
	delete(g.byUser[c.userID], c)
	last := len(g.byUser[c.userID]) == 0
	if last {
		delete(g.byUser, c.userID)
	}
	g.mu.Unlock()

	c.close()
	log.Printf("ws: client disconnected user=%s", c.userID)
	if last {
		g.broadcastExceptUser(c.userID, "user_status_update", common.StatusUpdate{
			UserID:   c.userID,
			Status:   "offline",
			LastSeen: time.Now(),
		})
	}
}

func (g *Gateway) joinLocked(c *Conn, channel string) {
	if g.channels[channel] == nil {
		g.channels[channel] = make(map[*Conn]struct{})
	}
	g.channels[channel][c] = struct{}{}
	g.joined[c][channel] = struct{}{}
}

func (g *Gateway) leaveLocked(c *Conn, channel string) {
	if members, ok := g.channels[channel]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(g.channels, channel)
		}
	}
	if set, ok := g.joined[c]; ok {
		delete(set, channel)
	}
}

// Join subscribes the connection to a channel. Idempotent.
func (g *Gateway) Join(c *Conn, channel string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.conns[c]; !ok {
		return
	}
	g.joinLocked(c, channel)
}

// Leave unsubscribes the connection from a channel. Idempotent; leaving a
// channel never joined is a no-op.
func (g *Gateway) Leave(c *Conn, channel string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leaveLocked(c, channel)
}

// JoinChat subscribes the connection to a conversation channel after
// verifying the principal participates in the thread.
func (g *Gateway) JoinChat(ctx context.Context, c *Conn, threadID string) error {
	participants, err := g.threads.Participants(ctx, threadID)
	if err != nil {
		return err
	}
	allowed := false
	for _, p := range participants {
		if p == c.userID {
			allowed = true
			break
		}
	}
	if !allowed {
		return &common.AccessDeniedError{Resource: "chat"}
	}
	g.Join(c, ChatChannel(threadID))
	return nil
}

// BroadcastToUser emits on the principal's personal channel, reaching every
// tab and device they have open.
func (g *Gateway) BroadcastToUser(userID, event string, payload any) {
	g.BroadcastToChannel(UserChannel(userID), event, payload)
}

// BroadcastToChannel emits to every current member of the channel.
func (g *Gateway) BroadcastToChannel(channel, event string, payload any) {
	g.broadcastToChannelExcept(channel, nil, event, payload)
}

func (g *Gateway) broadcastToChannelExcept(channel string, except *Conn, event string, payload any) {
	g.mu.RLock()
	targets := make([]*Conn, 0, len(g.channels[channel]))
	for c := range g.channels[channel] {
		if c != except {
			targets = append(targets, c)
		}
	}
	g.mu.RUnlock()

	for _, c := range targets {
		g.deliver(c, event, payload)
	}
}

// broadcastExceptUser emits to every connection not owned by userID. Used
// for presence transitions, which the principal does not need echoed back.
func (g *Gateway) broadcastExceptUser(userID, event string, payload any) {
	g.mu.RLock()
	targets := make([]*Conn, 0, len(g.conns))
	for c := range g.conns {
		if c.userID != userID {
			targets = append(targets, c)
		}
	}
	g.mu.RUnlock()

	for _, c := range targets {
		g.deliver(c, event, payload)
	}
}

// deliver hands the event to the connection's writer without blocking. A
// connection whose buffer is full is considered stuck and evicted.
func (g *Gateway) deliver(c *Conn, event string, payload any) {
	select {
	case c.send <- outEvent{Event: event, Data: payload}:
	default:
		log.Printf("ws: send buffer full, evicting user=%s", c.userID)
		go g.unregister(c)
	}
}

// IsOnline reports whether the principal has at least one live connection.
func (g *Gateway) IsOnline(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byUser[userID]) > 0
}

// OnlineUsers lists principals with at least one live connection.
func (g *Gateway) OnlineUsers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	users := make([]string, 0, len(g.byUser))
	for id := range g.byUser {
		users = append(users, id)
	}
	return users
}

// Shutdown closes every live connection and refuses new registrations.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	g.closed = true
	conns := make([]*Conn, 0, len(g.conns))
	for c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.Unlock()

	for _, c := range conns {
		g.unregister(c)
	}
}

func (g *Gateway) dispatch(c *Conn, msg inEvent) {
	handler, ok := g.handlers[msg.Event]
	if !ok {
		log.Printf("ws: unhandled event %q from user=%s", msg.Event, c.userID)
		return
	}
	handler(c, msg.Data)
}
