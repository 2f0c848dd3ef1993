package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"innovatefund/internal/common"
)

const joinTimeout = 5 * time.Second

type chatRef struct {
	ChatID string `json:"chatId"`
}

// handleJoinChat subscribes the requester to a conversation channel after a
// participant check. A rejected join answers with an error event on the same
// connection; the socket stays open.
func (g *Gateway) handleJoinChat(c *Conn, data json.RawMessage) {
	var payload chatRef
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		c.Emit("error", map[string]string{"message": "chatId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	if err := g.JoinChat(ctx, c, payload.ChatID); err != nil {
		if common.IsAccessDenied(err) || errors.Is(err, common.ErrNotFound) {
			c.Emit("error", map[string]string{"message": "Access denied"})
		} else {
			log.Printf("ws: join_chat failed user=%s chat=%s: %v", c.userID, payload.ChatID, err)
			c.Emit("error", map[string]string{"message": "Failed to join chat"})
		}
		return
	}
	c.Emit("joined_chat", payload)
}

func (g *Gateway) handleLeaveChat(c *Conn, data json.RawMessage) {
	var payload chatRef
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		c.Emit("error", map[string]string{"message": "chatId is required"})
		return
	}
	g.Leave(c, ChatChannel(payload.ChatID))
	c.Emit("left_chat", payload)
}

type typingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// Typing indicators relay to the conversation channel, excluding the typist.
func (g *Gateway) handleTypingStart(c *Conn, data json.RawMessage) {
	g.relayTyping(c, data, "user_typing")
}

func (g *Gateway) handleTypingStop(c *Conn, data json.RawMessage) {
	g.relayTyping(c, data, "user_stop_typing")
}

func (g *Gateway) relayTyping(c *Conn, data json.RawMessage, event string) {
	var payload chatRef
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		return
	}
	g.broadcastToChannelExcept(ChatChannel(payload.ChatID), c, event, typingPayload{
		ChatID: payload.ChatID,
		UserID: c.userID,
	})
}

// handleUpdateStatus broadcasts a principal-initiated presence change to
// every other connection.
func (g *Gateway) handleUpdateStatus(c *Conn, data json.RawMessage) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Status == "" {
		return
	}

	update := common.StatusUpdate{
		UserID:   c.userID,
		Status:   payload.Status,
		LastSeen: time.Now(),
	}
	g.mu.RLock()
	targets := make([]*Conn, 0, len(g.conns))
	for other := range g.conns {
		if other != c {
			targets = append(targets, other)
		}
	}
	g.mu.RUnlock()
	for _, other := range targets {
		g.deliver(other, "user_status_update", update)
	}
}
