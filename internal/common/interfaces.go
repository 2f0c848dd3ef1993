package common

import "context"

// PushMessage is the provider-neutral push payload handed to the sender.
type PushMessage struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// PushSender delivers one push message. Implementations return
// ErrPushTokenInvalid (wrapped) when the provider reports the token as
// invalid or unregistered so the caller can clear it.
type PushSender interface {
	Send(ctx context.Context, msg *PushMessage) error
}

// EmailService renders a named template and hands the result to the relay.
type EmailService interface {
	SendTemplate(to, subject, template string, data map[string]any) error
}

// Broadcaster is the live-delivery surface the realtime gateway exposes to
// the rest of the backend. Both methods are fire-and-forget.
type Broadcaster interface {
	// BroadcastToUser emits on the principal's personal channel, reaching
	// every live connection that principal owns.
	BroadcastToUser(userID, event string, payload any)
	// BroadcastToChannel emits on a named channel (e.g. a chat room).
	BroadcastToChannel(channel, event string, payload any)
}

// Presence answers whether a principal currently owns at least one live
// connection in this process. Best-effort.
type Presence interface {
	IsOnline(userID string) bool
}
