// Package chat implements direct messaging: threads, the send/read path and
// attachment storage, with live delivery through the realtime gateway.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"innovatefund/internal/common"
	"innovatefund/internal/dbmongo"
)

const previewLen = 50

type ThreadStore interface {
	CreateThread(ctx context.Context, t *dbmongo.ChatThread) error
	ThreadByID(ctx context.Context, id string) (*dbmongo.ChatThread, error)
	ThreadBetween(ctx context.Context, userA, userB string) (*dbmongo.ChatThread, error)
	ThreadsFor(ctx context.Context, userID string) ([]*dbmongo.ChatThread, error)
	CreateMessage(ctx context.Context, m *dbmongo.ChatMessage) error
	MessagesByThread(ctx context.Context, threadID string, limit, offset int) ([]*dbmongo.ChatMessage, int64, error)
	TouchThread(ctx context.Context, threadID string, lastMessageID primitive.ObjectID) error
	MarkThreadRead(ctx context.Context, threadID, readerID string) error
}

type UserDirectory interface {
	ByID(ctx context.Context, id string) (*dbmongo.User, error)
}

type AttachmentStore interface {
	Upload(ctx context.Context, threadID, filename, mimeType, uploaderID string, content io.Reader) (*dbmongo.Attachment, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *dbmongo.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// MessageNotifier feeds the notification pipeline for recipients with no
// live connection.
type MessageNotifier interface {
	NotifyMessageReceived(ctx context.Context, recipientID, senderID, senderName, preview, threadID string) (*dbmongo.Notification, error)
}

type Service struct {
	store       ThreadStore
	users       UserDirectory
	attachments AttachmentStore
	live        common.Broadcaster
	presence    common.Presence
	notifier    MessageNotifier
}

func NewService(
	store ThreadStore,
	users UserDirectory,
	attachments AttachmentStore,
	live common.Broadcaster,
	presence common.Presence,
	notifier MessageNotifier,
) *Service {
	return &Service{
		store:       store,
		users:       users,
		attachments: attachments,
		live:        live,
		presence:    presence,
		notifier:    notifier,
	}
}

// GetOrCreateThread returns the direct thread between the principal and the
// other user, creating it on first contact.
func (s *Service) GetOrCreateThread(ctx context.Context, userID, otherID string) (*dbmongo.ChatThread, error) {
	if otherID == "" {
		return nil, common.NewValidationError("participantId", "required")
	}
	if otherID == userID {
		return nil, common.NewValidationError("participantId", "cannot chat with yourself")
	}
	if _, err := s.users.ByID(ctx, otherID); err != nil {
		return nil, err
	}

	thread, err := s.store.ThreadBetween(ctx, userID, otherID)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	a, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, common.NewValidationError("userId", "invalid id")
	}
	b, _ := primitive.ObjectIDFromHex(otherID) // validated by users.ByID above

	thread = &dbmongo.ChatThread{Participants: []primitive.ObjectID{a, b}}
	if err := s.store.CreateThread(ctx, thread); err != nil {
		return nil, &common.PersistenceError{Op: "create thread", Err: err}
	}
	return thread, nil
}

func (s *Service) Threads(ctx context.Context, userID string) ([]*dbmongo.ChatThread, error) {
	return s.store.ThreadsFor(ctx, userID)
}

// Messages pages a thread's history oldest-first after a participant check.
func (s *Service) Messages(ctx context.Context, threadID, userID string, limit, offset int) ([]*dbmongo.ChatMessage, int64, error) {
	if _, err := s.requireParticipant(ctx, threadID, userID); err != nil {
		return nil, 0, err
	}
	return s.store.MessagesByThread(ctx, threadID, limit, offset)
}

// SendMessage persists the message, advances the thread, and delivers: the
// conversation channel gets new_message (sender included, so their other
// tabs stay in sync), and offline participants get a message_received
// notification through the fan-out pipeline.
func (s *Service) SendMessage(ctx context.Context, threadID, senderID, content string, kind common.MessageKind, attachmentID string) (*dbmongo.ChatMessage, error) {
	if kind == "" {
		kind = common.MessageText
	}
	if !kind.Valid() {
		return nil, common.NewValidationError("messageType", fmt.Sprintf("unknown message type %q", kind))
	}
	switch kind {
	case common.MessageText:
		if content == "" {
			return nil, common.NewValidationError("content", "required")
		}
		if utf8.RuneCountInString(content) > common.MaxMessageLen {
			return nil, common.NewValidationError("content", fmt.Sprintf("exceeds %d characters", common.MaxMessageLen))
		}
	default:
		if attachmentID == "" {
			return nil, common.NewValidationError("attachmentId", "required for file and image messages")
		}
	}

	thread, err := s.requireParticipant(ctx, threadID, senderID)
	if err != nil {
		return nil, err
	}

	sender, err := s.users.ByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &dbmongo.ChatMessage{
		Thread:       thread.ID,
		Sender:       sender.ID,
		Content:      content,
		Kind:         kind,
		AttachmentID: attachmentID,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		if attachmentID != "" && s.attachments != nil {
			// The upload is orphaned now; best effort, GridFS will not be
			// referenced by any message.
			if delErr := s.attachments.Delete(ctx, attachmentID); delErr != nil {
				log.Printf("chat: failed to delete orphaned attachment %s: %v", attachmentID, delErr)
			}
		}
		return nil, &common.PersistenceError{Op: "create message", Err: err}
	}
	// The sender has read their own message.
	if err := s.store.MarkThreadRead(ctx, threadID, senderID); err != nil {
		log.Printf("chat: failed to record sender receipt: %v", err)
	}
	if err := s.store.TouchThread(ctx, threadID, msg.ID); err != nil {
		log.Printf("chat: failed to touch thread %s: %v", threadID, err)
	}

	s.live.BroadcastToChannel("chat_"+threadID, "new_message", map[string]any{
		"message": msg,
		"sender": map[string]any{
			"id":             sender.ID.Hex(),
			"name":           sender.Name,
			"profilePicture": sender.ProfilePicture,
		},
	})

	preview := messagePreview(content, kind)
	for _, p := range thread.Participants {
		pid := p.Hex()
		if pid == senderID || s.presence.IsOnline(pid) {
			continue
		}
		if _, err := s.notifier.NotifyMessageReceived(ctx, pid, senderID, sender.Name, preview, threadID); err != nil {
			log.Printf("chat: failed to notify offline participant %s: %v", pid, err)
		}
	}
	return msg, nil
}

// MarkRead appends the reader's receipt to every unread message in the
// thread. Idempotent.
func (s *Service) MarkRead(ctx context.Context, threadID, readerID string) error {
	if _, err := s.requireParticipant(ctx, threadID, readerID); err != nil {
		return err
	}
	return s.store.MarkThreadRead(ctx, threadID, readerID)
}

// UploadAttachment stores a file/image payload and returns its descriptor.
// The caller then sends a message referencing the attachment ID.
func (s *Service) UploadAttachment(ctx context.Context, threadID, uploaderID, filename, mimeType string, content io.Reader) (*dbmongo.Attachment, error) {
	if _, err := s.requireParticipant(ctx, threadID, uploaderID); err != nil {
		return nil, err
	}
	return s.attachments.Upload(ctx, threadID, filename, mimeType, uploaderID, content)
}

// DownloadAttachment streams a payload to a participant of the thread it was
// uploaded for. Knowing the attachment ID is not enough.
func (s *Service) DownloadAttachment(ctx context.Context, id, userID string) (io.ReadCloser, *dbmongo.Attachment, error) {
	content, attachment, err := s.attachments.Download(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if attachment.ThreadID == "" {
		content.Close()
		return nil, nil, &common.AccessDeniedError{Resource: "attachment"}
	}
	if _, err := s.requireParticipant(ctx, attachment.ThreadID, userID); err != nil {
		content.Close()
		return nil, nil, err
	}
	return content, attachment, nil
}

func (s *Service) requireParticipant(ctx context.Context, threadID, userID string) (*dbmongo.ChatThread, error) {
	thread, err := s.store.ThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	for _, p := range thread.Participants {
		if p.Hex() == userID {
			return thread, nil
		}
	}
	return nil, &common.AccessDeniedError{Resource: "chat"}
}

// messagePreview truncates by runes so multi-byte content never gets split
// mid-sequence; the preview ends up in push payloads, which must be UTF-8.
func messagePreview(content string, kind common.MessageKind) string {
	if kind != common.MessageText {
		return "Sent an attachment"
	}
	runes := []rune(content)
	if len(runes) > previewLen {
		return string(runes[:previewLen]) + "..."
	}
	return content
}
