package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"innovatefund/internal/common"
	"innovatefund/internal/dbmongo"
)

type MockThreadStore struct {
	mock.Mock
}

func (m *MockThreadStore) CreateThread(ctx context.Context, t *dbmongo.ChatThread) error {
	args := m.Called(ctx, t)
	if args.Error(0) == nil && t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockThreadStore) ThreadByID(ctx context.Context, id string) (*dbmongo.ChatThread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.ChatThread), args.Error(1)
}

func (m *MockThreadStore) ThreadBetween(ctx context.Context, userA, userB string) (*dbmongo.ChatThread, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.ChatThread), args.Error(1)
}

func (m *MockThreadStore) ThreadsFor(ctx context.Context, userID string) ([]*dbmongo.ChatThread, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*dbmongo.ChatThread), args.Error(1)
}

func (m *MockThreadStore) CreateMessage(ctx context.Context, msg *dbmongo.ChatMessage) error {
	args := m.Called(ctx, msg)
	if args.Error(0) == nil && msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockThreadStore) MessagesByThread(ctx context.Context, threadID string, limit, offset int) ([]*dbmongo.ChatMessage, int64, error) {
	args := m.Called(ctx, threadID, limit, offset)
	return args.Get(0).([]*dbmongo.ChatMessage), args.Get(1).(int64), args.Error(2)
}

func (m *MockThreadStore) TouchThread(ctx context.Context, threadID string, lastMessageID primitive.ObjectID) error {
	args := m.Called(ctx, threadID, lastMessageID)
	return args.Error(0)
}

func (m *MockThreadStore) MarkThreadRead(ctx context.Context, threadID, readerID string) error {
	args := m.Called(ctx, threadID, readerID)
	return args.Error(0)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) ByID(ctx context.Context, id string) (*dbmongo.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.User), args.Error(1)
}

type MockAttachmentStore struct {
	mock.Mock
}

func (m *MockAttachmentStore) Upload(ctx context.Context, threadID, filename, mimeType, uploaderID string, content io.Reader) (*dbmongo.Attachment, error) {
	args := m.Called(ctx, threadID, filename, mimeType, uploaderID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.Attachment), args.Error(1)
}

func (m *MockAttachmentStore) Download(ctx context.Context, id string) (io.ReadCloser, *dbmongo.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*dbmongo.Attachment), args.Error(2)
}

func (m *MockAttachmentStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// closeRecorder wraps a download stream and remembers whether it was closed.
type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []channelEmit
}

type channelEmit struct {
	channel string
	event   string
	payload any
}

func (b *recordingBroadcaster) BroadcastToUser(userID, event string, payload any) {
	b.record("user_"+userID, event, payload)
}

func (b *recordingBroadcaster) BroadcastToChannel(channel, event string, payload any) {
	b.record(channel, event, payload)
}

func (b *recordingBroadcaster) record(channel, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, channelEmit{channel, event, payload})
}

type fakePresence struct {
	online map[string]bool
}

func (p *fakePresence) IsOnline(userID string) bool { return p.online[userID] }

type MockMessageNotifier struct {
	mock.Mock
}

func (m *MockMessageNotifier) NotifyMessageReceived(ctx context.Context, recipientID, senderID, senderName, preview, threadID string) (*dbmongo.Notification, error) {
	args := m.Called(ctx, recipientID, senderID, senderName, preview, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.Notification), args.Error(1)
}

type chatFixture struct {
	store       *MockThreadStore
	users       *MockUserDirectory
	attachments *MockAttachmentStore
	live        *recordingBroadcaster
	presence    *fakePresence
	notifier    *MockMessageNotifier
	service     *Service

	alice *dbmongo.User
	bob   *dbmongo.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		store:       new(MockThreadStore),
		users:       new(MockUserDirectory),
		attachments: new(MockAttachmentStore),
		live:        new(recordingBroadcaster),
		presence:    &fakePresence{online: map[string]bool{}},
		notifier:    new(MockMessageNotifier),
		alice: &dbmongo.User{
			ID:       primitive.NewObjectID(),
			Name:     "Alice",
			UserType: common.UserInnovator,
		},
		bob: &dbmongo.User{
			ID:       primitive.NewObjectID(),
			Name:     "Bob",
			UserType: common.UserInvestor,
		},
	}
	f.service = NewService(f.store, f.users, f.attachments, f.live, f.presence, f.notifier)
	return f
}

func (f *chatFixture) thread() *dbmongo.ChatThread {
	return &dbmongo.ChatThread{
		ID:           primitive.NewObjectID(),
		Participants: []primitive.ObjectID{f.alice.ID, f.bob.ID},
	}
}

func TestGetOrCreateThread(t *testing.T) {
	f := newChatFixture(t)
	existing := f.thread()

	f.users.On("ByID", mock.Anything, f.bob.ID.Hex()).Return(f.bob, nil)
	f.store.On("ThreadBetween", mock.Anything, f.alice.ID.Hex(), f.bob.ID.Hex()).Return(existing, nil)

	thread, err := f.service.GetOrCreateThread(context.Background(), f.alice.ID.Hex(), f.bob.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, existing.ID, thread.ID)
	f.store.AssertNotCalled(t, "CreateThread", mock.Anything, mock.Anything)
}

func TestGetOrCreateThreadFirstContact(t *testing.T) {
	f := newChatFixture(t)

	f.users.On("ByID", mock.Anything, f.bob.ID.Hex()).Return(f.bob, nil)
	f.store.On("ThreadBetween", mock.Anything, f.alice.ID.Hex(), f.bob.ID.Hex()).Return(nil, common.ErrNotFound)
	f.store.On("CreateThread", mock.Anything, mock.Anything).Return(nil)

	thread, err := f.service.GetOrCreateThread(context.Background(), f.alice.ID.Hex(), f.bob.ID.Hex())
	require.NoError(t, err)
	require.Len(t, thread.Participants, 2)
	assert.Contains(t, thread.Participants, f.alice.ID)
	assert.Contains(t, thread.Participants, f.bob.ID)
}

func TestGetOrCreateThreadRejectsSelf(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.GetOrCreateThread(context.Background(), f.alice.ID.Hex(), f.alice.ID.Hex())
	assert.True(t, common.IsValidation(err))

	_, err = f.service.GetOrCreateThread(context.Background(), f.alice.ID.Hex(), "")
	assert.True(t, common.IsValidation(err))
}

func TestSendMessageRequiresParticipation(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	mallory := primitive.NewObjectID().Hex()

	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)

	_, err := f.service.SendMessage(context.Background(), thread.ID.Hex(), mallory, "hi", common.MessageText, "")
	assert.True(t, common.IsAccessDenied(err))
	f.store.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture(t)
	threadID := primitive.NewObjectID().Hex()

	_, err := f.service.SendMessage(context.Background(), threadID, f.alice.ID.Hex(), "", common.MessageText, "")
	assert.True(t, common.IsValidation(err))

	_, err = f.service.SendMessage(context.Background(), threadID, f.alice.ID.Hex(),
		strings.Repeat("x", common.MaxMessageLen+1), common.MessageText, "")
	assert.True(t, common.IsValidation(err))

	_, err = f.service.SendMessage(context.Background(), threadID, f.alice.ID.Hex(), "", common.MessageImage, "")
	assert.True(t, common.IsValidation(err), "attachment messages need an attachment id")

	_, err = f.service.SendMessage(context.Background(), threadID, f.alice.ID.Hex(), "hi", "carrier-pigeon", "")
	assert.True(t, common.IsValidation(err))
}

func TestSendMessageDeliversToChannelAndOfflineParticipants(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	f.presence.online[f.alice.ID.Hex()] = true // sender online, bob offline

	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)
	f.users.On("ByID", mock.Anything, f.alice.ID.Hex()).Return(f.alice, nil)
	f.store.On("CreateMessage", mock.Anything, mock.Anything).Return(nil)
	f.store.On("MarkThreadRead", mock.Anything, thread.ID.Hex(), f.alice.ID.Hex()).Return(nil)
	f.store.On("TouchThread", mock.Anything, thread.ID.Hex(), mock.Anything).Return(nil)
	f.notifier.On("NotifyMessageReceived", mock.Anything, f.bob.ID.Hex(), f.alice.ID.Hex(), "Alice", "hello bob", thread.ID.Hex()).
		Return(&dbmongo.Notification{}, nil)

	msg, err := f.service.SendMessage(context.Background(), thread.ID.Hex(), f.alice.ID.Hex(), "hello bob", common.MessageText, "")
	require.NoError(t, err)
	assert.Equal(t, thread.ID, msg.Thread)
	assert.Equal(t, f.alice.ID, msg.Sender)

	require.Len(t, f.live.calls, 1)
	assert.Equal(t, "chat_"+thread.ID.Hex(), f.live.calls[0].channel)
	assert.Equal(t, "new_message", f.live.calls[0].event)

	f.notifier.AssertExpectations(t)
	f.store.AssertCalled(t, "TouchThread", mock.Anything, thread.ID.Hex(), msg.ID)
}

func TestSendMessageSkipsNotificationForOnlineParticipants(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	f.presence.online[f.bob.ID.Hex()] = true

	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)
	f.users.On("ByID", mock.Anything, f.alice.ID.Hex()).Return(f.alice, nil)
	f.store.On("CreateMessage", mock.Anything, mock.Anything).Return(nil)
	f.store.On("MarkThreadRead", mock.Anything, thread.ID.Hex(), f.alice.ID.Hex()).Return(nil)
	f.store.On("TouchThread", mock.Anything, thread.ID.Hex(), mock.Anything).Return(nil)

	_, err := f.service.SendMessage(context.Background(), thread.ID.Hex(), f.alice.ID.Hex(), "hello", common.MessageText, "")
	require.NoError(t, err)

	f.notifier.AssertNotCalled(t, "NotifyMessageReceived",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessagePersistenceFailure(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()

	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)
	f.users.On("ByID", mock.Anything, f.alice.ID.Hex()).Return(f.alice, nil)
	f.store.On("CreateMessage", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := f.service.SendMessage(context.Background(), thread.ID.Hex(), f.alice.ID.Hex(), "hello", common.MessageText, "")
	assert.True(t, common.IsPersistence(err))
	assert.Empty(t, f.live.calls, "no broadcast without a stored message")
}

func TestMarkReadRequiresParticipation(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	mallory := primitive.NewObjectID().Hex()

	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)

	err := f.service.MarkRead(context.Background(), thread.ID.Hex(), mallory)
	assert.True(t, common.IsAccessDenied(err))

	f.store.On("MarkThreadRead", mock.Anything, thread.ID.Hex(), f.bob.ID.Hex()).Return(nil)
	err = f.service.MarkRead(context.Background(), thread.ID.Hex(), f.bob.ID.Hex())
	assert.NoError(t, err)
}

func TestMessagePreview(t *testing.T) {
	assert.Equal(t, "short", messagePreview("short", common.MessageText))
	assert.Equal(t, strings.Repeat("a", previewLen)+"...", messagePreview(strings.Repeat("a", previewLen+10), common.MessageText))
	assert.Equal(t, "Sent an attachment", messagePreview("", common.MessageImage))
	assert.Equal(t, "Sent an attachment", messagePreview("report.pdf", common.MessageFile))
}

// The preview ends up in push payloads; truncation must never split a
// multi-byte sequence.
func TestMessagePreviewTruncatesByRunes(t *testing.T) {
	preview := messagePreview(strings.Repeat("中", previewLen+10), common.MessageText)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, strings.Repeat("中", previewLen)+"...", preview)
}

func TestSendMessageCountsCharactersNotBytes(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	f.presence.online[f.bob.ID.Hex()] = true

	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)
	f.users.On("ByID", mock.Anything, f.alice.ID.Hex()).Return(f.alice, nil)
	f.store.On("CreateMessage", mock.Anything, mock.Anything).Return(nil)
	f.store.On("MarkThreadRead", mock.Anything, thread.ID.Hex(), f.alice.ID.Hex()).Return(nil)
	f.store.On("TouchThread", mock.Anything, thread.ID.Hex(), mock.Anything).Return(nil)

	// At the limit in characters, three times over it in bytes.
	content := strings.Repeat("中", common.MaxMessageLen)
	_, err := f.service.SendMessage(context.Background(), thread.ID.Hex(), f.alice.ID.Hex(), content, common.MessageText, "")
	require.NoError(t, err)

	_, err = f.service.SendMessage(context.Background(), thread.ID.Hex(), f.alice.ID.Hex(),
		strings.Repeat("中", common.MaxMessageLen+1), common.MessageText, "")
	assert.True(t, common.IsValidation(err))
}

func TestDownloadAttachmentRequiresParticipation(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	mallory := primitive.NewObjectID().Hex()
	stream := &closeRecorder{Reader: strings.NewReader("deck")}
	att := &dbmongo.Attachment{
		ID:       primitive.NewObjectID().Hex(),
		ThreadID: thread.ID.Hex(),
		Filename: "pitch.pdf",
	}

	f.attachments.On("Download", mock.Anything, att.ID).Return(stream, att, nil)
	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)

	_, _, err := f.service.DownloadAttachment(context.Background(), att.ID, mallory)
	assert.True(t, common.IsAccessDenied(err), "knowing the id must not be enough")
	assert.True(t, stream.closed, "denied download must not leak the stream")
}

func TestDownloadAttachmentForParticipant(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	stream := &closeRecorder{Reader: strings.NewReader("deck")}
	att := &dbmongo.Attachment{
		ID:       primitive.NewObjectID().Hex(),
		ThreadID: thread.ID.Hex(),
		Filename: "pitch.pdf",
	}

	f.attachments.On("Download", mock.Anything, att.ID).Return(stream, att, nil)
	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)

	content, got, err := f.service.DownloadAttachment(context.Background(), att.ID, f.bob.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, att.Filename, got.Filename)
	assert.False(t, stream.closed)

	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "deck", string(data))
}

func TestDownloadAttachmentWithoutThreadScopeIsDenied(t *testing.T) {
	f := newChatFixture(t)
	stream := &closeRecorder{Reader: strings.NewReader("deck")}
	att := &dbmongo.Attachment{ID: primitive.NewObjectID().Hex(), Filename: "pitch.pdf"}

	f.attachments.On("Download", mock.Anything, att.ID).Return(stream, att, nil)

	_, _, err := f.service.DownloadAttachment(context.Background(), att.ID, f.alice.ID.Hex())
	assert.True(t, common.IsAccessDenied(err))
	assert.True(t, stream.closed)
	f.store.AssertNotCalled(t, "ThreadByID", mock.Anything, mock.Anything)
}

func TestSendMessageCleansUpOrphanedAttachment(t *testing.T) {
	f := newChatFixture(t)
	thread := f.thread()
	attID := primitive.NewObjectID().Hex()

	f.store.On("ThreadByID", mock.Anything, thread.ID.Hex()).Return(thread, nil)
	f.users.On("ByID", mock.Anything, f.alice.ID.Hex()).Return(f.alice, nil)
	f.store.On("CreateMessage", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	f.attachments.On("Delete", mock.Anything, attID).Return(nil)

	_, err := f.service.SendMessage(context.Background(), thread.ID.Hex(), f.alice.ID.Hex(), "", common.MessageFile, attID)
	assert.True(t, common.IsPersistence(err))
	f.attachments.AssertCalled(t, "Delete", mock.Anything, attID)
}
