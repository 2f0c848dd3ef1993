package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"innovatefund/internal/common"
)

type ChatRepository struct {
	threads  *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(mc *MongoClient) *ChatRepository {
	return &ChatRepository{
		threads:  mc.Database.Collection("chat_threads"),
		messages: mc.Database.Collection("chat_messages"),
	}
}

func (r *ChatRepository) CreateThread(ctx context.Context, t *ChatThread) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.LastActivity = now

	res, err := r.threads.InsertOne(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ChatRepository) ThreadByID(ctx context.Context, id string) (*ChatThread, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}

	var t ChatThread
	if err := r.threads.FindOne(ctx, bson.M{"_id": oid}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return &t, nil
}

// ThreadBetween finds the existing direct thread between two principals, if
// any.
func (r *ChatRepository) ThreadBetween(ctx context.Context, userA, userB string) (*ChatThread, error) {
	a, err := primitive.ObjectIDFromHex(userA)
	if err != nil {
		return nil, common.ErrNotFound
	}
	b, err := primitive.ObjectIDFromHex(userB)
	if err != nil {
		return nil, common.ErrNotFound
	}

	var t ChatThread
	err = r.threads.FindOne(ctx, bson.M{
		"participants": bson.M{"$all": bson.A{a, b}},
		"is_group":     false,
	}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find thread: %w", err)
	}
	return &t, nil
}

func (r *ChatRepository) ThreadsFor(ctx context.Context, userID string) ([]*ChatThread, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, common.ErrNotFound
	}

	opts := options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}})
	cursor, err := r.threads.Find(ctx, bson.M{"participants": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer cursor.Close(ctx)

	var threads []*ChatThread
	if err := cursor.All(ctx, &threads); err != nil {
		return nil, fmt.Errorf("failed to decode threads: %w", err)
	}
	return threads, nil
}

// Participants returns the thread's member IDs in hex form. The realtime
// gateway uses this for the conversation-channel authorization check.
func (r *ChatRepository) Participants(ctx context.Context, threadID string) ([]string, error) {
	t, err := r.ThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(t.Participants))
	for i, p := range t.Participants {
		ids[i] = p.Hex()
	}
	return ids, nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *ChatMessage) error {
	m.CreatedAt = time.Now()
	if m.ReadBy == nil {
		m.ReadBy = []ReadReceipt{}
	}

	res, err := r.messages.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// MessagesByThread pages newest-first, then reverses so callers render
// oldest-first, matching the REST contract.
func (r *ChatRepository) MessagesByThread(ctx context.Context, threadID string, limit, offset int) ([]*ChatMessage, int64, error) {
	tid, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return nil, 0, common.ErrNotFound
	}

	filter := bson.M{"thread": tid}
	total, err := r.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, fmt.Errorf("failed to decode messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

// TouchThread advances the last-message pointer and activity timestamp.
func (r *ChatRepository) TouchThread(ctx context.Context, threadID string, lastMessageID primitive.ObjectID) error {
	tid, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return common.ErrNotFound
	}

	now := time.Now()
	_, err = r.threads.UpdateByID(ctx, tid, bson.M{
		"$set": bson.M{
			"last_message":  lastMessageID,
			"last_activity": now,
			"updated_at":    now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to touch thread: %w", err)
	}
	return nil
}

// MarkThreadRead appends a receipt for the reader to every message in the
// thread they have not read yet. The read_by.reader $ne guard makes the
// operation idempotent: at most one receipt per (message, reader).
func (r *ChatRepository) MarkThreadRead(ctx context.Context, threadID, readerID string) error {
	tid, err := primitive.ObjectIDFromHex(threadID)
	if err != nil {
		return common.ErrNotFound
	}
	rid, err := primitive.ObjectIDFromHex(readerID)
	if err != nil {
		return common.ErrNotFound
	}

	_, err = r.messages.UpdateMany(ctx,
		bson.M{"thread": tid, "read_by.reader": bson.M{"$ne": rid}},
		bson.M{"$push": bson.M{"read_by": ReadReceipt{Reader: rid, ReadAt: time.Now()}}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark thread read: %w", err)
	}
	return nil
}
