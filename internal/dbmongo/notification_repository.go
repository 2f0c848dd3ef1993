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

type NotificationRepository struct {
	coll *mongo.Collection
}

func NewNotificationRepository(mc *MongoClient) *NotificationRepository {
	return &NotificationRepository{coll: mc.Database.Collection("notifications")}
}

func (r *NotificationRepository) Create(ctx context.Context, n *Notification) error {
	now := time.Now()
	n.Read = false
	n.ReadAt = nil
	n.CreatedAt = now
	n.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *NotificationRepository) ByID(ctx context.Context, id string) (*Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}

	var n Notification
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

// ByRecipient lists newest-first with pagination. unreadOnly narrows to
// read == false.
func (r *NotificationRepository) ByRecipient(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, common.ErrNotFound
	}

	filter := bson.M{"recipient": uid}
	if unreadOnly {
		filter["read"] = false
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) CountByRecipient(ctx context.Context, userID string, unreadOnly bool) (int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, common.ErrNotFound
	}

	filter := bson.M{"recipient": uid}
	if unreadOnly {
		filter["read"] = false
	}
	return r.coll.CountDocuments(ctx, filter)
}

// MarkRead flips read false→true and stamps read_at exactly once. Calling it
// again on an already-read notification is a no-op returning the stored
// record, so read == true ⇔ read_at set holds under repeated calls.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) (*Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, common.ErrNotFound
	}

	now := time.Now()
	var n Notification
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "recipient": uid, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)

	if errors.Is(err, mongo.ErrNoDocuments) {
		// Already read, or not this recipient's notification.
		if err := r.coll.FindOne(ctx, bson.M{"_id": oid, "recipient": uid}).Decode(&n); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, common.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get notification: %w", err)
		}
		return &n, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return common.ErrNotFound
	}

	now := time.Now()
	_, err = r.coll.UpdateMany(ctx,
		bson.M{"recipient": uid, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": now, "updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return common.ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "recipient": uid})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// EnsureIndexes mirrors the recipient+read+created_at query pattern of the
// list endpoint.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "recipient", Value: 1},
			{Key: "read", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	return err
}
