package dbmongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"innovatefund/internal/common"
)

// User is a principal on either side of the marketplace.
type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	Email                string             `bson:"email" json:"email"`
	PasswordHash         string             `bson:"password_hash" json:"-"`
	UserType             common.UserType    `bson:"user_type" json:"userType"`
	ProfilePicture       string             `bson:"profile_picture,omitempty" json:"profilePicture,omitempty"`
	Bio                  string             `bson:"bio,omitempty" json:"bio,omitempty"`
	NotificationsEnabled bool               `bson:"notifications_enabled" json:"notificationsEnabled"`
	LastActive           time.Time          `bson:"last_active" json:"lastActive"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// RelatedItem is the tagged reference a notification may carry.
type RelatedItem struct {
	ItemType common.RelatedItemType `bson:"item_type" json:"itemType"`
	ItemID   primitive.ObjectID     `bson:"item_id,omitempty" json:"itemId,omitempty"`
}

// Notification is the persisted record of the fan-out pipeline. Persistence
// is the durable source of truth; the delivery legs never mutate it.
// Invariant: Read is true exactly when ReadAt is set.
type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Recipient   primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Sender      *primitive.ObjectID `bson:"sender,omitempty" json:"sender,omitempty"`
	Kind        common.NotificationKind `bson:"kind" json:"type"`
	Title       string              `bson:"title" json:"title"`
	Body        string              `bson:"body" json:"message"`
	RelatedItem *RelatedItem        `bson:"related_item,omitempty" json:"relatedItem,omitempty"`
	Read        bool                `bson:"read" json:"read"`
	ReadAt      *time.Time          `bson:"read_at,omitempty" json:"readAt,omitempty"`
	ActionURL   string              `bson:"action_url,omitempty" json:"actionUrl,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

// ChatThread groups two or more participants. LastMessage and LastActivity
// move forward on every send.
type ChatThread struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	Name         string               `bson:"name,omitempty" json:"name,omitempty"`
	IsGroup      bool                 `bson:"is_group" json:"isGroup"`
	LastMessage  *primitive.ObjectID  `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	LastActivity time.Time            `bson:"last_activity" json:"lastActivity"`
	CreatedAt    time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updatedAt"`
}

// ReadReceipt appears at most once per (message, reader) pair.
type ReadReceipt struct {
	Reader primitive.ObjectID `bson:"reader" json:"reader"`
	ReadAt time.Time          `bson:"read_at" json:"readAt"`
}

// ChatMessage belongs to a thread whose participant set includes the sender.
type ChatMessage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Thread       primitive.ObjectID `bson:"thread" json:"chatId"`
	Sender       primitive.ObjectID `bson:"sender" json:"sender"`
	Content      string             `bson:"content" json:"content"`
	Kind         common.MessageKind `bson:"kind" json:"messageType"`
	AttachmentID string             `bson:"attachment_id,omitempty" json:"attachmentId,omitempty"`
	ReadBy       []ReadReceipt      `bson:"read_by" json:"readBy"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
