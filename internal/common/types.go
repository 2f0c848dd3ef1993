package common

import "time"

// NotificationKind is the closed set of domain events that produce a
// notification record.
type NotificationKind string

const (
	KindNewInvestment         NotificationKind = "new_investment"
	KindIdeaLiked             NotificationKind = "idea_liked"
	KindIdeaCommented         NotificationKind = "idea_commented"
	KindCollaborationRequest  NotificationKind = "collaboration_request"
	KindCollaborationAccepted NotificationKind = "collaboration_accepted"
	KindMessageReceived       NotificationKind = "message_received"
	KindMilestoneAchieved     NotificationKind = "milestone_achieved"
	KindFundingGoalReached    NotificationKind = "funding_goal_reached"
)

var notificationKinds = map[NotificationKind]bool{
	KindNewInvestment:         true,
	KindIdeaLiked:             true,
	KindIdeaCommented:         true,
	KindCollaborationRequest:  true,
	KindCollaborationAccepted: true,
	KindMessageReceived:       true,
	KindMilestoneAchieved:     true,
	KindFundingGoalReached:    true,
}

func (k NotificationKind) Valid() bool {
	return notificationKinds[k]
}

// RelatedItemType tags what a notification points at.
type RelatedItemType string

const (
	ItemIdea       RelatedItemType = "idea"
	ItemInvestment RelatedItemType = "investment"
	ItemChat       RelatedItemType = "chat"
	ItemUser       RelatedItemType = "user"
)

func (t RelatedItemType) Valid() bool {
	switch t {
	case ItemIdea, ItemInvestment, ItemChat, ItemUser:
		return true
	}
	return false
}

// MessageKind classifies chat message content.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageFile  MessageKind = "file"
	MessageImage MessageKind = "image"
)

func (k MessageKind) Valid() bool {
	switch k {
	case MessageText, MessageFile, MessageImage:
		return true
	}
	return false
}

// UserType distinguishes the two sides of the marketplace.
type UserType string

const (
	UserInnovator UserType = "innovator"
	UserInvestor  UserType = "investor"
)

func (t UserType) Valid() bool {
	return t == UserInnovator || t == UserInvestor
}

// Hard field limits carried over from the document schema.
const (
	MaxTitleLen   = 100
	MaxBodyLen    = 300
	MaxMessageLen = 2000
)

// StatusUpdate is the presence payload broadcast as user_status_update.
type StatusUpdate struct {
	UserID   string    `json:"userId"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}
