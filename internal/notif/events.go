package notif

import (
	"context"
	"fmt"

	"innovatefund/internal/common"
	"innovatefund/internal/dbmongo"
)

// Domain event helpers. Each one shapes a fan-out input for one marketplace
// event so callers don't repeat titles and related-item plumbing.

func (s *Service) NotifyNewInvestment(ctx context.Context, recipientID, investorID, investorName, ideaTitle string, amount float64, investmentID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Sender:          investorID,
		Kind:            common.KindNewInvestment,
		Title:           "New Investment Received!",
		Body:            fmt.Sprintf("%s invested $%.2f in your idea \"%s\"", investorName, amount, ideaTitle),
		RelatedItemType: common.ItemInvestment,
		RelatedItemID:   investmentID,
	})
}

func (s *Service) NotifyIdeaLiked(ctx context.Context, recipientID, likerID, likerName, ideaTitle, ideaID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Sender:          likerID,
		Kind:            common.KindIdeaLiked,
		Title:           "Your idea was liked",
		Body:            fmt.Sprintf("%s liked your idea \"%s\"", likerName, ideaTitle),
		RelatedItemType: common.ItemIdea,
		RelatedItemID:   ideaID,
	})
}

func (s *Service) NotifyIdeaCommented(ctx context.Context, recipientID, commenterID, commenterName, ideaTitle, ideaID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Sender:          commenterID,
		Kind:            common.KindIdeaCommented,
		Title:           "New comment on your idea",
		Body:            fmt.Sprintf("%s commented on your idea \"%s\"", commenterName, ideaTitle),
		RelatedItemType: common.ItemIdea,
		RelatedItemID:   ideaID,
	})
}

func (s *Service) NotifyCollaborationRequest(ctx context.Context, recipientID, requesterID, requesterName, ideaTitle, ideaID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Sender:          requesterID,
		Kind:            common.KindCollaborationRequest,
		Title:           "New Collaboration Request",
		Body:            fmt.Sprintf("%s wants to collaborate on \"%s\"", requesterName, ideaTitle),
		RelatedItemType: common.ItemIdea,
		RelatedItemID:   ideaID,
	})
}

func (s *Service) NotifyCollaborationAccepted(ctx context.Context, recipientID, ownerID, ownerName, ideaTitle, ideaID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Sender:          ownerID,
		Kind:            common.KindCollaborationAccepted,
		Title:           "Collaboration Request Accepted",
		Body:            fmt.Sprintf("%s accepted your collaboration request on \"%s\"", ownerName, ideaTitle),
		RelatedItemType: common.ItemIdea,
		RelatedItemID:   ideaID,
	})
}

func (s *Service) NotifyMessageReceived(ctx context.Context, recipientID, senderID, senderName, preview, threadID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Sender:          senderID,
		Kind:            common.KindMessageReceived,
		Title:           "New Message",
		Body:            fmt.Sprintf("%s: %s", senderName, preview),
		RelatedItemType: common.ItemChat,
		RelatedItemID:   threadID,
	})
}

func (s *Service) NotifyMilestoneAchieved(ctx context.Context, recipientID, ideaTitle, milestone, ideaID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Kind:            common.KindMilestoneAchieved,
		Title:           "Milestone Achieved!",
		Body:            fmt.Sprintf("Your idea \"%s\" reached the milestone: %s", ideaTitle, milestone),
		RelatedItemType: common.ItemIdea,
		RelatedItemID:   ideaID,
	})
}

func (s *Service) NotifyFundingGoalReached(ctx context.Context, recipientID, ideaTitle, ideaID string) (*dbmongo.Notification, error) {
	return s.Notify(ctx, Input{
		Recipient:       recipientID,
		Kind:            common.KindFundingGoalReached,
		Title:           "Funding Goal Reached!",
		Body:            fmt.Sprintf("Congratulations! Your idea \"%s\" reached its funding goal", ideaTitle),
		RelatedItemType: common.ItemIdea,
		RelatedItemID:   ideaID,
	})
}
