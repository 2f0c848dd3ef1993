// Package notif implements the notification fan-out pipeline: persist first,
// then deliver over the live, push and email legs as supervised background
// tasks that can fail without affecting the caller.
package notif

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"innovatefund/internal/common"
	"innovatefund/internal/dbmongo"
)

// Narrow views over the repositories; the service only names what it calls.

type NotificationStore interface {
	Create(ctx context.Context, n *dbmongo.Notification) error
	ByRecipient(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*dbmongo.Notification, error)
	CountByRecipient(ctx context.Context, userID string, unreadOnly bool) (int64, error)
	MarkRead(ctx context.Context, id, userID string) (*dbmongo.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
}

type UserDirectory interface {
	ByID(ctx context.Context, id string) (*dbmongo.User, error)
}

type DeviceStore interface {
	CreateOrUpdate(ctx context.Context, userID, deviceToken, platform string) error
	ActiveTokens(ctx context.Context, userID string) ([]string, error)
	Remove(ctx context.Context, token string) error
}

// Input describes one notification to fan out.
type Input struct {
	Recipient       string
	Sender          string // optional
	Kind            common.NotificationKind
	Title           string
	Body            string
	RelatedItemType common.RelatedItemType // optional, with RelatedItemID
	RelatedItemID   string
	ActionURL       string
}

// Only these kinds escalate to email.
var emailKinds = map[common.NotificationKind]bool{
	common.KindNewInvestment:        true,
	common.KindCollaborationRequest: true,
	common.KindMilestoneAchieved:    true,
	common.KindFundingGoalReached:   true,
}

// recipientPrefs is the resolved delivery profile for one fan-out. Tokens is
// empty when the recipient has no registered device.
type recipientPrefs struct {
	Name          string
	Email         string
	EmailsEnabled bool
	Tokens        []string
}

type Service struct {
	store   NotificationStore
	users   UserDirectory
	devices DeviceStore
	live    common.Broadcaster  // nil when delivery is disabled
	push    common.PushSender   // nil when FCM is not configured
	email   common.EmailService // nil when SMTP is not configured
	timeout time.Duration

	wg sync.WaitGroup
}

func NewService(
	store NotificationStore,
	users UserDirectory,
	devices DeviceStore,
	live common.Broadcaster,
	push common.PushSender,
	email common.EmailService,
	deliveryTimeout time.Duration,
) *Service {
	if deliveryTimeout <= 0 {
		deliveryTimeout = 10 * time.Second
	}
	return &Service{
		store:   store,
		users:   users,
		devices: devices,
		live:    live,
		push:    push,
		email:   email,
		timeout: deliveryTimeout,
	}
}

// Notify persists the notification and dispatches the delivery legs. Only a
// validation or persistence failure is returned; every later failure is
// logged as a delivery warning and the stored record stands.
func (s *Service) Notify(ctx context.Context, in Input) (*dbmongo.Notification, error) {
	n, err := buildRecord(in)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, n); err != nil {
		return nil, &common.PersistenceError{Op: "create notification", Err: err}
	}

	prefs, err := s.resolvePrefs(ctx, in.Recipient)
	if err != nil {
		// The record is durable; the recipient will see it on next fetch.
		s.warn("resolve", n, err)
		return n, nil
	}

	if s.live != nil {
		payload := s.livePayload(ctx, n, in.Sender)
		s.live.BroadcastToUser(in.Recipient, "new_notification", payload)
	}

	if s.push != nil && len(prefs.Tokens) > 0 {
		s.spawn(func(legCtx context.Context) {
			s.pushLeg(legCtx, n, prefs)
		})
	}
	if s.email != nil && emailKinds[n.Kind] && prefs.EmailsEnabled && prefs.Email != "" {
		s.spawn(func(legCtx context.Context) {
			s.emailLeg(legCtx, n, prefs, in.Sender)
		})
	}
	return n, nil
}

func buildRecord(in Input) (*dbmongo.Notification, error) {
	recipient, err := primitive.ObjectIDFromHex(in.Recipient)
	if err != nil {
		return nil, common.NewValidationError("recipient", "invalid id")
	}
	if !in.Kind.Valid() {
		return nil, common.NewValidationError("type", fmt.Sprintf("unknown notification type %q", in.Kind))
	}
	if in.Title == "" {
		return nil, common.NewValidationError("title", "required")
	}
	if utf8.RuneCountInString(in.Title) > common.MaxTitleLen {
		return nil, common.NewValidationError("title", fmt.Sprintf("exceeds %d characters", common.MaxTitleLen))
	}
	if in.Body == "" {
		return nil, common.NewValidationError("message", "required")
	}
	if utf8.RuneCountInString(in.Body) > common.MaxBodyLen {
		return nil, common.NewValidationError("message", fmt.Sprintf("exceeds %d characters", common.MaxBodyLen))
	}

	n := &dbmongo.Notification{
		Recipient: recipient,
		Kind:      in.Kind,
		Title:     in.Title,
		Body:      in.Body,
		ActionURL: in.ActionURL,
	}
	if in.Sender != "" {
		sender, err := primitive.ObjectIDFromHex(in.Sender)
		if err != nil {
			return nil, common.NewValidationError("sender", "invalid id")
		}
		n.Sender = &sender
	}
	if in.RelatedItemType != "" {
		if !in.RelatedItemType.Valid() {
			return nil, common.NewValidationError("relatedItem", fmt.Sprintf("unknown item type %q", in.RelatedItemType))
		}
		item := &dbmongo.RelatedItem{ItemType: in.RelatedItemType}
		if in.RelatedItemID != "" {
			itemID, err := primitive.ObjectIDFromHex(in.RelatedItemID)
			if err != nil {
				return nil, common.NewValidationError("relatedItem", "invalid item id")
			}
			item.ItemID = itemID
		}
		n.RelatedItem = item
	}
	return n, nil
}

func (s *Service) resolvePrefs(ctx context.Context, recipientID string) (*recipientPrefs, error) {
	user, err := s.users.ByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipient %s: %w", recipientID, err)
	}

	prefs := &recipientPrefs{
		Name:          user.Name,
		Email:         user.Email,
		EmailsEnabled: user.NotificationsEnabled,
	}
	tokens, err := s.devices.ActiveTokens(ctx, recipientID)
	if err != nil {
		// Push is optional; the other legs still run.
		log.Printf("notif: failed to load device tokens for %s: %v", recipientID, err)
	} else {
		prefs.Tokens = tokens
	}
	return prefs, nil
}

// livePayload is the notification record with the sender expanded, matching
// what the client renders in the notification dropdown.
func (s *Service) livePayload(ctx context.Context, n *dbmongo.Notification, senderID string) map[string]any {
	payload := map[string]any{"notification": n}
	if senderID == "" {
		return payload
	}
	sender, err := s.users.ByID(ctx, senderID)
	if err != nil {
		log.Printf("notif: failed to resolve sender %s: %v", senderID, err)
		return payload
	}
	payload["sender"] = map[string]any{
		"id":             sender.ID.Hex(),
		"name":           sender.Name,
		"profilePicture": sender.ProfilePicture,
	}
	return payload
}

func (s *Service) pushLeg(ctx context.Context, n *dbmongo.Notification, prefs *recipientPrefs) {
	if s.push == nil || len(prefs.Tokens) == 0 {
		return
	}

	data := map[string]string{
		"type":           string(n.Kind),
		"notificationId": n.ID.Hex(),
	}
	if n.ActionURL != "" {
		data["actionUrl"] = n.ActionURL
	}

	for _, token := range prefs.Tokens {
		err := s.push.Send(ctx, &common.PushMessage{
			Token: token,
			Title: n.Title,
			Body:  n.Body,
			Data:  data,
		})
		if err == nil {
			continue
		}
		if common.IsPushTokenInvalid(err) {
			// Self-heal: the provider told us this token is dead.
			if rmErr := s.devices.Remove(ctx, token); rmErr != nil {
				log.Printf("notif: failed to remove invalid token: %v", rmErr)
			} else {
				log.Printf("notif: removed invalid push token for %s", n.Recipient.Hex())
			}
			continue
		}
		s.warn("push", n, err)
	}
}

func (s *Service) emailLeg(ctx context.Context, n *dbmongo.Notification, prefs *recipientPrefs, senderID string) {
	data := map[string]any{
		"RecipientName": prefs.Name,
		"Title":         n.Title,
		"Message":       n.Body,
		"ActionURL":     n.ActionURL,
	}
	if senderID != "" {
		if sender, err := s.users.ByID(ctx, senderID); err == nil {
			data["SenderName"] = sender.Name
		}
	}
	if err := s.email.SendTemplate(prefs.Email, n.Title, "notification", data); err != nil {
		s.warn("email", n, err)
	}
}

// spawn runs a delivery leg in a tracked goroutine with its own deadline,
// detached from the caller's context: the caller is done once persistence
// succeeded.
func (s *Service) spawn(leg func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		leg(ctx)
	}()
}

func (s *Service) warn(leg string, n *dbmongo.Notification, err error) {
	w := &common.DeliveryWarning{Leg: leg, NotificationID: n.ID.Hex(), Err: err}
	log.Println("notif:", w)
}

// Drain blocks until all in-flight delivery legs finish.
func (s *Service) Drain() {
	s.wg.Wait()
}

// Shutdown waits for delivery legs before the process exits.
func (s *Service) Shutdown() {
	s.Drain()
	log.Println("notif: pipeline drained")
}

// RegisterDevice stores or refreshes a push token for the principal.
func (s *Service) RegisterDevice(ctx context.Context, userID, token, platform string) error {
	if token == "" {
		return common.NewValidationError("fcmToken", "required")
	}
	if platform == "" {
		platform = "web"
	}
	return s.devices.CreateOrUpdate(ctx, userID, token, platform)
}
