// Package push adapts Firebase Cloud Messaging to the backend's neutral
// PushSender interface.
package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"innovatefund/internal/common"
	"innovatefund/internal/config"
)

type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, cfg config.FirebaseConfig) (*FCMSender, error) {
	opts := []option.ClientOption{}
	if cfg.CredentialsFilePath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFilePath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

// Send delivers one message to one token. Provider-reported invalid or
// unregistered tokens come back wrapped in common.ErrPushTokenInvalid so the
// pipeline can clear them.
func (s *FCMSender) Send(ctx context.Context, msg *common.PushMessage) error {
	fcmMessage := &messaging.Message{
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data:  msg.Data,
		Token: msg.Token,
	}

	_, err := s.client.Send(ctx, fcmMessage)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsInvalidArgument(err) {
			return fmt.Errorf("%w: %v", common.ErrPushTokenInvalid, err)
		}
		return fmt.Errorf("fcm send failed: %w", err)
	}
	return nil
}
