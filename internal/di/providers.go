// Package di assembles the application graph with google/wire.
package di

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"innovatefund/internal/ai"
	"innovatefund/internal/chat"
	"innovatefund/internal/common"
	"innovatefund/internal/config"
	"innovatefund/internal/dbmongo"
	"innovatefund/internal/dbmysql"
	"innovatefund/internal/email"
	"innovatefund/internal/notif"
	"innovatefund/internal/push"
	"innovatefund/internal/realtime"
	"innovatefund/internal/user"
)

// Application is everything main needs to serve traffic and shut down.
type Application struct {
	Config *config.Config

	Mongo *dbmongo.MongoClient
	MySQL *gorm.DB

	Users         *dbmongo.UserRepository
	Notifications *dbmongo.NotificationRepository

	Gateway      *realtime.Gateway
	Notification *notif.Service

	UserHandler  *user.Handler
	NotifHandler *notif.Handler
	ChatHandler  *chat.Handler
	AIHandler    *ai.Handler // nil when the assistant is not configured
}

// Close releases external resources. Delivery legs drain first so nothing is
// lost mid-flight.
func (a *Application) Close(ctx context.Context) {
	a.Notification.Shutdown()
	a.Gateway.Shutdown()
	a.Mongo.Close(ctx)
	if db, err := a.MySQL.DB(); err == nil {
		db.Close()
	}
}

func ProvideMongo(cfg *config.Config) (*dbmongo.MongoClient, error) {
	return dbmongo.NewMongoConnection(cfg)
}

func ProvideMySQL(cfg *config.Config) (*gorm.DB, error) {
	return dbmysql.NewMySQL(cfg)
}

// ProvidePushSender returns nil when Firebase is not configured; the
// pipeline treats a nil sender as "push leg disabled".
func ProvidePushSender(cfg *config.Config) common.PushSender {
	if !cfg.Firebase.Enabled {
		log.Println("di: firebase disabled, push delivery off")
		return nil
	}
	sender, err := push.NewFCMSender(context.Background(), cfg.Firebase)
	if err != nil {
		log.Printf("di: firebase init failed, push delivery off: %v", err)
		return nil
	}
	return sender
}

// ProvideEmailService returns nil when SMTP is not configured.
func ProvideEmailService(cfg *config.Config) common.EmailService {
	if !cfg.Email.Enabled {
		log.Println("di: email disabled")
		return nil
	}
	return email.NewService(cfg.Email)
}

func ProvideGateway(chatRepo *dbmongo.ChatRepository) *realtime.Gateway {
	return realtime.NewGateway(chatRepo)
}

func ProvideNotifService(
	cfg *config.Config,
	store *dbmongo.NotificationRepository,
	users *dbmongo.UserRepository,
	devices *dbmysql.DeviceRepository,
	gateway *realtime.Gateway,
	sender common.PushSender,
	mailer common.EmailService,
) *notif.Service {
	timeout := time.Duration(cfg.Notification.DeliveryTimeout) * time.Second
	if !cfg.Notification.Enabled {
		// Records still persist so the in-app list works; no leg fires.
		log.Println("di: notification delivery disabled")
		return notif.NewService(store, users, devices, nil, nil, nil, timeout)
	}
	return notif.NewService(store, users, devices, gateway, sender, mailer, timeout)
}

func ProvideChatService(
	store *dbmongo.ChatRepository,
	users *dbmongo.UserRepository,
	attachments *dbmongo.AttachmentStorage,
	gateway *realtime.Gateway,
	notifier *notif.Service,
) *chat.Service {
	return chat.NewService(store, users, attachments, gateway, gateway, notifier)
}

func ProvideUserService(
	cfg *config.Config,
	store *dbmongo.UserRepository,
	mailer common.EmailService,
) *user.Service {
	return user.NewService(store, mailer, cfg.Server.FrontendURL)
}

// ProvideAIHandler returns nil when no assistant credentials are present;
// main then simply does not mount the route.
func ProvideAIHandler(cfg *config.Config) *ai.Handler {
	if !cfg.AI.Enabled {
		log.Println("di: ai assistant disabled")
		return nil
	}
	return ai.NewHandler(ai.NewAssistant(cfg.AI))
}
