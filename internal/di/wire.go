//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"innovatefund/internal/chat"
	"innovatefund/internal/config"
	"innovatefund/internal/dbmongo"
	"innovatefund/internal/dbmysql"
	"innovatefund/internal/notif"
	"innovatefund/internal/user"
)

// InitializeApplication builds the full graph. Wire generates the real body.
func InitializeApplication(cfg *config.Config) (*Application, error) {
	wire.Build(
		ProvideMongo,
		ProvideMySQL,
		dbmongo.NewUserRepository,
		dbmongo.NewNotificationRepository,
		dbmongo.NewChatRepository,
		dbmongo.NewAttachmentStorage,
		dbmysql.NewDeviceRepository,
		ProvidePushSender,
		ProvideEmailService,
		ProvideGateway,
		ProvideNotifService,
		ProvideChatService,
		ProvideUserService,
		ProvideAIHandler,
		user.NewHandler,
		notif.NewHandler,
		chat.NewHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
