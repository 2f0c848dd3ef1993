package dbmysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// CreateOrUpdate upserts on the token primary key, so re-registering from
// the same device just refreshes activity.
func (r *DeviceRepository) CreateOrUpdate(ctx context.Context, userID, deviceToken, platform string) error {
	device := &Device{
		DeviceToken:  deviceToken,
		UserID:       userID,
		Platform:     platform,
		RegisteredAt: time.Now(),
		LastActive:   time.Now(),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(device).Error
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// ActiveTokens returns the principal's push targets seen within the last 30
// days, most recent first.
func (r *DeviceRepository) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	var devices []*Device

	cutoff := time.Now().AddDate(0, 0, -30)
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND last_active > ?", userID, cutoff).
		Order("last_active DESC").
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active devices: %w", err)
	}

	tokens := make([]string, len(devices))
	for i, d := range devices {
		tokens[i] = d.DeviceToken
	}
	return tokens, nil
}

// Remove deletes a token outright. Used by the fan-out pipeline's self-heal
// when the provider reports it invalid or unregistered.
func (r *DeviceRepository) Remove(ctx context.Context, token string) error {
	result := r.db.WithContext(ctx).Delete(&Device{}, "device_token = ?", token)
	if result.Error != nil {
		return fmt.Errorf("failed to delete device token: %w", result.Error)
	}
	return nil
}
