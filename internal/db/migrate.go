package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/postforge/postforge/internal/models"
	internalsettings "github.com/postforge/postforge/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate runs schema migrations and seeds default settings.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Account{},
		&models.Generation{},
		&models.Payment{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultSettings(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// ensureDefaultSettings inserts settings rows that are missing.
func ensureDefaultSettings(conn *gorm.DB) error {
	defaults := map[string]any{
		internalsettings.RateLimitKey:             internalsettings.DefaultRateLimit,
		internalsettings.RateLimitRedisEnabledKey: false,
		internalsettings.RateLimitRedisAddrKey:    "",
		internalsettings.RateLimitRedisPrefixKey:  internalsettings.DefaultRateLimitRedisPrefix,
		internalsettings.LockTTLSecondsKey:        internalsettings.DefaultLockTTLSeconds,
		internalsettings.GenerationModelKey:       internalsettings.DefaultGenerationModel,
	}

	for key, value := range defaults {
		var existing models.Setting
		errFind := conn.Where("key = ?", key).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: read setting %s: %w", key, errFind)
		}

		raw, errMarshal := json.Marshal(value)
		if errMarshal != nil {
			return fmt.Errorf("db: encode setting %s: %w", key, errMarshal)
		}
		record := models.Setting{Key: key, Value: datatypes.JSON(raw)}
		if errCreate := conn.Create(&record).Error; errCreate != nil {
			return fmt.Errorf("db: seed setting %s: %w", key, errCreate)
		}
	}
	return nil
}
