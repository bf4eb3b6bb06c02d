package database

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"widgetic/models"
)

func RunMigrations(db *gorm.DB) error {
	log.Info().Msg("running database migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Website{},
		&models.Membership{},
		&models.Widget{},
		&models.DailyAnalytics{},
	)

	if err != nil {
		log.Error().Err(err).Msg("error running migrations")
		return err
	}

	log.Info().Msg("migrations completed successfully")
	return nil
}

// SeedSuperadmin creates the default SUPERADMIN account unless a user with that email exists.
// It is a no-op when email or password is empty.
func SeedSuperadmin(db *gorm.DB, email, password string, cost int) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return errors.Wrap(err, "checking superadmin")
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return errors.Wrap(err, "hashing superadmin password")
	}

	admin := models.User{
		Email:        email,
		Name:         "System Admin",
		PasswordHash: string(hash),
		GlobalRole:   models.RoleSuperadmin,
		Status:       models.UserActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return errors.Wrap(err, "creating superadmin")
	}

	log.Info().Str("email", email).Msg("default superadmin created")
	return nil
}
