package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/postforge/postforge/internal/config"
	"github.com/postforge/postforge/internal/models"
	"github.com/postforge/postforge/internal/security"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultAdminUsername is used when ADMIN_USERNAME is unset.
const defaultAdminUsername = "admin"

// EnsureAdmin seeds the first admin account when the table is empty.
// Credentials come from ADMIN_USERNAME / ADMIN_PASSWORD; when no
// password is configured a random one is generated and logged once.
func EnsureAdmin(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("app: nil database connection")
	}

	var count int64
	if errCount := conn.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("app: count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(os.Getenv(config.EnvAdminUsername))
	if username == "" {
		username = defaultAdminUsername
	}

	password := os.Getenv(config.EnvAdminPassword)
	generated := false
	if strings.TrimSpace(password) == "" {
		random, errRandom := security.GenerateRandomString(16)
		if errRandom != nil {
			return errRandom
		}
		password = random
		generated = true
	}

	return CreateAdmin(conn, username, password, generated)
}

// CreateAdmin creates an admin account with a hashed password.
func CreateAdmin(conn *gorm.DB, username, password string, logPassword bool) error {
	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}

	admin := models.Admin{
		Username: username,
		Password: hashed,
		Active:   true,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("app: create admin: %w", errCreate)
	}

	if logPassword {
		log.Infof("app: created admin %q with generated password %s", username, password)
	} else {
		log.Infof("app: created admin %q", username)
	}
	return nil
}
