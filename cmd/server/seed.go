package main

import (
	"os"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/utils"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"gorm.io/gorm"
)

// seedAdmin creates the initial admin account when no admin exists yet.
func seedAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		logger.Warn().Msg("ADMIN_PASSWORD not set, using default password for admin account")
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username: "admin",
		Password: hash,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Infof("[Bootstrap] Created default admin user")
	return nil
}
