package models

import (
	"fmt"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Organization{},
		&Team{},
		&TeamMember{},
		&Project{},
		&GalleryImage{},
		&File{},
		&Version{},
		&VersionFile{},
		&VersionDependency{},
		&ProjectFollow{},
		&Collection{},
		&CollectionProject{},
		&Thread{},
		&ThreadMessage{},
		&Notification{},
		&ProjectDailyStat{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}
