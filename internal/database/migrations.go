package database

import (
	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Reply{},
		&models.Like{},
		&models.Following{},
	)
}
