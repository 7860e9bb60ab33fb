package database

import (
	"contentflow/internal/models"

	"gorm.io/gorm"
)

// RegisteredModels lists every model in FK dependency order so AutoMigrate
// creates referenced tables before the tables that point at them.
func RegisteredModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Image{},
		&models.Like{},
	}
}

// Migrate applies the schema for all registered models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(RegisteredModels()...)
}
