package repository

import (
	"go-trading-post/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates the tables. Production deployments may prefer a
// dedicated migration tool.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Good{}, &model.Party{}, &model.Transaction{}, &model.LineItem{})
}
