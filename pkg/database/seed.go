package database

import (
	"github.com/Payphone-Digital/learnpath/internal/model"
	"gorm.io/gorm"
)

// DefaultTopics is the catalogue shipped with a fresh store. The all-topics
// badge counts its distinct categories.
func DefaultTopics() []model.Topic {
	return []model.Topic{
		{ID: 1, Title: "Fyzika - Newtonovy zákony pohybu", Category: "Fyzika"},
		{ID: 2, Title: "Biologie - Buněčná stavba", Category: "Biologie"},
		{ID: 3, Title: "Psychologie - Základy motivace", Category: "Psychologie"},
	}
}

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedTopics(db)
}

// SeedTopics inserts the default catalogue when the topics table is empty.
func SeedTopics(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Topic{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	topics := DefaultTopics()
	return db.Create(&topics).Error
}
