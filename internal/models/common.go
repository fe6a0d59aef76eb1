package models

import (
	"time"
)

// BaseModel carries the auto-increment id and timestamps shared by most tables.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

// All returns every model handled by migrations and model checks.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Translation{},
		&Addon{},
		&AddonUser{},
		&Version{},
		&Rating{},
		&RatingFlag{},
		&RatingAggregate{},
		&ActivityLog{},
		&ReviewerScore{},
		&SiteConfig{},
	}
}
