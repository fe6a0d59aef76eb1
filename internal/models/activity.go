package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityAction identifies a logged action. Ids are stored and must not change.
type ActivityAction int

const (
	ActionAddRating     ActivityAction = 29
	ActionEditRating    ActivityAction = 107
	ActionApproveRating ActivityAction = 40
	ActionDeleteRating  ActivityAction = 41
)

// RatingActivityActions are the actions shown in the ratings moderation log.
var RatingActivityActions = []ActivityAction{
	ActionAddRating,
	ActionEditRating,
	ActionApproveRating,
	ActionDeleteRating,
}

var actionNames = map[ActivityAction]string{
	ActionAddRating:     "add_rating",
	ActionEditRating:    "edit_rating",
	ActionApproveRating: "approve_rating",
	ActionDeleteRating:  "delete_rating",
}

func (a ActivityAction) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ActivityLog records user-visible actions for the reviewer log.
type ActivityLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created"`
	Action    ActivityAction `gorm:"not null;index" json:"action"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	AddonID   *uint          `gorm:"index" json:"addon_id"`
	RatingID  *uint          `gorm:"index" json:"rating_id"`
	Details   datatypes.JSON `json:"details"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (ActivityLog) TableName() string {
	return "log_activity"
}
