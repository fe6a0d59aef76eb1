package models

import "time"

const (
	ReviewerScoreNoteAddonReview = "REVIEWED_ADDON_REVIEW"

	// Points for one moderated rating.
	ReviewerScoreRatingPoints = 1
)

type ReviewerScore struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	AddonID   *uint     `gorm:"index" json:"addon_id"`
	RatingID  *uint     `json:"rating_id"`
	Score     int       `gorm:"not null" json:"score"`
	NoteKey   string    `gorm:"size:64;not null" json:"note_key"`
	Note      string    `gorm:"type:text" json:"note"`
}

func (ReviewerScore) TableName() string {
	return "reviewer_scores"
}
