package models

import "time"

// Rating is a user's review of an addon, or a developer reply to one.
// Rows are never removed; Deleted hides them from the default scopes.
type Rating struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `gorm:"index:latest_reviews,priority:4" json:"created"`
	UpdatedAt     time.Time `json:"modified"`
	AddonID       uint      `gorm:"not null;index;index:latest_reviews,priority:3" json:"addon_id"`
	VersionID     *uint     `gorm:"index" json:"version_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	ReplyToID     *uint     `gorm:"column:reply_to;uniqueIndex;index:latest_reviews,priority:1" json:"reply_to"`
	Rating        *int      `json:"score"`
	Body          *string   `gorm:"column:text_body;type:text" json:"body"`
	IPAddress     string    `gorm:"size:255;not null;default:'0.0.0.0'" json:"-"`
	EditorReview  bool      `gorm:"column:editorreview;not null;default:false" json:"-"`
	Flag          bool      `gorm:"not null;default:false" json:"-"`
	Deleted       bool      `gorm:"not null;default:false" json:"-"`
	IsLatest      bool      `gorm:"not null;default:true;index:latest_reviews,priority:2" json:"is_latest"`
	PreviousCount int       `gorm:"not null;default:0" json:"previous_count"`

	Addon   *Addon   `gorm:"foreignKey:AddonID" json:"-"`
	Version *Version `gorm:"foreignKey:VersionID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
	ReplyTo *Rating  `gorm:"foreignKey:ReplyToID" json:"-"`
}

func (Rating) TableName() string {
	return "reviews"
}

// IsReply reports whether the rating answers another one.
func (r *Rating) IsReply() bool {
	return r.ReplyToID != nil
}

// BodyText returns the body or an empty string.
func (r *Rating) BodyText() string {
	if r.Body == nil {
		return ""
	}
	return *r.Body
}

// Score returns the score or 0 for replies and unscored ratings.
func (r *Rating) Score() int {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

func (r *Rating) String() string {
	body := []rune(r.BodyText())
	if len(body) > 10 {
		return string(body[:10]) + "..."
	}
	return string(body)
}

const (
	FlagReasonSpam       = "review_flag_reason_spam"
	FlagReasonLanguage   = "review_flag_reason_language"
	FlagReasonBugSupport = "review_flag_reason_bug_support"
	FlagReasonOther      = "review_flag_reason_other"
)

// FlagReasons maps reason keys to their labels, in display order.
var FlagReasons = []struct {
	Key   string
	Label string
}{
	{FlagReasonSpam, "Spam or otherwise non-review content"},
	{FlagReasonLanguage, "Inappropriate language/dialog"},
	{FlagReasonBugSupport, "Misplaced bug report or support request"},
	{FlagReasonOther, "Other (please specify)"},
}

func IsFlagReason(key string) bool {
	for _, r := range FlagReasons {
		if r.Key == key {
			return true
		}
	}
	return false
}

// RatingFlag is one user's report on a rating.
type RatingFlag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
	RatingID  uint      `gorm:"column:review_id;not null;uniqueIndex:idx_flag_rating_user" json:"rating_id"`
	UserID    *uint     `gorm:"uniqueIndex:idx_flag_rating_user" json:"user_id"`
	Flag      string    `gorm:"column:flag_name;size:64;not null;default:'review_flag_reason_other'" json:"flag"`
	Note      string    `gorm:"column:flag_notes;size:100;not null;default:''" json:"note"`
}

func (RatingFlag) TableName() string {
	return "reviews_moderation_flags"
}

// RatingAggregate holds per-addon grouped score counts.
type RatingAggregate struct {
	ID      uint `gorm:"primaryKey" json:"-"`
	AddonID uint `gorm:"uniqueIndex;not null" json:"-"`
	Count1  int  `gorm:"column:count_1;not null;default:0" json:"1"`
	Count2  int  `gorm:"column:count_2;not null;default:0" json:"2"`
	Count3  int  `gorm:"column:count_3;not null;default:0" json:"3"`
	Count4  int  `gorm:"column:count_4;not null;default:0" json:"4"`
	Count5  int  `gorm:"column:count_5;not null;default:0" json:"5"`
}

// Grouped returns counts keyed by score.
func (a *RatingAggregate) Grouped() map[int]int {
	return map[int]int{1: a.Count1, 2: a.Count2, 3: a.Count3, 4: a.Count4, 5: a.Count5}
}
