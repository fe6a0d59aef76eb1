package models

// User is an account that can rate, reply to and moderate ratings.
type User struct {
	BaseModel
	Email           string   `gorm:"uniqueIndex;size:255;not null" json:"-"`
	Username        string   `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName     string   `gorm:"size:255" json:"name"`
	PasswordHash    string   `gorm:"size:255" json:"-"`
	Role            UserRole `gorm:"type:varchar(20);not null;default:'user'" json:"-"`
	NotifyReply     bool     `gorm:"not null;default:true" json:"-"`
	NotifyNewReview bool     `gorm:"not null;default:true" json:"-"`
}

// Name is what other users see.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// WantsNotification reports the user's choice for a perm setting ("reply", "new_review").
func (u *User) WantsNotification(permSetting string) bool {
	switch permSetting {
	case PermSettingReply:
		return u.NotifyReply
	case PermSettingNewReview:
		return u.NotifyNewReview
	default:
		return true
	}
}

const (
	PermSettingReply     = "reply"
	PermSettingNewReview = "new_review"
)
