package models

import "time"

// Addon is the rated entity. Rating fields are denormalized by the aggregates task.
type Addon struct {
	BaseModel
	Slug             string      `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	NameID           *uint       `gorm:"ref:translations.id" json:"-"`
	DefaultName      string      `gorm:"size:255" json:"name"`
	Status           AddonStatus `gorm:"not null;default:0;index" json:"status"`
	LicenseBuiltin   int         `gorm:"not null;default:0" json:"license"`
	AverageRating    float64     `gorm:"not null;default:0" json:"average_rating"`
	BayesianRating   float64     `gorm:"not null;default:0" json:"bayesian_rating"`
	TotalRatings     int         `gorm:"not null;default:0" json:"total_ratings"`
	TextRatingsCount int         `gorm:"not null;default:0" json:"text_ratings_count"`

	Authors []User `gorm:"many2many:addons_users;joinForeignKey:AddonID;joinReferences:UserID" json:"-"`
}

// AddonUser is the authorship join table.
type AddonUser struct {
	AddonID   uint `gorm:"primaryKey"`
	UserID    uint `gorm:"primaryKey"`
	Position  int  `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (AddonUser) TableName() string {
	return "addons_users"
}

// Version belongs to an addon; ratings may point at one.
type Version struct {
	BaseModel
	AddonID uint           `gorm:"not null;index" json:"addon_id"`
	Version string         `gorm:"size:255;not null" json:"version"`
	Channel VersionChannel `gorm:"not null;default:2" json:"channel"`
}

// Translation rows share an id across locales, so id alone is not unique.
type Translation struct {
	ID              uint   `gorm:"primaryKey;autoIncrement:false"`
	Locale          string `gorm:"primaryKey;size:10"`
	LocalizedString string `gorm:"type:text"`
}

func (Translation) TableName() string {
	return "translations"
}
