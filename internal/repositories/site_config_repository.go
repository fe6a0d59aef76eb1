package repositories

import (
	"errors"

	"addons_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SiteConfigRepository interface {
	Get(db *gorm.DB, key string) (string, error)
	Set(db *gorm.DB, key, value string) error
}

type SiteConfigRepositoryImpl struct{}

func NewSiteConfigRepository() SiteConfigRepository {
	return &SiteConfigRepositoryImpl{}
}

// Get returns an empty string for unknown keys.
func (r *SiteConfigRepositoryImpl) Get(db *gorm.DB, key string) (string, error) {
	var row models.SiteConfig
	err := db.Where(&models.SiteConfig{Key: key}).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.Value, nil
}

func (r *SiteConfigRepositoryImpl) Set(db *gorm.DB, key, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.SiteConfig{Key: key, Value: value}).Error
}
