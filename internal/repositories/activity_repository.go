package repositories

import (
	"addons_backend/internal/models"

	"gorm.io/gorm"
)

type ActivityFilter struct {
	AddonID  *uint
	Actions  []models.ActivityAction
	Page     int
	PageSize int
}

type ActivityRepository interface {
	Create(db *gorm.DB, entry *models.ActivityLog) error
	List(db *gorm.DB, filter ActivityFilter) ([]models.ActivityLog, int64, error)
	ForRating(db *gorm.DB, ratingID uint) ([]models.ActivityLog, error)
}

type ActivityRepositoryImpl struct{}

func NewActivityRepository() ActivityRepository {
	return &ActivityRepositoryImpl{}
}

func (r *ActivityRepositoryImpl) Create(db *gorm.DB, entry *models.ActivityLog) error {
	return db.Create(entry).Error
}

func (r *ActivityRepositoryImpl) List(db *gorm.DB, filter ActivityFilter) ([]models.ActivityLog, int64, error) {
	q := db.Model(&models.ActivityLog{})
	if filter.AddonID != nil {
		q = q.Where("addon_id = ?", *filter.AddonID)
	}
	if len(filter.Actions) > 0 {
		q = q.Where("action IN ?", filter.Actions)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var entries []models.ActivityLog
	err := q.Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&entries).Error
	return entries, total, err
}

func (r *ActivityRepositoryImpl) ForRating(db *gorm.DB, ratingID uint) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := db.Where("rating_id = ?", ratingID).Order("id").Find(&entries).Error
	return entries, err
}
