package repositories

import (
	"addons_backend/internal/models"

	"gorm.io/gorm"
)

type ReviewerScoreRepository interface {
	Create(db *gorm.DB, score *models.ReviewerScore) error
	TotalForUser(db *gorm.DB, userID uint) (int, error)
}

type ReviewerScoreRepositoryImpl struct{}

func NewReviewerScoreRepository() ReviewerScoreRepository {
	return &ReviewerScoreRepositoryImpl{}
}

func (r *ReviewerScoreRepositoryImpl) Create(db *gorm.DB, score *models.ReviewerScore) error {
	return db.Create(score).Error
}

func (r *ReviewerScoreRepositoryImpl) TotalForUser(db *gorm.DB, userID uint) (int, error) {
	var total int
	err := db.Model(&models.ReviewerScore{}).
		Select("COALESCE(SUM(score), 0)").Where("user_id = ?", userID).
		Row().Scan(&total)
	return total, err
}
