package repositories

import (
	"errors"

	"addons_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAddonNotFound   = errors.New("addon not found")
	ErrVersionNotFound = errors.New("version not found")
)

// BayesianInputs are the site-wide averages used to weight addon ratings.
type BayesianInputs struct {
	AverageRating float64
	AverageVotes  float64
}

type AddonRepository interface {
	FindByID(db *gorm.DB, id uint) (*models.Addon, error)
	FindBySlug(db *gorm.DB, slug string) (*models.Addon, error)
	IsAuthor(db *gorm.DB, addonID, userID uint) (bool, error)
	FindAuthors(db *gorm.DB, addonID uint) ([]models.User, error)
	FindVersion(db *gorm.DB, addonID, versionID uint) (*models.Version, error)
	LatestListedVersion(db *gorm.DB, addonID uint) (*models.Version, error)
	LocalizedName(db *gorm.DB, addon *models.Addon, locale string) string
	UpdateRatingFields(db *gorm.DB, addonID uint, average float64, total, text int) error
	UpdateBayesianRating(db *gorm.DB, addonID uint, bayesian float64) error
	GetBayesianInputs(db *gorm.DB) (*BayesianInputs, error)
}

type AddonRepositoryImpl struct{}

func NewAddonRepository() AddonRepository {
	return &AddonRepositoryImpl{}
}

func (r *AddonRepositoryImpl) FindByID(db *gorm.DB, id uint) (*models.Addon, error) {
	var addon models.Addon
	err := db.Preload("Authors").First(&addon, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddonNotFound
		}
		return nil, err
	}
	return &addon, nil
}

func (r *AddonRepositoryImpl) FindBySlug(db *gorm.DB, slug string) (*models.Addon, error) {
	var addon models.Addon
	err := db.Preload("Authors").First(&addon, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddonNotFound
		}
		return nil, err
	}
	return &addon, nil
}

func (r *AddonRepositoryImpl) IsAuthor(db *gorm.DB, addonID, userID uint) (bool, error) {
	var count int64
	err := db.Model(&models.AddonUser{}).
		Where("addon_id = ? AND user_id = ?", addonID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *AddonRepositoryImpl) FindAuthors(db *gorm.DB, addonID uint) ([]models.User, error) {
	var users []models.User
	err := db.Joins("JOIN addons_users ON addons_users.user_id = users.id").
		Where("addons_users.addon_id = ?", addonID).
		Order("addons_users.position").
		Find(&users).Error
	return users, err
}

func (r *AddonRepositoryImpl) FindVersion(db *gorm.DB, addonID, versionID uint) (*models.Version, error) {
	var version models.Version
	err := db.First(&version, "id = ? AND addon_id = ?", versionID, addonID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}
	return &version, nil
}

func (r *AddonRepositoryImpl) LatestListedVersion(db *gorm.DB, addonID uint) (*models.Version, error) {
	var version models.Version
	err := db.Where("addon_id = ? AND channel = ?", addonID, models.ChannelListed).
		Order("created_at DESC").Order("id DESC").
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}
	return &version, nil
}

// LocalizedName falls back to the default name when no translation exists for locale.
func (r *AddonRepositoryImpl) LocalizedName(db *gorm.DB, addon *models.Addon, locale string) string {
	if addon.NameID == nil {
		return addon.DefaultName
	}
	var t models.Translation
	err := db.Where("id = ? AND locale = ?", *addon.NameID, locale).First(&t).Error
	if err != nil || t.LocalizedString == "" {
		return addon.DefaultName
	}
	return t.LocalizedString
}

func (r *AddonRepositoryImpl) UpdateRatingFields(db *gorm.DB, addonID uint, average float64, total, text int) error {
	result := db.Model(&models.Addon{}).Where("id = ?", addonID).UpdateColumns(map[string]interface{}{
		"average_rating":     average,
		"total_ratings":      total,
		"text_ratings_count": text,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAddonNotFound
	}
	return nil
}

func (r *AddonRepositoryImpl) UpdateBayesianRating(db *gorm.DB, addonID uint, bayesian float64) error {
	return db.Model(&models.Addon{}).Where("id = ?", addonID).
		UpdateColumn("bayesian_rating", bayesian).Error
}

func (r *AddonRepositoryImpl) GetBayesianInputs(db *gorm.DB) (*BayesianInputs, error) {
	var row struct {
		Rating *float64
		Votes  *float64
	}
	err := db.Model(&models.Addon{}).
		Select("AVG(average_rating) AS rating, AVG(total_ratings) AS votes").
		Where("status = ? AND total_ratings > 0", models.AddonStatusPublic).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	in := &BayesianInputs{}
	if row.Rating != nil {
		in.AverageRating = *row.Rating
	}
	if row.Votes != nil {
		in.AverageVotes = *row.Votes
	}
	return in, nil
}
