package repositories

import (
	"errors"

	"addons_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRatingNotFound = errors.New("rating not found")
	ErrFlagNotFound   = errors.New("rating flag not found")
)

// RatingScope picks which ratings a query can see.
type RatingScope int

const (
	// ScopeObjects hides deleted ratings and replies to deleted ratings.
	ScopeObjects RatingScope = iota
	// ScopeUnfiltered sees every row.
	ScopeUnfiltered
	// ScopeWithoutReplies hides deleted ratings and all replies.
	ScopeWithoutReplies
)

type RatingFilter struct {
	AddonID        *uint
	UserID         *uint
	VersionID      *uint
	ExcludeIDs     []uint
	OnlyLatest     bool
	IncludeReplies bool
	Page           int
	PageSize       int
}

// AggregateStats is the per-addon result of the aggregates computation.
type AggregateStats struct {
	AverageRating    float64
	TotalRatings     int
	TextRatingsCount int
	Grouped          map[int]int
}

type RatingRepository interface {
	Create(db *gorm.DB, rating *models.Rating) error
	FindByID(db *gorm.DB, id uint, scope RatingScope) (*models.Rating, error)
	UpdateColumns(db *gorm.DB, rating *models.Rating, values map[string]interface{}) error
	Save(db *gorm.DB, rating *models.Rating) error
	ExistsForVersion(db *gorm.DB, versionID, userID uint) (bool, error)
	FindReply(db *gorm.DB, parentID uint) (*models.Rating, error)
	GetReplies(db *gorm.DB, parentIDs []uint) (map[uint]models.Rating, error)
	List(db *gorm.DB, filter RatingFilter) ([]models.Rating, int64, error)
	ToModerate(db *gorm.DB, page, pageSize int) ([]models.Rating, int64, error)

	// Flags
	UpsertFlag(db *gorm.DB, flag *models.RatingFlag) error
	DeleteFlags(db *gorm.DB, ratingID uint) error
	HasFlags(db *gorm.DB, ratingID uint) (bool, error)
	FindFlags(db *gorm.DB, ratingID uint) ([]models.RatingFlag, error)

	// Denormalized data
	UpdateDenorm(db *gorm.DB, addonID, userID uint) error
	ComputeAggregates(db *gorm.DB, addonID uint) (*AggregateStats, error)
	SaveAggregate(db *gorm.DB, addonID uint, grouped map[int]int) error
	FindAggregate(db *gorm.DB, addonID uint) (*models.RatingAggregate, error)
	AddonIDsWithRatings(db *gorm.DB) ([]uint, error)
}

type RatingRepositoryImpl struct{}

func NewRatingRepository() RatingRepository {
	return &RatingRepositoryImpl{}
}

// Scoped applies a rating scope to a query on the reviews table.
func Scoped(db *gorm.DB, scope RatingScope) *gorm.DB {
	q := db.Model(&models.Rating{})
	switch scope {
	case ScopeObjects:
		q = q.Where("reviews.deleted = ?", false).
			Where("(reviews.reply_to IS NULL OR reviews.reply_to NOT IN (?))",
				db.Session(&gorm.Session{NewDB: true}).Model(&models.Rating{}).Select("id").Where("deleted = ?", true))
	case ScopeWithoutReplies:
		q = q.Where("reviews.deleted = ? AND reviews.reply_to IS NULL", false)
	}
	return q
}

func (r *RatingRepositoryImpl) Create(db *gorm.DB, rating *models.Rating) error {
	return db.Create(rating).Error
}

func (r *RatingRepositoryImpl) FindByID(db *gorm.DB, id uint, scope RatingScope) (*models.Rating, error) {
	var rating models.Rating
	err := Scoped(db, scope).
		Preload("Addon").Preload("Addon.Authors").Preload("User").Preload("ReplyTo").Preload("ReplyTo.User").Preload("Version").
		Where("reviews.id = ?", id).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// UpdateColumns writes only the given columns, leaving the modified timestamp alone.
func (r *RatingRepositoryImpl) UpdateColumns(db *gorm.DB, rating *models.Rating, values map[string]interface{}) error {
	result := db.Model(rating).UpdateColumns(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRatingNotFound
	}
	return nil
}

func (r *RatingRepositoryImpl) Save(db *gorm.DB, rating *models.Rating) error {
	return db.Omit(clause.Associations).Save(rating).Error
}

// ExistsForVersion ignores deleted rows, matching the one_review_per_user index.
func (r *RatingRepositoryImpl) ExistsForVersion(db *gorm.DB, versionID, userID uint) (bool, error) {
	var count int64
	err := Scoped(db, ScopeObjects).
		Where("version_id = ? AND user_id = ? AND reply_to IS NULL", versionID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindReply returns the reply to parentID, deleted or not.
func (r *RatingRepositoryImpl) FindReply(db *gorm.DB, parentID uint) (*models.Rating, error) {
	var reply models.Rating
	err := Scoped(db, ScopeUnfiltered).Where("reply_to = ?", parentID).First(&reply).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return &reply, nil
}

func (r *RatingRepositoryImpl) GetReplies(db *gorm.DB, parentIDs []uint) (map[uint]models.Rating, error) {
	replies := make(map[uint]models.Rating)
	if len(parentIDs) == 0 {
		return replies, nil
	}
	var rows []models.Rating
	err := Scoped(db, ScopeObjects).Preload("User").
		Where("reviews.reply_to IN ?", parentIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		replies[*row.ReplyToID] = row
	}
	return replies, nil
}

func (r *RatingRepositoryImpl) List(db *gorm.DB, filter RatingFilter) ([]models.Rating, int64, error) {
	q := Scoped(db, ScopeObjects)
	if !filter.IncludeReplies {
		q = q.Where("reviews.reply_to IS NULL")
	}
	if filter.AddonID != nil {
		q = q.Where("reviews.addon_id = ?", *filter.AddonID)
	}
	if filter.UserID != nil {
		q = q.Where("reviews.user_id = ?", *filter.UserID)
	}
	if filter.VersionID != nil {
		q = q.Where("reviews.version_id = ?", *filter.VersionID)
	}
	if len(filter.ExcludeIDs) > 0 {
		q = q.Where("reviews.id NOT IN ?", filter.ExcludeIDs)
	}
	if filter.OnlyLatest {
		q = q.Where("reviews.is_latest = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var ratings []models.Rating
	err := q.Preload("User").Preload("Addon").
		Order("reviews.created_at DESC").Order("reviews.id DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&ratings).Error
	return ratings, total, err
}

// ToModerate returns flagged ratings awaiting review on listed versions of
// nominated or public addons.
func (r *RatingRepositoryImpl) ToModerate(db *gorm.DB, page, pageSize int) ([]models.Rating, int64, error) {
	statuses := make([]int, 0, len(models.ValidAddonStatuses))
	for _, s := range models.ValidAddonStatuses {
		statuses = append(statuses, int(s))
	}

	q := Scoped(db, ScopeObjects).
		Joins("JOIN addons ON addons.id = reviews.addon_id").
		Joins("LEFT JOIN versions ON versions.id = reviews.version_id").
		Where("reviews.editorreview = ?", true).
		Where("addons.status IN ?", statuses).
		Where("(versions.id IS NULL OR versions.channel <> ?)", models.ChannelUnlisted).
		Where("EXISTS (SELECT 1 FROM reviews_moderation_flags f WHERE f.review_id = reviews.id)")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)
	var ratings []models.Rating
	err := q.Preload("User").Preload("Addon").
		Order("reviews.created_at DESC").Order("reviews.id DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&ratings).Error
	return ratings, total, err
}

// Flags

// UpsertFlag replaces the reason and note of an existing (rating, user) flag.
func (r *RatingRepositoryImpl) UpsertFlag(db *gorm.DB, flag *models.RatingFlag) error {
	var existing models.RatingFlag
	q := db.Where("review_id = ?", flag.RatingID)
	if flag.UserID != nil {
		q = q.Where("user_id = ?", *flag.UserID)
	} else {
		q = q.Where("user_id IS NULL")
	}
	err := q.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(flag).Error
	}
	if err != nil {
		return err
	}
	flag.ID = existing.ID
	flag.CreatedAt = existing.CreatedAt
	return db.Model(&existing).Updates(map[string]interface{}{
		"flag_name":  flag.Flag,
		"flag_notes": flag.Note,
	}).Error
}

func (r *RatingRepositoryImpl) DeleteFlags(db *gorm.DB, ratingID uint) error {
	return db.Where("review_id = ?", ratingID).Delete(&models.RatingFlag{}).Error
}

func (r *RatingRepositoryImpl) HasFlags(db *gorm.DB, ratingID uint) (bool, error) {
	var count int64
	err := db.Model(&models.RatingFlag{}).Where("review_id = ?", ratingID).Count(&count).Error
	return count > 0, err
}

func (r *RatingRepositoryImpl) FindFlags(db *gorm.DB, ratingID uint) ([]models.RatingFlag, error) {
	var flags []models.RatingFlag
	err := db.Where("review_id = ?", ratingID).Order("id").Find(&flags).Error
	return flags, err
}

// Denormalized data

// UpdateDenorm numbers the user's ratings of the addon in creation order and
// marks only the newest one as latest.
func (r *RatingRepositoryImpl) UpdateDenorm(db *gorm.DB, addonID, userID uint) error {
	var ratings []models.Rating
	err := Scoped(db, ScopeWithoutReplies).
		Where("addon_id = ? AND user_id = ?", addonID, userID).
		Order("created_at ASC").Order("id ASC").
		Find(&ratings).Error
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for idx := range ratings {
			values := map[string]interface{}{
				"previous_count": idx,
				"is_latest":      idx == len(ratings)-1,
			}
			if err := tx.Model(&ratings[idx]).UpdateColumns(values).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RatingRepositoryImpl) ComputeAggregates(db *gorm.DB, addonID uint) (*AggregateStats, error) {
	base := func() *gorm.DB {
		return Scoped(db, ScopeWithoutReplies).Where("addon_id = ? AND is_latest = ?", addonID, true)
	}

	var row struct {
		Average *float64
		Total   int
	}
	if err := base().Select("AVG(rating) AS average, COUNT(*) AS total").Scan(&row).Error; err != nil {
		return nil, err
	}

	var text int64
	if err := base().Where("text_body IS NOT NULL AND text_body <> ''").Count(&text).Error; err != nil {
		return nil, err
	}

	var groups []struct {
		Rating int
		Count  int
	}
	if err := base().Where("rating IS NOT NULL").
		Select("rating, COUNT(*) AS count").Group("rating").Scan(&groups).Error; err != nil {
		return nil, err
	}

	stats := &AggregateStats{TotalRatings: row.Total, TextRatingsCount: int(text), Grouped: map[int]int{}}
	if row.Average != nil {
		stats.AverageRating = *row.Average
	}
	for score := 1; score <= 5; score++ {
		stats.Grouped[score] = 0
	}
	for _, g := range groups {
		if g.Rating >= 1 && g.Rating <= 5 {
			stats.Grouped[g.Rating] = g.Count
		}
	}
	return stats, nil
}

func (r *RatingRepositoryImpl) SaveAggregate(db *gorm.DB, addonID uint, grouped map[int]int) error {
	agg := models.RatingAggregate{
		AddonID: addonID,
		Count1:  grouped[1],
		Count2:  grouped[2],
		Count3:  grouped[3],
		Count4:  grouped[4],
		Count5:  grouped[5],
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "addon_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"count_1", "count_2", "count_3", "count_4", "count_5"}),
	}).Create(&agg).Error
}

func (r *RatingRepositoryImpl) FindAggregate(db *gorm.DB, addonID uint) (*models.RatingAggregate, error) {
	var agg models.RatingAggregate
	err := db.Where("addon_id = ?", addonID).First(&agg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.RatingAggregate{AddonID: addonID}, nil
		}
		return nil, err
	}
	return &agg, nil
}

func (r *RatingRepositoryImpl) AddonIDsWithRatings(db *gorm.DB) ([]uint, error) {
	var ids []uint
	err := Scoped(db, ScopeUnfiltered).Distinct("addon_id").Order("addon_id").Pluck("addon_id", &ids).Error
	return ids, err
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
