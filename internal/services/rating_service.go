package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"addons_backend/internal/auth"
	"addons_backend/internal/email"
	"addons_backend/internal/logger"
	"addons_backend/internal/metrics"
	"addons_backend/internal/models"
	"addons_backend/internal/repositories"
	"addons_backend/internal/services/dto"
	"addons_backend/internal/workers"
	"addons_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	subjectDeveloperReply = "Mozilla Add-on Developer Reply: %s"
	subjectUserRating     = "Mozilla Add-on User Rating: %s"

	templateReplyReview = "reply_review"
	templateNewRating   = "new_rating"
)

// SaveOptions control the post-save pipeline of a rating.
type SaveOptions struct {
	// UserResponsible is the user who triggered the save. Nil for system saves.
	UserResponsible *models.User
	Created         bool
}

type RatingService interface {
	Save(ctx context.Context, db *gorm.DB, rating *models.Rating, opts SaveOptions) error

	Create(ctx context.Context, db *gorm.DB, actorID uint, req *dto.CreateRatingRequest) (*dto.RatingResponse, error)
	Get(ctx context.Context, db *gorm.DB, id uint) (*dto.RatingResponse, error)
	Detail(ctx context.Context, db *gorm.DB, slug string, id uint) (*models.Addon, *dto.RatingResponse, error)
	Edit(ctx context.Context, db *gorm.DB, actorID, id uint, req *dto.UpdateRatingRequest) (*dto.RatingResponse, error)
	Reply(ctx context.Context, db *gorm.DB, actorID, parentID uint, req *dto.ReplyRequest) (*dto.RatingResponse, bool, error)
	Delete(ctx context.Context, db *gorm.DB, actorID, id uint) error
	Undelete(ctx context.Context, db *gorm.DB, actorID, id uint) error
	Flag(ctx context.Context, db *gorm.DB, actorID, id uint, req *dto.FlagRequest) (*dto.FlagResponse, error)
	List(ctx context.Context, db *gorm.DB, query *dto.RatingListQuery) (*dto.RatingListResponse, error)
	GetReplies(ctx context.Context, db *gorm.DB, ratings []models.Rating) (map[uint]models.Rating, error)

	// Moderation
	Approve(ctx context.Context, db *gorm.DB, moderatorID, id uint) error
	ModerateDelete(ctx context.Context, db *gorm.DB, moderatorID, id uint) error
	ModerationQueue(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.RatingListResponse, error)
	ActivityLog(ctx context.Context, db *gorm.DB, addonID *uint, page, pageSize int) (*dto.ActivityListResponse, error)

	SendNotificationEmail(ctx context.Context, db *gorm.DB, rating *models.Rating) error
}

type RatingServiceConfig struct {
	SiteURL       string
	DefaultLocale string
}

type ratingService struct {
	ratingRepo   repositories.RatingRepository
	addonRepo    repositories.AddonRepository
	userRepo     repositories.UserRepository
	activityRepo repositories.ActivityRepository
	scoreRepo    repositories.ReviewerScoreRepository
	queue        workers.Queue
	mailer       email.Provider
	cfg          RatingServiceConfig
}

func NewRatingService(
	ratingRepo repositories.RatingRepository,
	addonRepo repositories.AddonRepository,
	userRepo repositories.UserRepository,
	activityRepo repositories.ActivityRepository,
	scoreRepo repositories.ReviewerScoreRepository,
	queue workers.Queue,
	mailer email.Provider,
	cfg RatingServiceConfig,
) RatingService {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en-US"
	}
	return &ratingService{
		ratingRepo:   ratingRepo,
		addonRepo:    addonRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		scoreRepo:    scoreRepo,
		queue:        queue,
		mailer:       mailer,
		cfg:          cfg,
	}
}

// ---------------- Save pipeline ----------------

// Save persists rating and runs the post-save pipeline.
func (s *ratingService) Save(ctx context.Context, db *gorm.DB, rating *models.Rating, opts SaveOptions) error {
	if err := s.save(ctx, db, rating, opts); err != nil {
		return err
	}
	s.enqueueAggregates(ctx, rating.AddonID)
	return nil
}

// save is Save without the aggregates task, for callers running inside a transaction.
func (s *ratingService) save(ctx context.Context, db *gorm.DB, rating *models.Rating, opts SaveOptions) error {
	var err error
	if opts.Created {
		err = s.ratingRepo.Create(db, rating)
	} else {
		err = s.ratingRepo.Save(db, rating)
	}
	if err != nil {
		return mapRatingError(err)
	}
	return s.postSave(ctx, db, rating, opts)
}

func (s *ratingService) postSave(ctx context.Context, db *gorm.DB, rating *models.Rating, opts SaveOptions) error {
	if opts.UserResponsible != nil {
		action := "Edited"
		if opts.Created {
			action = "New"
		}
		if rating.IsReply() {
			logger.CtxInfo(ctx, fmt.Sprintf("%s reply to %d: %d", action, *rating.ReplyToID, rating.ID))
		} else {
			logger.CtxInfo(ctx, fmt.Sprintf("%s rating: %d", action, rating.ID))
		}

		// Replies only get logged when edited.
		if !rating.IsReply() || !opts.Created {
			activity := models.ActionEditRating
			if opts.Created {
				activity = models.ActionAddRating
			}
			addon, err := s.addonRepo.FindByID(db, rating.AddonID)
			if err != nil {
				return mapRatingError(err)
			}
			details := map[string]interface{}{
				"addon_id":    addon.ID,
				"addon_title": s.addonRepo.LocalizedName(db, addon, s.cfg.DefaultLocale),
			}
			if err := s.logActivity(db, activity, opts.UserResponsible.ID, rating, details); err != nil {
				return err
			}
		}

		if opts.Created {
			if err := s.SendNotificationEmail(ctx, db, rating); err != nil {
				logger.CtxWithError(ctx, "Failed to send rating notification", err, "rating_id", rating.ID)
			}
		}
	}

	if opts.Created {
		if err := s.ratingRepo.UpdateDenorm(db, rating.AddonID, rating.UserID); err != nil {
			return apperrors.InternalError(err)
		}
	}

	return nil
}

// enqueueAggregates must only run once the rating writes are committed.
func (s *ratingService) enqueueAggregates(ctx context.Context, addonID uint) {
	if err := workers.EnqueueAggregates(ctx, s.queue, addonID); err != nil {
		logger.CtxWithError(ctx, "Failed to enqueue rating aggregates", err, "addon_id", addonID)
	}
}

func (s *ratingService) logActivity(db *gorm.DB, action models.ActivityAction, userID uint, rating *models.Rating, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return apperrors.InternalError(err)
	}
	addonID := rating.AddonID
	ratingID := rating.ID
	entry := &models.ActivityLog{
		Action:   action,
		UserID:   userID,
		AddonID:  &addonID,
		RatingID: &ratingID,
		Details:  datatypes.JSON(raw),
	}
	if err := s.activityRepo.Create(db, entry); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ---------------- Rating operations ----------------

func (s *ratingService) Create(ctx context.Context, db *gorm.DB, actorID uint, req *dto.CreateRatingRequest) (*dto.RatingResponse, error) {
	actor, err := s.loadUser(db, actorID)
	if err != nil {
		return nil, err
	}
	if req.Score == nil || *req.Score < 1 || *req.Score > 5 {
		return nil, apperrors.ErrScoreRequired
	}

	addon, err := s.addonRepo.FindByID(db, req.AddonID)
	if err != nil {
		return nil, mapRatingError(err)
	}
	isAuthor, err := s.addonRepo.IsAuthor(db, addon.ID, actor.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if isAuthor {
		return nil, apperrors.ErrOwnAddonRating
	}

	var version *models.Version
	if req.VersionID != nil {
		version, err = s.addonRepo.FindVersion(db, addon.ID, *req.VersionID)
	} else {
		version, err = s.addonRepo.LatestListedVersion(db, addon.ID)
	}
	if err != nil {
		return nil, mapRatingError(err)
	}

	exists, err := s.ratingRepo.ExistsForVersion(db, version.ID, actor.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateRating
	}

	versionID := version.ID
	rating := &models.Rating{
		AddonID:   addon.ID,
		VersionID: &versionID,
		UserID:    actor.ID,
		Rating:    req.Score,
		Body:      normalizeBody(req.Body),
		IPAddress: req.IPAddress,
		IsLatest:  true,
	}
	if rating.IPAddress == "" {
		rating.IPAddress = "0.0.0.0"
	}

	if err := s.Save(ctx, db, rating, SaveOptions{UserResponsible: actor, Created: true}); err != nil {
		return nil, err
	}
	metrics.RecordRatingOperation("create")
	return s.Get(ctx, db, rating.ID)
}

func (s *ratingService) Get(ctx context.Context, db *gorm.DB, id uint) (*dto.RatingResponse, error) {
	rating, err := s.ratingRepo.FindByID(db, id, repositories.ScopeObjects)
	if err != nil {
		return nil, mapRatingError(err)
	}
	resp := dto.NewRatingResponse(rating)
	if !rating.IsReply() {
		replies, err := s.ratingRepo.GetReplies(db, []uint{rating.ID})
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if reply, ok := replies[rating.ID]; ok {
			resp.Reply = dto.NewRatingResponse(&reply)
		}
	}
	return resp, nil
}

// Detail returns a rating for the web page, checking it belongs to the addon identified by slug.
func (s *ratingService) Detail(ctx context.Context, db *gorm.DB, slug string, id uint) (*models.Addon, *dto.RatingResponse, error) {
	addon, err := s.addonRepo.FindBySlug(db, slug)
	if err != nil {
		return nil, nil, mapRatingError(err)
	}
	resp, err := s.Get(ctx, db, id)
	if err != nil {
		return nil, nil, err
	}
	if resp.AddonID != addon.ID {
		return nil, nil, apperrors.ErrRatingNotFound
	}
	return addon, resp, nil
}

func (s *ratingService) Edit(ctx context.Context, db *gorm.DB, actorID, id uint, req *dto.UpdateRatingRequest) (*dto.RatingResponse, error) {
	actor, err := s.loadUser(db, actorID)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratingRepo.FindByID(db, id, repositories.ScopeObjects)
	if err != nil {
		return nil, mapRatingError(err)
	}
	if rating.UserID != actor.ID {
		return nil, apperrors.ErrNotRatingAuthor
	}
	if rating.IsReply() && req.Score != nil {
		return nil, apperrors.ErrScoreOnReply
	}

	if req.Score != nil {
		rating.Rating = req.Score
	}
	if req.Body != nil {
		rating.Body = normalizeBody(req.Body)
	}

	if err := s.Save(ctx, db, rating, SaveOptions{UserResponsible: actor}); err != nil {
		return nil, err
	}
	metrics.RecordRatingOperation("edit")
	return s.Get(ctx, db, rating.ID)
}

// Reply creates the developer reply to parentID, or edits the existing one.
// The bool result reports whether a new reply was created.
func (s *ratingService) Reply(ctx context.Context, db *gorm.DB, actorID, parentID uint, req *dto.ReplyRequest) (*dto.RatingResponse, bool, error) {
	actor, err := s.loadUser(db, actorID)
	if err != nil {
		return nil, false, err
	}
	parent, err := s.ratingRepo.FindByID(db, parentID, repositories.ScopeObjects)
	if err != nil {
		return nil, false, mapRatingError(err)
	}
	if parent.IsReply() {
		return nil, false, apperrors.ErrReplyToReply
	}

	isAuthor, err := s.addonRepo.IsAuthor(db, parent.AddonID, actor.ID)
	if err != nil {
		return nil, false, apperrors.InternalError(err)
	}
	if !isAuthor && !auth.HasPermission(actor.Role, auth.PermRatingsReplyAny) {
		return nil, false, apperrors.ErrReplyNotAllowed
	}

	body := req.Body
	reply, err := s.ratingRepo.FindReply(db, parent.ID)
	created := false
	switch {
	case errors.Is(err, repositories.ErrRatingNotFound):
		created = true
		replyTo := parent.ID
		reply = &models.Rating{
			AddonID:   parent.AddonID,
			VersionID: parent.VersionID,
			UserID:    actor.ID,
			ReplyToID: &replyTo,
			Body:      &body,
			IPAddress: "0.0.0.0",
			IsLatest:  true,
		}
	case err != nil:
		return nil, false, apperrors.InternalError(err)
	default:
		reply.UserID = actor.ID
		reply.Body = &body
		reply.Deleted = false
	}

	if err := s.Save(ctx, db, reply, SaveOptions{UserResponsible: actor, Created: created}); err != nil {
		return nil, false, err
	}
	metrics.RecordRatingOperation("reply")

	resp, err := s.Get(ctx, db, reply.ID)
	if err != nil {
		return nil, false, err
	}
	return resp, created, nil
}

func (s *ratingService) Delete(ctx context.Context, db *gorm.DB, actorID, id uint) error {
	actor, err := s.loadUser(db, actorID)
	if err != nil {
		return err
	}
	rating, err := s.ratingRepo.FindByID(db, id, repositories.ScopeObjects)
	if err != nil {
		return mapRatingError(err)
	}
	if rating.UserID != actor.ID && !auth.HasPermission(actor.Role, auth.PermRatingsDelete) {
		return apperrors.ErrNotRatingAuthor
	}
	return s.deleteRating(ctx, db, rating, actor)
}

// deleteRating soft deletes rating. responsible defaults to the rating author.
func (s *ratingService) deleteRating(ctx context.Context, db *gorm.DB, rating *models.Rating, responsible *models.User) error {
	author := rating.User
	if author == nil {
		var err error
		if author, err = s.loadUser(db, rating.UserID); err != nil {
			return err
		}
	}
	if responsible == nil {
		responsible = author
	}

	moderated := responsible.ID != author.ID
	err := db.Transaction(func(tx *gorm.DB) error {
		if moderated {
			details, err := s.moderationDetails(tx, rating)
			if err != nil {
				return err
			}
			if err := s.logActivity(tx, models.ActionDeleteRating, responsible.ID, rating, details); err != nil {
				return err
			}
			if err := s.ratingRepo.DeleteFlags(tx, rating.ID); err != nil {
				return apperrors.InternalError(err)
			}
		}
		if err := s.ratingRepo.UpdateColumns(tx, rating, map[string]interface{}{"deleted": true}); err != nil {
			return apperrors.InternalError(err)
		}
		if err := s.postSave(ctx, tx, rating, SaveOptions{}); err != nil {
			return err
		}
		if err := s.ratingRepo.UpdateDenorm(tx, rating.AddonID, rating.UserID); err != nil {
			return apperrors.InternalError(err)
		}
		return nil
	})
	if err != nil {
		return mapRatingError(err)
	}
	rating.Deleted = true

	logger.CtxInfo(ctx, "Rating deleted",
		"deleted_by", responsible.Name(),
		"rating_id", rating.ID,
		"author", author.Name(),
		"body", rating.BodyText(),
	)
	s.enqueueAggregates(ctx, rating.AddonID)

	if moderated {
		s.awardModerationPoints(ctx, db, responsible, rating)
	}
	metrics.RecordRatingOperation("delete")
	return nil
}

func (s *ratingService) Undelete(ctx context.Context, db *gorm.DB, actorID, id uint) error {
	actor, err := s.loadUser(db, actorID)
	if err != nil {
		return err
	}
	if !auth.HasPermission(actor.Role, auth.PermRatingsUndelete) {
		return apperrors.ErrInsufficientPermissions
	}
	rating, err := s.ratingRepo.FindByID(db, id, repositories.ScopeUnfiltered)
	if err != nil {
		return mapRatingError(err)
	}
	if !rating.Deleted {
		return apperrors.ErrRatingNotDeleted
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.ratingRepo.UpdateColumns(tx, rating, map[string]interface{}{"deleted": false}); err != nil {
			return err
		}
		if err := s.postSave(ctx, tx, rating, SaveOptions{}); err != nil {
			return err
		}
		return s.ratingRepo.UpdateDenorm(tx, rating.AddonID, rating.UserID)
	})
	if err != nil {
		return mapRatingError(err)
	}
	rating.Deleted = false
	s.enqueueAggregates(ctx, rating.AddonID)
	logger.CtxInfo(ctx, fmt.Sprintf("Rating undeleted: %d", rating.ID), "undeleted_by", actor.Name())
	metrics.RecordRatingOperation("undelete")
	return nil
}

func (s *ratingService) Flag(ctx context.Context, db *gorm.DB, actorID, id uint, req *dto.FlagRequest) (*dto.FlagResponse, error) {
	actor, err := s.loadUser(db, actorID)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratingRepo.FindByID(db, id, repositories.ScopeObjects)
	if err != nil {
		return nil, mapRatingError(err)
	}
	if rating.UserID == actor.ID {
		return nil, apperrors.ErrFlagOwnRating
	}
	if !models.IsFlagReason(req.Flag) {
		return nil, apperrors.ValidationError(map[string]string{"flag": "Invalid flag reason"})
	}
	note := strings.TrimSpace(req.Note)
	if req.Flag == models.FlagReasonOther && note == "" {
		return nil, apperrors.ErrFlagNoteRequired
	}

	userID := actor.ID
	flag := &models.RatingFlag{
		RatingID: rating.ID,
		UserID:   &userID,
		Flag:     req.Flag,
		Note:     note,
	}
	if err := s.ratingRepo.UpsertFlag(db, flag); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.ratingRepo.UpdateColumns(db, rating, map[string]interface{}{
		"editorreview": true,
		"flag":         true,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	metrics.RecordRatingOperation("flag")
	return &dto.FlagResponse{RatingID: rating.ID, Flag: flag.Flag, Note: flag.Note}, nil
}

func (s *ratingService) List(ctx context.Context, db *gorm.DB, query *dto.RatingListQuery) (*dto.RatingListResponse, error) {
	if query.AddonID == nil && query.UserID == nil && query.VersionID == nil {
		return nil, apperrors.NewBadRequestError("Need an addon or user parameter")
	}

	filter := repositories.RatingFilter{
		AddonID:    query.AddonID,
		UserID:     query.UserID,
		VersionID:  query.VersionID,
		ExcludeIDs: query.ExcludeIDs,
		OnlyLatest: query.AddonID != nil && query.VersionID == nil,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	ratings, total, err := s.ratingRepo.List(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	replies, err := s.GetReplies(ctx, db, ratings)
	if err != nil {
		return nil, err
	}

	page, pageSize := pageBounds(query.Page, query.PageSize)
	resp := &dto.RatingListResponse{
		Ratings:    make([]*dto.RatingResponse, 0, len(ratings)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}
	for i := range ratings {
		item := dto.NewRatingResponse(&ratings[i])
		if reply, ok := replies[ratings[i].ID]; ok {
			item.Reply = dto.NewRatingResponse(&reply)
		}
		resp.Ratings = append(resp.Ratings, item)
	}

	if query.ShowGrouped && query.AddonID != nil {
		agg, err := s.ratingRepo.FindAggregate(db, *query.AddonID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		resp.GroupedRatings = agg.Grouped()
	}
	return resp, nil
}

func (s *ratingService) GetReplies(ctx context.Context, db *gorm.DB, ratings []models.Rating) (map[uint]models.Rating, error) {
	ids := make([]uint, 0, len(ratings))
	for _, r := range ratings {
		if !r.IsReply() {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return map[uint]models.Rating{}, nil
	}
	replies, err := s.ratingRepo.GetReplies(db, ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return replies, nil
}

// ---------------- Moderation ----------------

func (s *ratingService) Approve(ctx context.Context, db *gorm.DB, moderatorID, id uint) error {
	moderator, err := s.loadUser(db, moderatorID)
	if err != nil {
		return err
	}
	if !auth.CanModerate(moderator) {
		return apperrors.ErrInsufficientPermissions
	}
	rating, err := s.ratingRepo.FindByID(db, id, repositories.ScopeObjects)
	if err != nil {
		return mapRatingError(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		details, err := s.moderationDetails(tx, rating)
		if err != nil {
			return err
		}
		if err := s.logActivity(tx, models.ActionApproveRating, moderator.ID, rating, details); err != nil {
			return err
		}
		if err := s.ratingRepo.DeleteFlags(tx, rating.ID); err != nil {
			return apperrors.InternalError(err)
		}
		rating.EditorReview = false
		return s.save(ctx, tx, rating, SaveOptions{})
	})
	if err != nil {
		return mapRatingError(err)
	}
	s.enqueueAggregates(ctx, rating.AddonID)
	s.awardModerationPoints(ctx, db, moderator, rating)
	metrics.RecordRatingOperation("approve")
	return nil
}

// ModerateDelete deletes a rating from the moderation queue.
func (s *ratingService) ModerateDelete(ctx context.Context, db *gorm.DB, moderatorID, id uint) error {
	moderator, err := s.loadUser(db, moderatorID)
	if err != nil {
		return err
	}
	if !auth.CanModerate(moderator) {
		return apperrors.ErrInsufficientPermissions
	}
	rating, err := s.ratingRepo.FindByID(db, id, repositories.ScopeObjects)
	if err != nil {
		return mapRatingError(err)
	}
	return s.deleteRating(ctx, db, rating, moderator)
}

func (s *ratingService) ModerationQueue(ctx context.Context, db *gorm.DB, page, pageSize int) (*dto.RatingListResponse, error) {
	ratings, total, err := s.ratingRepo.ToModerate(db, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	page, pageSize = pageBounds(page, pageSize)
	resp := &dto.RatingListResponse{
		Ratings:    make([]*dto.RatingResponse, 0, len(ratings)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}
	for i := range ratings {
		resp.Ratings = append(resp.Ratings, dto.NewRatingResponse(&ratings[i]))
	}
	return resp, nil
}

func (s *ratingService) ActivityLog(ctx context.Context, db *gorm.DB, addonID *uint, page, pageSize int) (*dto.ActivityListResponse, error) {
	entries, total, err := s.activityRepo.List(db, repositories.ActivityFilter{
		AddonID:  addonID,
		Actions:  models.RatingActivityActions,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	page, pageSize = pageBounds(page, pageSize)
	resp := &dto.ActivityListResponse{
		Entries:    make([]*dto.ActivityResponse, 0, len(entries)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: dto.TotalPages(total, pageSize),
	}
	for _, e := range entries {
		item := &dto.ActivityResponse{
			ID:       e.ID,
			Action:   e.Action.String(),
			User:     dto.RatingUser{ID: e.UserID},
			AddonID:  e.AddonID,
			RatingID: e.RatingID,
			Created:  e.CreatedAt,
		}
		if e.User != nil {
			item.User.Name = e.User.Name()
		}
		if len(e.Details) > 0 {
			if err := json.Unmarshal(e.Details, &item.Details); err != nil {
				logger.CtxWithError(ctx, "Failed to decode activity details", err, "activity_id", e.ID)
			}
		}
		resp.Entries = append(resp.Entries, item)
	}
	return resp, nil
}

func (s *ratingService) moderationDetails(db *gorm.DB, rating *models.Rating) (map[string]interface{}, error) {
	addon := rating.Addon
	if addon == nil {
		var err error
		if addon, err = s.addonRepo.FindByID(db, rating.AddonID); err != nil {
			return nil, mapRatingError(err)
		}
	}
	flagged, err := s.ratingRepo.HasFlags(db, rating.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return map[string]interface{}{
		"body":        rating.BodyText(),
		"addon_id":    addon.ID,
		"addon_title": s.addonRepo.LocalizedName(db, addon, s.cfg.DefaultLocale),
		"is_flagged":  flagged,
	}, nil
}

// awardModerationPoints is best effort: failing to score must not undo the moderation.
func (s *ratingService) awardModerationPoints(ctx context.Context, db *gorm.DB, moderator *models.User, rating *models.Rating) {
	addonID := rating.AddonID
	ratingID := rating.ID
	score := &models.ReviewerScore{
		UserID:   moderator.ID,
		AddonID:  &addonID,
		RatingID: &ratingID,
		Score:    models.ReviewerScoreRatingPoints,
		NoteKey:  models.ReviewerScoreNoteAddonReview,
	}
	if err := s.scoreRepo.Create(db, score); err != nil {
		logger.CtxWithError(ctx, "Failed to award moderation points", err, "rating_id", rating.ID)
		return
	}
	logger.CtxInfo(ctx, "Awarding moderation points",
		"points", score.Score,
		"user", moderator.Name(),
		"rating_id", rating.ID,
	)
}

// ---------------- Notifications ----------------

func (s *ratingService) SendNotificationEmail(ctx context.Context, db *gorm.DB, rating *models.Rating) error {
	if s.mailer == nil {
		return nil
	}
	addon, err := s.addonRepo.FindByID(db, rating.AddonID)
	if err != nil {
		return err
	}
	name := s.addonRepo.LocalizedName(db, addon, s.cfg.DefaultLocale)

	data := email.TemplateData{
		"name":         name,
		"rating_url":   s.absolutify(fmt.Sprintf("/addon/%s/reviews/%d", addon.Slug, s.threadID(rating))),
		"settings_url": s.absolutify("/users/edit#acct-notify"),
	}

	var (
		recipients []models.User
		subject    string
		tmpl       string
		perm       string
	)
	if rating.IsReply() {
		parent, err := s.ratingRepo.FindByID(db, *rating.ReplyToID, repositories.ScopeUnfiltered)
		if err != nil {
			return err
		}
		if parent.User != nil {
			recipients = []models.User{*parent.User}
		}
		subject = fmt.Sprintf(subjectDeveloperReply, name)
		tmpl = templateReplyReview
		perm = models.PermSettingReply
		data["reply"] = rating.BodyText()
	} else {
		recipients = addon.Authors
		subject = fmt.Sprintf(subjectUserRating, name)
		tmpl = templateNewRating
		perm = models.PermSettingNewReview
		data["score"] = rating.Score()
		data["body"] = rating.BodyText()
	}

	var to []string
	for _, u := range recipients {
		if u.WantsNotification(perm) {
			to = append(to, u.Email)
		}
	}
	if len(to) == 0 {
		logger.CtxDebug(ctx, "No recipients for rating notification", "rating_id", rating.ID)
		return nil
	}

	if err := s.mailer.SendTemplate(to, subject, tmpl, data); err != nil {
		return err
	}
	logger.CtxInfo(ctx, "Rating notification sent", "rating_id", rating.ID, "recipients", len(to))
	return nil
}

// threadID is the id of the rating page a rating is shown on.
func (s *ratingService) threadID(rating *models.Rating) uint {
	if rating.IsReply() {
		return *rating.ReplyToID
	}
	return rating.ID
}

func (s *ratingService) absolutify(path string) string {
	return s.cfg.SiteURL + path
}

// ---------------- Helpers ----------------

func (s *ratingService) loadUser(db *gorm.DB, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorizedError("User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func normalizeBody(body *string) *string {
	if body == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*body)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func pageBounds(page, pageSize int) (int, int) {
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

func mapRatingError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrRatingNotFound):
		return apperrors.ErrRatingNotFound
	case errors.Is(err, repositories.ErrAddonNotFound):
		return apperrors.ErrAddonNotFound
	case errors.Is(err, repositories.ErrVersionNotFound):
		return apperrors.ErrVersionNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrDuplicateRating
	default:
		return apperrors.InternalError(err)
	}
}
