package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"addons_backend/internal/logger"
	"addons_backend/internal/repositories"

	"gorm.io/gorm"
)

const (
	TaskAddonRatingAggregates = "ratings.addon_rating_aggregates"
	TaskUpdateDenorm          = "ratings.update_denorm"
	TaskAddonIndex            = "addons.index"
)

type AddonPayload struct {
	AddonID uint `json:"addon_id"`
}

type DenormPayload struct {
	AddonID uint `json:"addon_id"`
	UserID  uint `json:"user_id"`
}

// Indexer pushes an addon document to the search backend.
type Indexer interface {
	Index(ctx context.Context, addonID uint) error
}

// LogIndexer only records that a reindex was requested.
type LogIndexer struct{}

func (LogIndexer) Index(ctx context.Context, addonID uint) error {
	logger.CtxDebug(ctx, "Addon reindex requested", "addon_id", addonID)
	return nil
}

// RatingTasks holds the handlers for rating background work.
type RatingTasks struct {
	db         *gorm.DB
	ratingRepo repositories.RatingRepository
	addonRepo  repositories.AddonRepository
	indexer    Indexer
}

func NewRatingTasks(db *gorm.DB, ratingRepo repositories.RatingRepository, addonRepo repositories.AddonRepository, indexer Indexer) *RatingTasks {
	if indexer == nil {
		indexer = LogIndexer{}
	}
	return &RatingTasks{db: db, ratingRepo: ratingRepo, addonRepo: addonRepo, indexer: indexer}
}

// Register binds every rating task name on q.
func (t *RatingTasks) Register(q Queue) {
	q.Register(TaskAddonRatingAggregates, t.handleAggregates)
	q.Register(TaskUpdateDenorm, t.handleDenorm)
	q.Register(TaskAddonIndex, t.handleIndex)
}

func decode(task Task, v interface{}) error {
	if err := json.Unmarshal(task.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", task.Name, err)
	}
	return nil
}

func (t *RatingTasks) handleAggregates(ctx context.Context, task Task) error {
	var p AddonPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	return t.AddonRatingAggregates(ctx, p.AddonID)
}

func (t *RatingTasks) handleDenorm(ctx context.Context, task Task) error {
	var p DenormPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	return t.ratingRepo.UpdateDenorm(t.db.WithContext(ctx), p.AddonID, p.UserID)
}

func (t *RatingTasks) handleIndex(ctx context.Context, task Task) error {
	var p AddonPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	return t.indexer.Index(ctx, p.AddonID)
}

// AddonRatingAggregates recomputes the addon's rating counts, grouped counts
// and bayesian rating from its latest non-reply ratings.
func (t *RatingTasks) AddonRatingAggregates(ctx context.Context, addonID uint) error {
	db := t.db.WithContext(ctx)
	stats, err := t.ratingRepo.ComputeAggregates(db, addonID)
	if err != nil {
		return fmt.Errorf("compute aggregates: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := t.addonRepo.UpdateRatingFields(tx, addonID, stats.AverageRating, stats.TotalRatings, stats.TextRatingsCount); err != nil {
			return err
		}
		return t.ratingRepo.SaveAggregate(tx, addonID, stats.Grouped)
	})
	if err != nil {
		return fmt.Errorf("store aggregates: %w", err)
	}

	in, err := t.addonRepo.GetBayesianInputs(db)
	if err != nil {
		return fmt.Errorf("bayesian inputs: %w", err)
	}
	bayesian := BayesianRating(in.AverageVotes, in.AverageRating, float64(stats.TotalRatings), stats.AverageRating)
	return t.addonRepo.UpdateBayesianRating(db, addonID, bayesian)
}

// BayesianRating weights an addon's average towards the site average when it
// has few votes.
func BayesianRating(avgVotes, avgRating, votes, rating float64) float64 {
	if votes == 0 || avgVotes+votes == 0 {
		return 0
	}
	return (avgVotes*avgRating + votes*rating) / (avgVotes + votes)
}

// EnqueueAggregates queues the aggregates and search reindex for an addon.
func EnqueueAggregates(ctx context.Context, q Queue, addonID uint) error {
	for _, name := range []string{TaskAddonRatingAggregates, TaskAddonIndex} {
		task, err := NewTask(name, AddonPayload{AddonID: addonID})
		if err != nil {
			return err
		}
		if err := q.Enqueue(ctx, task); err != nil {
			return fmt.Errorf("enqueue %s: %w", name, err)
		}
	}
	return nil
}
