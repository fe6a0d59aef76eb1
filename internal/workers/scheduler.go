package workers

import (
	"context"
	"fmt"

	"addons_backend/internal/logger"
	"addons_backend/internal/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler periodically re-queues aggregate recomputation for every rated addon,
// repairing counts if an enqueue was lost.
type Scheduler struct {
	cron       *cron.Cron
	db         *gorm.DB
	queue      Queue
	ratingRepo repositories.RatingRepository
}

func NewScheduler(db *gorm.DB, queue Queue, ratingRepo repositories.RatingRepository) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		db:         db,
		queue:      queue,
		ratingRepo: ratingRepo,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context, aggregatesSpec string) error {
	_, err := s.cron.AddFunc(aggregatesSpec, func() {
		n, err := s.RefreshAllAggregates(ctx)
		logger.WorkerLog("scheduler", "refresh_aggregates", err, "addons", n)
	})
	if err != nil {
		return fmt.Errorf("schedule aggregates %q: %w", aggregatesSpec, err)
	}
	s.cron.Start()
	logger.Info("Scheduler started", "aggregates_spec", aggregatesSpec)
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}

// RefreshAllAggregates enqueues the aggregates task for each addon with ratings.
func (s *Scheduler) RefreshAllAggregates(ctx context.Context) (int, error) {
	ids, err := s.ratingRepo.AddonIDsWithRatings(s.db.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		task, err := NewTask(TaskAddonRatingAggregates, AddonPayload{AddonID: id})
		if err != nil {
			return 0, err
		}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
