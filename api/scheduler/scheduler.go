package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PurgeSchedule runs the expired credential purge every 15 minutes
const PurgeSchedule = "*/15 * * * *"

// Purger removes expired verification codes and password reset tokens
type Purger interface {
	PurgeExpired(ctx context.Context) (codes int64, resets int64, err error)
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	Purger     Purger
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(p Purger) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Purger:     p,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(PurgeSchedule, s.purgeExpired); err != nil {
		zap.S().Errorw("failed to register purge job", "error", err)
		return err
	}

	s.cron.Start()
	zap.S().Infow("scheduler started", "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// purgeExpired deletes codes and tokens past their expiry. Running it on
// several instances at once is harmless.
func (s *Scheduler) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	codes, resets, err := s.Purger.PurgeExpired(ctx)
	if err != nil {
		zap.S().Errorw("failed to purge expired credentials", "instance", s.instanceID, "error", err)
		return
	}
	zap.S().Infow("purged expired credentials",
		"instance", s.instanceID,
		"codes", codes,
		"resets", resets,
	)
}
