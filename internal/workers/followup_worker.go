package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/niagahub/niagabot/internal/cache"
	"github.com/niagahub/niagabot/internal/models"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
)

// Dispatcher delivers one due follow-up over its channel adapter.
type Dispatcher interface {
	Dispatch(ctx context.Context, f *models.FollowUp) error
}

// LogDispatcher records dispatches without an outbound channel wired.
type LogDispatcher struct {
	Logger *logrus.Logger
}

func (d *LogDispatcher) Dispatch(_ context.Context, f *models.FollowUp) error {
	d.Logger.WithFields(logrus.Fields{
		"followup_id": f.ID,
		"tenant_id":   f.TenantID,
		"user_id":     f.UserID,
		"channel":     f.Channel,
	}).Info("dispatching follow-up")
	return nil
}

// FollowUpWorker polls for due follow-ups and dispatches a bounded batch
// per tick. The repository claim marks rows dispatching inside a transaction
// so sibling workers never pick the same rows; the Redis lease on top keeps
// a stale-reclaimed item from being delivered twice while the original
// dispatch is still in flight. One item's failure lands on that row only.
type FollowUpWorker struct {
	Followups  pgrepo.FollowUpRepository
	Locker     cache.Cache
	Dispatcher Dispatcher
	Logger     *logrus.Logger

	PollInterval time.Duration
	BatchSize    int
	LeaseTTL     time.Duration
}

func (w *FollowUpWorker) Start(ctx context.Context) error {
	if w.Followups == nil || w.Locker == nil || w.Dispatcher == nil {
		return errors.New("FollowUpWorker missing dependency: Followups/Locker/Dispatcher must be set")
	}
	if w.PollInterval <= 0 {
		w.PollInterval = 15 * time.Second
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 20
	}
	if w.LeaseTTL <= 0 {
		w.LeaseTTL = 2 * w.PollInterval
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}

	go w.run(ctx)
	return nil
}

func (w *FollowUpWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick processes one poll cycle. Exported so the cycle is testable without
// running the loop.
func (w *FollowUpWorker) Tick(ctx context.Context) {
	now := time.Now().UTC()

	ttl := w.LeaseTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	due, err := w.Followups.ClaimDue(ctx, now, now.Add(-ttl), w.BatchSize)
	if err != nil {
		w.Logger.WithError(err).Error("follow-up claim failed")
		return
	}

	for i := range due {
		item := &due[i]
		log := w.Logger.WithFields(logrus.Fields{
			"followup_id": item.ID,
			"tenant_id":   item.TenantID,
		})

		acquired, err := w.Locker.SetNX(ctx, "followup:lease:"+item.ID, "1", ttl)
		if err != nil {
			log.WithError(err).Warn("lease acquire failed; skipping item")
			continue
		}
		if !acquired {
			continue // already claimed
		}

		if err := w.Dispatcher.Dispatch(ctx, item); err != nil {
			log.WithError(err).Error("follow-up dispatch failed")
			if merr := w.Followups.MarkFailed(ctx, item.ID, err.Error()); merr != nil {
				log.WithError(merr).Error("failed to record dispatch failure")
			}
			continue
		}

		if err := w.Followups.MarkSent(ctx, item.ID, time.Now().UTC()); err != nil {
			log.WithError(err).Error("failed to mark follow-up sent")
			continue
		}
		_ = w.Locker.Del(ctx, "followup:lease:"+item.ID)
	}
}
