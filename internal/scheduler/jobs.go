package scheduler

import (
	"context"
	"time"

	"github.com/antlu/giveaway-assistant/internal/giveaway"
	"github.com/antlu/giveaway-assistant/internal/logger"
)

type DueScanJob struct {
	engine   *giveaway.Engine
	clock    giveaway.Clock
	interval time.Duration
}

func NewDueScanJob(engine *giveaway.Engine, clock giveaway.Clock, interval time.Duration) *DueScanJob {
	return &DueScanJob{engine: engine, clock: clock, interval: interval}
}

func (*DueScanJob) Name() string              { return "due-scan" }
func (j *DueScanJob) Interval() time.Duration { return j.interval }

func (j *DueScanJob) Do(ctx context.Context) {
	j.engine.DueScan(ctx, j.clock.Now())
}

type RetentionSweepJob struct {
	engine    *giveaway.Engine
	clock     giveaway.Clock
	log       logger.Logger
	interval  time.Duration
	retention int64
}

func NewRetentionSweepJob(
	engine *giveaway.Engine,
	clock giveaway.Clock,
	log logger.Logger,
	interval time.Duration,
	retention int64,
) *RetentionSweepJob {
	return &RetentionSweepJob{
		engine:    engine,
		clock:     clock,
		log:       log,
		interval:  interval,
		retention: retention,
	}
}

func (*RetentionSweepJob) Name() string              { return "retention-sweep" }
func (j *RetentionSweepJob) Interval() time.Duration { return j.interval }

func (j *RetentionSweepJob) Do(ctx context.Context) {
	if _, err := j.engine.RetentionSweep(ctx, j.clock.Now(), j.retention); err != nil {
		j.log.Errorf("Cannot sweep old giveaways: %v", err)
	}
}
