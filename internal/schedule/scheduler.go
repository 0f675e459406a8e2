package schedule

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on cron schedules. A job that is
// still running when its next tick arrives is skipped.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

func (s *Scheduler) Add(spec string, job Job) error {
	var running atomic.Bool
	_, err := s.cron.AddFunc(spec, func() {
		if !running.CompareAndSwap(false, true) {
			return
		}
		defer running.Store(false)
		ctx := context.Background()
		if err := job.Run(ctx); err != nil {
			logutil.GetLogger(ctx).Error("scheduled job failed",
				zap.String("job", job.Name()), zap.Error(err))
		}
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
