package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a single recurring maintenance job (webhook re-assertion)
// on a cron spec.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	jobFunc func(ctx context.Context) error
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) SetJob(f func(ctx context.Context) error) {
	s.jobFunc = f
}

func (s *Scheduler) Start(spec string) error {
	if s.jobFunc == nil {
		log.Printf("scheduler: no job set, nothing to schedule")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.jobFunc(s.ctx); err != nil {
			log.Printf("scheduler: job failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.cron.Start()
	log.Printf("scheduler: started (spec %q)", spec)
	return nil
}

// Stop cancels the job context and waits briefly for a running job.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("scheduler: timed out waiting for running job, continuing shutdown")
	}
}
