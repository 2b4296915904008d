package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job on its own ticker until the context is cancelled.
type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			log.Warn().Str("job", job.Name).Msg("job disabled, interval not set")
			continue
		}

		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			ticker := time.NewTicker(job.Interval)
			defer ticker.Stop()

			log.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("⏱️ job scheduled")
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := job.Run(ctx); err != nil {
						log.Error().Err(err).Str("job", job.Name).Msg("❌ job failed")
					}
				}
			}
		}(job)
	}
}

// Wait blocks until every job goroutine has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
