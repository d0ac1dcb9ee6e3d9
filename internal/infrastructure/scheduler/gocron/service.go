package scheduler

import (
	"fmt"
	"time"

	"github.com/arkade-os/l2wallet/internal/core/ports"
	"github.com/go-co-op/gocron"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

func (s *service) ScheduleEvery(interval time.Duration, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval: %s", interval)
	}
	if task == nil {
		return fmt.Errorf("missing task")
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(task)
	return err
}
