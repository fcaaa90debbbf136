package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/healthpath/healthpath-go/pkg/logging"
)

// reloadTimeout bounds a single scheduled reload
const reloadTimeout = 10 * time.Minute

// Scheduler reloads the reference population on a cron schedule
type Scheduler struct {
	service  *Service
	cron     *cron.Cron
	schedule string
	entryID  cron.EntryID
	log      *logging.FieldLogger
}

// NewScheduler validates the cron expression and registers the reload job
func NewScheduler(service *Service, schedule string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	s := &Scheduler{
		service:  service,
		cron:     cron.New(),
		schedule: schedule,
		log:      service.opts.Logger.WithFields(logging.Component("scheduler")),
	}

	entryID, err := s.cron.AddFunc(schedule, s.run)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reload: %w", err)
	}
	s.entryID = entryID

	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Reload scheduler started",
		logging.String("schedule", s.schedule),
		logging.String("next_run", s.NextRun().Format(time.RFC3339)))
}

// Stop stops the scheduler and waits for a running reload to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Reload scheduler stopped")
}

// NextRun returns the next scheduled reload time
func (s *Scheduler) NextRun() time.Time {
	if entry := s.cron.Entry(s.entryID); entry.Valid() && !entry.Next.IsZero() {
		return entry.Next
	}
	schedule, _ := cron.ParseStandard(s.schedule)
	return schedule.Next(time.Now())
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if _, err := s.service.Reload(ctx); err != nil {
		s.log.Error("Scheduled reload failed, keeping previous reference", err)
	}
}
