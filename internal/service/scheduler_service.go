package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"goal-tracker/internal/logger"
)

const jobTimeout = 30 * time.Second

// SchedulerService runs the daily report job in the configured time zone.
type SchedulerService struct {
	cron *cron.Cron
	log  *logger.Logger
}

func NewSchedulerService(loc *time.Location, log *logger.Logger) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.PrintfLogger(log.StdLog()))),
		),
		log: log,
	}
}

// ScheduleDaily registers job at the given HH:MM local time. Each run gets its
// own timeout; failures are logged, not retried.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job func(ctx context.Context) error) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Info("scheduled job", zap.String("job", name), zap.String("at", timeStr))
	return id, nil
}

// Entries returns the number of registered jobs.
func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
