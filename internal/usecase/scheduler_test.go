package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"JobRadar/internal/domain"
	"JobRadar/internal/source"
)

// captureDriver records the job the scheduler registers so a test can fire
// the cron callback directly.
type captureDriver struct {
	job func(time.Time)
}

func (c *captureDriver) Start(ctx context.Context, job func(time.Time)) error {
	c.job = job
	return nil
}

func (c *captureDriver) Stop(ctx context.Context) error { return nil }

// brokenRepo fails the run at the existing-keys step.
type brokenRepo struct{}

func (brokenRepo) ExistingKeys(ctx context.Context) (map[domain.NaturalKey]struct{}, error) {
	return nil, errors.New("store offline")
}

func (brokenRepo) Persist(ctx context.Context, batch []domain.JobRecord) (domain.PersistReport, error) {
	return domain.PersistReport{}, nil
}

func TestSchedulerLogsFailedRuns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := NewPipeline(PipelineDeps{
		Sources:    source.NewRegistry(),
		Repository: brokenRepo{},
		Logger:     logger,
	})
	driver := &captureDriver{}
	s := NewScheduler(driver, p)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if driver.job == nil {
		t.Fatal("job was not registered with the driver")
	}

	driver.job(time.Now())

	if !strings.Contains(buf.String(), "scheduled run failed") {
		t.Fatalf("run failure must be logged, got: %s", buf.String())
	}
}

func TestSchedulerStopWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start without driver must be a no-op, got %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop without driver must be a no-op, got %v", err)
	}
}
