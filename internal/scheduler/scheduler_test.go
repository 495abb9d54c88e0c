package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"dronepartpicker/scraper/internal/config"
	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/domain/task"
	"dronepartpicker/scraper/internal/vendors"
)

// fakeQueue records every published task without touching redis.
type fakeQueue struct {
	tasks []task.Task
}

func (q *fakeQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	q.tasks = append(q.tasks, t)
	return "0-1", nil
}

func (q *fakeQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	return nil, nil
}

func (q *fakeQueue) AckTask(ctx context.Context, stream, group, msgID string) error { return nil }

func (q *fakeQueue) CreateGroup(ctx context.Context, stream, group string) error { return nil }

func (q *fakeQueue) AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	return nil, nil
}

func (q *fakeQueue) EnsureStreamsExist(ctx context.Context) error { return nil }

// fakeJobs is an in-memory JobRepository.
type fakeJobs struct {
	nextID int64
	jobs   map[int64]*domain.ScrapingJob
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{nextID: 1, jobs: make(map[int64]*domain.ScrapingJob)}
}

func (f *fakeJobs) CreateJob(ctx context.Context, vendor, category string, mode domain.JobMode) (*domain.ScrapingJob, error) {
	job := &domain.ScrapingJob{
		ID:        f.nextID,
		Vendor:    vendor,
		Category:  category,
		Mode:      mode,
		Status:    domain.JobPending,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobs) MarkJobRunning(ctx context.Context, id int64) error {
	f.jobs[id].Status = domain.JobRunning
	return nil
}

func (f *fakeJobs) MarkJobCompleted(ctx context.Context, id int64, counters domain.JobCounters) error {
	f.jobs[id].Status = domain.JobCompleted
	return nil
}

func (f *fakeJobs) MarkJobFailed(ctx context.Context, id int64, counters domain.JobCounters, errorMessage string) error {
	f.jobs[id].Status = domain.JobFailed
	f.jobs[id].ErrorMessage = errorMessage
	return nil
}

func (f *fakeJobs) GetJob(ctx context.Context, id int64) (*domain.ScrapingJob, error) {
	return f.jobs[id], nil
}

func newTestScheduler(q *fakeQueue, jobs *fakeJobs) *Scheduler {
	cfg := config.SchedulerConfig{FullScrapeInterval: 60, PriceUpdateInterval: 15}
	return New(cfg, vendors.NewRegistry(nil), q, jobs)
}

func decodeCrawlTask(t *testing.T, raw task.Task) task.CrawlTask {
	t.Helper()
	data, err := raw.TaskValue()
	if err != nil {
		t.Fatalf("serialize task: %v", err)
	}
	var ct task.CrawlTask
	if err := json.Unmarshal(data, &ct); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return ct
}

func TestTriggerFull_OneJobAndTaskPerVendor(t *testing.T) {
	q := &fakeQueue{}
	repo := newFakeJobs()
	s := newTestScheduler(q, repo)

	jobs, err := s.TriggerFull(context.Background())
	if err != nil {
		t.Fatalf("TriggerFull failed: %v", err)
	}

	vendorCount := len(vendors.NewRegistry(nil).Names())
	if len(jobs) != vendorCount || len(q.tasks) != vendorCount {
		t.Fatalf("expected %d jobs and tasks, got %d jobs, %d tasks", vendorCount, len(jobs), len(q.tasks))
	}

	for i, job := range jobs {
		if job.Status != domain.JobPending {
			t.Fatalf("job %d created as %s, want pending", job.ID, job.Status)
		}
		if job.Mode != domain.JobModeFull || job.Category != domain.JobScopeAll {
			t.Fatalf("unexpected job scope: %+v", job)
		}
		ct := decodeCrawlTask(t, q.tasks[i])
		if ct.JobID != job.ID || ct.Vendor != job.Vendor || ct.Mode != domain.JobModeFull {
			t.Fatalf("task does not match job: task %+v job %+v", ct, job)
		}
	}
}

func TestTriggerPriceUpdate_UsesPriceOnlyMode(t *testing.T) {
	q := &fakeQueue{}
	s := newTestScheduler(q, newFakeJobs())

	jobs, err := s.TriggerPriceUpdate(context.Background())
	if err != nil {
		t.Fatalf("TriggerPriceUpdate failed: %v", err)
	}
	for _, job := range jobs {
		if job.Mode != domain.JobModePriceOnly {
			t.Fatalf("job %d mode = %s, want price_only", job.ID, job.Mode)
		}
	}
}

func TestTriggerVendor_ScopedToOneVendorAndCategory(t *testing.T) {
	q := &fakeQueue{}
	s := newTestScheduler(q, newFakeJobs())

	jobs, err := s.TriggerVendor(context.Background(), "getfpv", "motor", domain.JobModeFull)
	if err != nil {
		t.Fatalf("TriggerVendor failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Vendor != "getfpv" || jobs[0].Category != "motor" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}

	ct := decodeCrawlTask(t, q.tasks[0])
	if ct.Category != "motor" {
		t.Fatalf("task category = %q, want motor", ct.Category)
	}
}

func TestTriggerVendor_UnknownVendorRejected(t *testing.T) {
	q := &fakeQueue{}
	s := newTestScheduler(q, newFakeJobs())

	if _, err := s.TriggerVendor(context.Background(), "nope", "", domain.JobModeFull); err == nil {
		t.Fatalf("expected an error for an unknown vendor")
	}
	if len(q.tasks) != 0 {
		t.Fatalf("rejected trigger must not enqueue tasks")
	}
}

func TestTriggerVendor_EmptyCategoryMeansAll(t *testing.T) {
	q := &fakeQueue{}
	s := newTestScheduler(q, newFakeJobs())

	jobs, err := s.TriggerVendor(context.Background(), "getfpv", "", domain.JobModeFull)
	if err != nil {
		t.Fatalf("TriggerVendor failed: %v", err)
	}
	if jobs[0].Category != domain.JobScopeAll {
		t.Fatalf("empty category should widen to %q, got %q", domain.JobScopeAll, jobs[0].Category)
	}
}

func TestStartStop_StatusLifecycle(t *testing.T) {
	s := newTestScheduler(&fakeQueue{}, newFakeJobs())

	if s.GetStatus().Running {
		t.Fatalf("scheduler should not report running before Start")
	}

	s.Start()
	status := s.GetStatus()
	if !status.Running {
		t.Fatalf("scheduler should report running after Start")
	}
	if status.NextFullRun.IsZero() || status.NextPriceRun.IsZero() {
		t.Fatalf("running scheduler must expose next fire times: %+v", status)
	}

	s.Start() // idempotent

	s.Stop()
	if s.GetStatus().Running {
		t.Fatalf("scheduler should not report running after Stop")
	}

	s.Stop() // idempotent
	s.Start()
	s.Stop()
}
