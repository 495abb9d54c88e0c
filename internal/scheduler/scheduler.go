package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"dronepartpicker/scraper/internal/config"
	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/domain/task"
	"dronepartpicker/scraper/internal/queue"
	"dronepartpicker/scraper/internal/repository"
	"dronepartpicker/scraper/internal/vendors"
)

// Status is the externally queryable scheduler state.
type Status struct {
	Running      bool      `json:"running"`
	NextFullRun  time.Time `json:"next_full_run"`
	NextPriceRun time.Time `json:"next_price_run"`
}

// Scheduler owns the recurring crawl triggers. It creates PENDING job
// rows and enqueues crawl tasks; workers own everything after that.
// Stop only prevents future firings, it never aborts an in-flight crawl.
type Scheduler struct {
	fullInterval  time.Duration
	priceInterval time.Duration
	registry      *vendors.Registry
	queue         queue.Queue
	jobs          repository.JobRepository

	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	wg           sync.WaitGroup
	nextFullRun  time.Time
	nextPriceRun time.Time
}

func New(cfg config.SchedulerConfig, registry *vendors.Registry, q queue.Queue, jobs repository.JobRepository) *Scheduler {
	return &Scheduler{
		fullInterval:  time.Duration(cfg.FullScrapeInterval) * time.Minute,
		priceInterval: time.Duration(cfg.PriceUpdateInterval) * time.Minute,
		registry:      registry,
		queue:         q,
		jobs:          jobs,
	}
}

// Start launches both recurring triggers. Idempotent while running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.nextFullRun = time.Now().Add(s.fullInterval)
	s.nextPriceRun = time.Now().Add(s.priceInterval)

	s.wg.Add(2)
	go s.runTimer(s.stopCh, s.fullInterval, domain.JobModeFull, &s.nextFullRun)
	go s.runTimer(s.stopCh, s.priceInterval, domain.JobModePriceOnly, &s.nextPriceRun)

	log.Infof("🕒 Scheduler started: full every %v, price update every %v", s.fullInterval, s.priceInterval)
}

// Stop cancels future timer firings and waits for the timer goroutines.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	log.Info("🛑 Scheduler stopped")
}

func (s *Scheduler) runTimer(stopCh <-chan struct{}, interval time.Duration, mode domain.JobMode, next *time.Time) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			*next = time.Now().Add(interval)
			s.mu.Unlock()

			if _, err := s.trigger(context.Background(), domain.JobScopeAll, domain.JobScopeAll, mode); err != nil {
				log.Errorf("❌ Scheduled %s trigger failed: %v", mode, err)
			}
		}
	}
}

// TriggerFull enqueues a full scrape across all vendors and categories.
// Manual triggers do not alter the recurring schedule.
func (s *Scheduler) TriggerFull(ctx context.Context) ([]*domain.ScrapingJob, error) {
	return s.trigger(ctx, domain.JobScopeAll, domain.JobScopeAll, domain.JobModeFull)
}

// TriggerPriceUpdate enqueues a price-only refresh across all vendors.
func (s *Scheduler) TriggerPriceUpdate(ctx context.Context) ([]*domain.ScrapingJob, error) {
	return s.trigger(ctx, domain.JobScopeAll, domain.JobScopeAll, domain.JobModePriceOnly)
}

// TriggerVendor enqueues a scoped run for one vendor, optionally
// restricted to one taxonomy category.
func (s *Scheduler) TriggerVendor(ctx context.Context, vendor, category string, mode domain.JobMode) ([]*domain.ScrapingJob, error) {
	if _, err := s.registry.Get(vendor); err != nil {
		return nil, err
	}
	if category == "" {
		category = domain.JobScopeAll
	}
	return s.trigger(ctx, vendor, category, mode)
}

// trigger creates one PENDING job row per targeted vendor and enqueues a
// matching crawl task. Overlap with an in-flight run for the same vendor
// is allowed; catalog writes are idempotent upserts.
func (s *Scheduler) trigger(ctx context.Context, vendor, category string, mode domain.JobMode) ([]*domain.ScrapingJob, error) {
	var targets []string
	if vendor == domain.JobScopeAll {
		targets = s.registry.Names()
	} else {
		targets = []string{vendor}
	}

	jobs := make([]*domain.ScrapingJob, 0, len(targets))
	for _, target := range targets {
		job, err := s.jobs.CreateJob(ctx, target, category, mode)
		if err != nil {
			return jobs, fmt.Errorf("failed to create job for %s: %w", target, err)
		}

		_, err = s.queue.AddTask(ctx, &task.CrawlTask{
			JobID:    job.ID,
			Vendor:   target,
			Category: category,
			Mode:     mode,
		})
		if err != nil {
			return jobs, fmt.Errorf("failed to enqueue crawl task for %s: %w", target, err)
		}

		jobs = append(jobs, job)
		log.Infof("📋 Enqueued %s job %d for vendor %s (category %s)", mode, job.ID, target, category)
	}

	return jobs, nil
}

// GetStatus reports whether the recurring triggers are active and when
// each fires next.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{Running: s.running}
	if s.running {
		status.NextFullRun = s.nextFullRun
		status.NextPriceRun = s.nextPriceRun
	}
	return status
}
