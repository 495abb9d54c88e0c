package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dronepartpicker/scraper/internal/crawler"
	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/domain/task"
	"dronepartpicker/scraper/internal/ingest"
	"dronepartpicker/scraper/internal/queue"
	"dronepartpicker/scraper/internal/repository"
	"dronepartpicker/scraper/internal/state"
	"dronepartpicker/scraper/internal/variants"
	"dronepartpicker/scraper/internal/vendors"
)

// Service runs the queue workers. Each crawl task is one sequential job:
// fetch, classify, ingest, item by item, under its own ScrapingJob row.
type Service struct {
	catalog     repository.CatalogRepository
	jobs        repository.JobRepository
	crawler     *crawler.Crawler
	pipeline    *ingest.Pipeline
	splitter    *variants.Splitter
	queue       queue.Queue
	runState    state.RunStateManager
	registry    *vendors.Registry
	groupName   string
	minIdleTime time.Duration
}

func NewService(
	catalog repository.CatalogRepository,
	jobs repository.JobRepository,
	crawlerEngine *crawler.Crawler,
	pipeline *ingest.Pipeline,
	splitter *variants.Splitter,
	q queue.Queue,
	runState state.RunStateManager,
	registry *vendors.Registry,
	groupName string,
	minIdleTime int,
) *Service {
	return &Service{
		catalog:     catalog,
		jobs:        jobs,
		crawler:     crawlerEngine,
		pipeline:    pipeline,
		splitter:    splitter,
		queue:       q,
		runState:    runState,
		registry:    registry,
		groupName:   groupName,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
	}
}

func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	s.runWorkersForStream(ctx, &wg, numWorkers, queue.StreamPrefix+"CrawlTask", "crawl")
	s.runWorkersForStream(ctx, &wg, max(1, numWorkers/2), queue.StreamPrefix+"SplitTask", "split")

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Auto-claimer for this stream
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s-%d", workerType, time.Now().UnixNano())
				claimedMessages, err := s.queue.AutoClaim(ctx, s.groupName, consumer, streamName, s.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				for _, msg := range claimedMessages {
					if err := s.processMessage(ctx, &msg); err != nil {
						log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
					}
				}
			}
		}
	}()

	// Regular workers for this stream
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, s.groupName, consumer, streamName)
					if err != nil {
						log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return fmt.Errorf("invalid task type in message %s", msg.ID)
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return fmt.Errorf("invalid task data in message %s", msg.ID)
	}

	var streamName string
	switch taskType {
	case "CrawlTask":
		streamName = queue.StreamPrefix + "CrawlTask"
		crawlTask, err := task.UnmarshalTask[*task.CrawlTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal crawl task data: %w", err)
		}
		// Ack before the crawl runs: a bounded crawl can outlive any sane
		// auto-claim window, and leaving the message pending would hand it
		// to the auto-claimer mid-run and execute the same job twice. The
		// job row records the outcome; a worker crash leaves it RUNNING
		// rather than silently re-running it.
		if err := s.queue.AckTask(ctx, streamName, s.groupName, msg.ID); err != nil {
			return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
		}
		s.runCrawlJob(ctx, crawlTask)
		return nil

	case "SplitTask":
		streamName = queue.StreamPrefix + "SplitTask"
		splitTask, err := task.UnmarshalTask[*task.SplitTask]([]byte(taskData))
		if err != nil {
			return fmt.Errorf("failed to unmarshal split task data: %w", err)
		}
		if _, err := s.splitter.Split(ctx, splitTask.ProductID); err != nil {
			// Nothing to split is a terminal outcome, not a reason to redeliver.
			log.Warnf("⚠️ Split task for product %d: %v", splitTask.ProductID, err)
		}

	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}

	if err := s.queue.AckTask(ctx, streamName, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// runCrawlJob drives one job through its lifecycle. Item-level errors
// stay in the counters; only setup failures mark the job FAILED.
func (s *Service) runCrawlJob(ctx context.Context, crawlTask *task.CrawlTask) {
	cfg, err := s.registry.Get(crawlTask.Vendor)
	if err != nil {
		log.Errorf("❌ Job %d failed before crawl: %v", crawlTask.JobID, err)
		if markErr := s.jobs.MarkJobFailed(ctx, crawlTask.JobID, domain.JobCounters{}, err.Error()); markErr != nil {
			log.Errorf("❌ Failed to mark job %d failed: %v", crawlTask.JobID, markErr)
		}
		return
	}

	if err := s.jobs.MarkJobRunning(ctx, crawlTask.JobID); err != nil {
		log.Errorf("❌ Failed to mark job %d running: %v", crawlTask.JobID, err)
		return
	}

	if err := s.runState.MarkRunning(ctx, crawlTask.Vendor, crawlTask.JobID); err != nil {
		log.Warnf("⚠️ Failed to set running marker for %s: %v", crawlTask.Vendor, err)
	}
	defer func() {
		if err := s.runState.ClearRunning(context.Background(), crawlTask.Vendor); err != nil {
			log.Warnf("⚠️ Failed to clear running marker for %s: %v", crawlTask.Vendor, err)
		}
	}()

	log.Infof("🔄 Job %d: %s crawl of %s (category %s)", crawlTask.JobID, crawlTask.Mode, crawlTask.Vendor, crawlTask.Category)

	var counters domain.JobCounters
	var fatal error
	switch crawlTask.Mode {
	case domain.JobModePriceOnly:
		counters, fatal = s.runPriceUpdate(ctx, cfg)
	default:
		products := s.crawler.CrawlVendor(ctx, cfg, crawlTask.Category)
		counters = s.pipeline.Run(ctx, products, cfg.Currency)
	}

	if fatal != nil {
		log.Errorf("❌ Job %d failed: %v", crawlTask.JobID, fatal)
		if err := s.jobs.MarkJobFailed(ctx, crawlTask.JobID, counters, fatal.Error()); err != nil {
			log.Errorf("❌ Failed to mark job %d failed: %v", crawlTask.JobID, err)
		}
		return
	}

	if err := s.jobs.MarkJobCompleted(ctx, crawlTask.JobID, counters); err != nil {
		log.Errorf("❌ Failed to mark job %d completed: %v", crawlTask.JobID, err)
		return
	}

	if err := s.runState.SetLastRun(ctx, crawlTask.Vendor, crawlTask.Mode, time.Now().UTC()); err != nil {
		log.Warnf("⚠️ Failed to record last run for %s: %v", crawlTask.Vendor, err)
	}

	log.Infof("✅ Job %d completed: found=%d created=%d updated=%d errors=%d",
		crawlTask.JobID, counters.Found, counters.Created, counters.Updated, counters.Errors)
}

// runPriceUpdate re-fetches price and stock for already-known products,
// skipping full extraction. Descriptive fields are left untouched.
func (s *Service) runPriceUpdate(ctx context.Context, cfg vendors.Config) (domain.JobCounters, error) {
	var counters domain.JobCounters

	vendorID, err := s.catalog.UpsertVendor(ctx, cfg.Name)
	if err != nil {
		return counters, fmt.Errorf("failed to resolve vendor %s: %w", cfg.Name, err)
	}

	urls, err := s.catalog.ListProductURLs(ctx, vendorID)
	if err != nil {
		return counters, fmt.Errorf("failed to list product urls for %s: %w", cfg.Name, err)
	}

	for _, entry := range urls {
		if ctx.Err() != nil {
			return counters, ctx.Err()
		}
		counters.Found++

		scraped, err := s.crawler.ScrapeProductFromURL(ctx, entry.URL, cfg)
		if err != nil || scraped == nil || !scraped.HasPrice {
			counters.Errors++
			log.Warnf("⚠️ Price update skipped %s: %v", entry.URL, err)
			continue
		}

		price := domain.VendorPrice{
			ProductID:   entry.ProductID,
			VendorID:    vendorID,
			Price:       scraped.Price,
			Currency:    cfg.Currency,
			URL:         entry.URL,
			InStock:     scraped.InStock,
			LastUpdated: time.Now().UTC(),
		}
		if err := s.catalog.UpsertVendorPrice(ctx, price); err != nil {
			counters.Errors++
			log.Errorf("❌ Failed to upsert price for %s: %v", entry.Name, err)
			continue
		}
		if err := s.catalog.AppendPriceHistory(ctx, entry.ProductID, vendorID, scraped.Price); err != nil {
			counters.Errors++
			log.Errorf("❌ Failed to append price history for %s: %v", entry.Name, err)
			continue
		}

		counters.Updated++
	}

	return counters, nil
}
