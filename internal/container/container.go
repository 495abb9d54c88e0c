package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dronepartpicker/scraper/internal/client"
	"dronepartpicker/scraper/internal/config"
	"dronepartpicker/scraper/internal/crawler"
	"dronepartpicker/scraper/internal/ingest"
	"dronepartpicker/scraper/internal/limiter"
	"dronepartpicker/scraper/internal/proxy"
	"dronepartpicker/scraper/internal/queue"
	"dronepartpicker/scraper/internal/repository"
	"dronepartpicker/scraper/internal/scheduler"
	"dronepartpicker/scraper/internal/service"
	"dronepartpicker/scraper/internal/state"
	"dronepartpicker/scraper/internal/variants"
	"dronepartpicker/scraper/internal/vendors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Registry  *vendors.Registry
	Catalog   repository.CatalogRepository
	Jobs      repository.JobRepository
	Queue     queue.Queue
	RunState  state.RunStateManager
	Scheduler *scheduler.Scheduler
	Splitter  *variants.Splitter
	Service   *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config:   cfg,
		Registry: vendors.NewRegistry(cfg.Vendors),
	}

	db, err := pgxpool.New(context.Background(),
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
		))
	if err != nil {
		return nil, err
	}
	container.db = db

	container.Catalog = repository.NewCatalogRepository(db)
	container.Jobs = repository.NewJobRepository(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")
	container.redis = rdb

	redisQueue, err := queue.NewRedisQueue(rdb, cfg.Redis)
	if err != nil {
		return nil, err
	}
	container.Queue = redisQueue
	container.RunState = state.NewRedisRunStateManager(rdb)

	proxySupplier := proxy.NewSupplier(cfg.Scraper.Proxies)
	fetcher := client.NewFetcher(cfg.Scraper, limiter.NewPacer(), proxySupplier)
	crawlerEngine := crawler.New(fetcher)

	pipeline := ingest.NewPipeline(container.Catalog)
	container.Splitter = variants.NewSplitter(container.Catalog)

	container.Scheduler = scheduler.New(cfg.Scheduler, container.Registry, redisQueue, container.Jobs)

	container.Service = service.NewService(
		container.Catalog,
		container.Jobs,
		crawlerEngine,
		pipeline,
		container.Splitter,
		redisQueue,
		container.RunState,
		container.Registry,
		cfg.Redis.ConsumerGroup,
		cfg.Redis.MinIdleTime,
	)

	return container, nil
}

// Run starts the scheduler and the queue workers and blocks until the
// context is cancelled or a worker exits with an error.
func (c *Container) Run(ctx context.Context) error {
	if c.Config.Scheduler.StartOnBoot {
		c.Scheduler.Start()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Service.RunWorkers(ctx, c.Config.Scraper.MaxWorkers)
	})

	err := g.Wait()
	c.Scheduler.Stop()
	return err
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	c.db.Close()
	if err := c.redis.Close(); err != nil {
		return err
	}

	log.Info("Container shut down successfully")
	return nil
}
