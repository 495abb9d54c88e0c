package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"dronepartpicker/scraper/internal/crawler"
	"dronepartpicker/scraper/internal/domain"
	"dronepartpicker/scraper/internal/domain/task"
	"dronepartpicker/scraper/internal/ingest"
	"dronepartpicker/scraper/internal/repository"
	"dronepartpicker/scraper/internal/variants"
	"dronepartpicker/scraper/internal/vendors"
)

// eventLog records cross-component ordering under a lock; the crawl
// goroutine and the worker goroutine both write to it.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// fakeFetcher serves canned HTML keyed by URL and logs every fetch.
type fakeFetcher struct {
	pages map[string]string
	log   *eventLog
}

func (f *fakeFetcher) Fetch(ctx context.Context, vendorKey, url string, minDelay time.Duration) (*goquery.Document, error) {
	if f.log != nil {
		f.log.add("fetch " + url)
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page at %s", url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// fakeQueue only needs AckTask behavior for these tests.
type fakeQueue struct {
	log  *eventLog
	acks []string
}

func (q *fakeQueue) AddTask(ctx context.Context, t task.Task) (string, error) { return "0-1", nil }

func (q *fakeQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	return nil, nil
}

func (q *fakeQueue) AckTask(ctx context.Context, stream, group, msgID string) error {
	if q.log != nil {
		q.log.add("ack " + msgID)
	}
	q.acks = append(q.acks, msgID)
	return nil
}

func (q *fakeQueue) CreateGroup(ctx context.Context, stream, group string) error { return nil }

func (q *fakeQueue) AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	return nil, nil
}

func (q *fakeQueue) EnsureStreamsExist(ctx context.Context) error { return nil }

// fakeJobs records every status mutation so lifecycle tests can assert
// the exact transition sequence.
type fakeJobs struct {
	nextID      int64
	jobs        map[int64]*domain.ScrapingJob
	transitions map[int64][]domain.JobStatus
	counters    map[int64]domain.JobCounters
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		nextID:      1,
		jobs:        make(map[int64]*domain.ScrapingJob),
		transitions: make(map[int64][]domain.JobStatus),
		counters:    make(map[int64]domain.JobCounters),
	}
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
	f.transitions[job.ID] = append(f.transitions[job.ID], domain.JobPending)
	return job, nil
}

func (f *fakeJobs) MarkJobRunning(ctx context.Context, id int64) error {
	f.jobs[id].Status = domain.JobRunning
	f.transitions[id] = append(f.transitions[id], domain.JobRunning)
	return nil
}

func (f *fakeJobs) MarkJobCompleted(ctx context.Context, id int64, counters domain.JobCounters) error {
	f.jobs[id].Status = domain.JobCompleted
	f.transitions[id] = append(f.transitions[id], domain.JobCompleted)
	f.counters[id] = counters
	return nil
}

func (f *fakeJobs) MarkJobFailed(ctx context.Context, id int64, counters domain.JobCounters, errorMessage string) error {
	f.jobs[id].Status = domain.JobFailed
	f.jobs[id].ErrorMessage = errorMessage
	f.transitions[id] = append(f.transitions[id], domain.JobFailed)
	f.counters[id] = counters
	return nil
}

func (f *fakeJobs) GetJob(ctx context.Context, id int64) (*domain.ScrapingJob, error) {
	return f.jobs[id], nil
}

// fakeCatalog is an in-memory CatalogRepository tracking write kinds.
type fakeCatalog struct {
	nextProductID int64
	nextVendorID  int64
	vendors       map[string]int64
	products      map[int64]*domain.Product
	prices        map[int64][]domain.VendorPrice
	urls          []repository.ProductURL
	historyCount  int
	updateCount   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		nextProductID: 1,
		nextVendorID:  1,
		vendors:       make(map[string]int64),
		products:      make(map[int64]*domain.Product),
		prices:        make(map[int64][]domain.VendorPrice),
	}
}

func (f *fakeCatalog) UpsertVendor(ctx context.Context, name string) (int64, error) {
	if id, ok := f.vendors[name]; ok {
		return id, nil
	}
	id := f.nextVendorID
	f.nextVendorID++
	f.vendors[name] = id
	return id, nil
}

func (f *fakeCatalog) FindProductByNameOrSKU(ctx context.Context, name, sku string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.Name == name || (sku != "" && p.SKU == sku) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return f.products[id], nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, draft domain.ProductDraft) (int64, error) {
	id := f.nextProductID
	f.nextProductID++
	f.products[id] = &domain.Product{
		ID:             id,
		Name:           draft.Name,
		Category:       draft.Category,
		Brand:          draft.Brand,
		SKU:            draft.SKU,
		Description:    draft.Description,
		ImageURL:       draft.ImageURL,
		Specifications: draft.Specifications,
	}
	return id, nil
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, product *domain.Product) error {
	f.updateCount++
	clone := *product
	f.products[product.ID] = &clone
	return nil
}

func (f *fakeCatalog) DeleteProduct(ctx context.Context, id int64) error {
	delete(f.products, id)
	return nil
}

func (f *fakeCatalog) UpsertVendorPrice(ctx context.Context, price domain.VendorPrice) error {
	rows := f.prices[price.ProductID]
	for i, row := range rows {
		if row.VendorID == price.VendorID {
			rows[i] = price
			return nil
		}
	}
	f.prices[price.ProductID] = append(rows, price)
	return nil
}

func (f *fakeCatalog) ListVendorPrices(ctx context.Context, productID int64) ([]domain.VendorPrice, error) {
	return f.prices[productID], nil
}

func (f *fakeCatalog) ListProductURLs(ctx context.Context, vendorID int64) ([]repository.ProductURL, error) {
	return f.urls, nil
}

func (f *fakeCatalog) AppendPriceHistory(ctx context.Context, productID, vendorID int64, price decimal.Decimal) error {
	f.historyCount++
	return nil
}

func (f *fakeCatalog) PriceStats(ctx context.Context, productID int64, window time.Duration) (*domain.PriceStats, error) {
	return &domain.PriceStats{ProductID: productID}, nil
}

// fakeRunState records markers without redis.
type fakeRunState struct {
	lastRuns map[string]time.Time
	running  map[string]bool
}

func newFakeRunState() *fakeRunState {
	return &fakeRunState{lastRuns: make(map[string]time.Time), running: make(map[string]bool)}
}

func (f *fakeRunState) SetLastRun(ctx context.Context, vendor string, mode domain.JobMode, at time.Time) error {
	f.lastRuns[vendor+":"+string(mode)] = at
	return nil
}

func (f *fakeRunState) GetLastRun(ctx context.Context, vendor string, mode domain.JobMode) (time.Time, error) {
	return f.lastRuns[vendor+":"+string(mode)], nil
}

func (f *fakeRunState) MarkRunning(ctx context.Context, vendor string, jobID int64) error {
	f.running[vendor] = true
	return nil
}

func (f *fakeRunState) ClearRunning(ctx context.Context, vendor string) error {
	delete(f.running, vendor)
	return nil
}

func (f *fakeRunState) IsRunning(ctx context.Context, vendor string) (bool, error) {
	return f.running[vendor], nil
}

func testRegistry() *vendors.Registry {
	return vendors.NewRegistry(map[string]vendors.Config{
		"shoptest": {
			Name:                  "shoptest",
			BaseURL:               "http://shop.test",
			SeedURLs:              []string{"http://shop.test/catalog"},
			LinkSelector:          "a",
			ProductPageIndicators: []string{"/p/"},
			MaxPages:              20,
			MaxDepth:              2,
			Currency:              "USD",
			Selectors: vendors.FieldSelectors{
				Name:  "h1.product-name",
				Price: "span.price",
			},
		},
	})
}

func productPage(name, price string) string {
	return fmt.Sprintf(`<html><body>
		<h1 class="product-name">%s</h1>
		<span class="price">%s</span>
	</body></html>`, name, price)
}

type serviceFixture struct {
	svc      *Service
	queue    *fakeQueue
	jobs     *fakeJobs
	catalog  *fakeCatalog
	runState *fakeRunState
}

func newFixture(fetcher *fakeFetcher, q *fakeQueue) *serviceFixture {
	catalog := newFakeCatalog()
	jobs := newFakeJobs()
	runState := newFakeRunState()
	crawlerEngine := crawler.New(fetcher)

	svc := NewService(
		catalog,
		jobs,
		crawlerEngine,
		ingest.NewPipeline(catalog),
		variants.NewSplitter(catalog),
		q,
		runState,
		testRegistry(),
		"testgroup",
		120,
	)

	return &serviceFixture{svc: svc, queue: q, jobs: jobs, catalog: catalog, runState: runState}
}

func crawlMessage(t *testing.T, ct *task.CrawlTask) redis.XMessage {
	t.Helper()
	data, err := ct.TaskValue()
	if err != nil {
		t.Fatalf("serialize task: %v", err)
	}
	return redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"task_type": "CrawlTask",
			"task_data": string(data),
		},
	}
}

func TestProcessMessage_AcksCrawlTaskBeforeCrawlStarts(t *testing.T) {
	log := &eventLog{}
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"http://shop.test/catalog": `<html><body><a href="/p/item">x</a></body></html>`,
			"http://shop.test/p/item":  productPage("EMAX ECO II 2306 Motor", "$18.99"),
		},
		log: log,
	}
	q := &fakeQueue{log: log}
	fix := newFixture(fetcher, q)

	job, _ := fix.jobs.CreateJob(context.Background(), "shoptest", domain.JobScopeAll, domain.JobModeFull)
	msg := crawlMessage(t, &task.CrawlTask{JobID: job.ID, Vendor: "shoptest", Category: domain.JobScopeAll, Mode: domain.JobModeFull})

	if err := fix.svc.processMessage(context.Background(), &msg); err != nil {
		t.Fatalf("processMessage failed: %v", err)
	}

	events := log.all()
	if len(events) == 0 || !strings.HasPrefix(events[0], "ack") {
		t.Fatalf("message must be acked before any fetch, got %v", events)
	}
	fetched := false
	for _, e := range events[1:] {
		if strings.HasPrefix(e, "fetch") {
			fetched = true
		}
	}
	if !fetched {
		t.Fatalf("crawl never ran after the ack: %v", events)
	}
	if len(fix.queue.acks) != 1 {
		t.Fatalf("expected exactly one ack, got %v", fix.queue.acks)
	}
}

func TestRunCrawlJob_LifecyclePendingRunningCompleted(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://shop.test/catalog": `<html><body><a href="/p/item">x</a></body></html>`,
		"http://shop.test/p/item":  productPage("EMAX ECO II 2306 Motor", "$18.99"),
	}}
	fix := newFixture(fetcher, &fakeQueue{})

	job, _ := fix.jobs.CreateJob(context.Background(), "shoptest", domain.JobScopeAll, domain.JobModeFull)
	fix.svc.runCrawlJob(context.Background(), &task.CrawlTask{
		JobID: job.ID, Vendor: "shoptest", Category: domain.JobScopeAll, Mode: domain.JobModeFull,
	})

	want := []domain.JobStatus{domain.JobPending, domain.JobRunning, domain.JobCompleted}
	got := fix.jobs.transitions[job.ID]
	if len(got) != len(want) {
		t.Fatalf("job mutated %d times, want exactly %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transition %d = %s, want %s", i, got[i], want[i])
		}
	}

	counters := fix.jobs.counters[job.ID]
	if counters.Found != 1 || counters.Created != 1 {
		t.Fatalf("unexpected counters: %+v", counters)
	}
	if _, ok := fix.runState.lastRuns["shoptest:full"]; !ok {
		t.Fatalf("completed run must record last-run state")
	}
	if fix.runState.running["shoptest"] {
		t.Fatalf("running marker must be cleared after the job")
	}
}

func TestRunCrawlJob_UnknownVendorMarksFailed(t *testing.T) {
	fix := newFixture(&fakeFetcher{pages: map[string]string{}}, &fakeQueue{})

	job, _ := fix.jobs.CreateJob(context.Background(), "nope", domain.JobScopeAll, domain.JobModeFull)
	fix.svc.runCrawlJob(context.Background(), &task.CrawlTask{
		JobID: job.ID, Vendor: "nope", Category: domain.JobScopeAll, Mode: domain.JobModeFull,
	})

	got := fix.jobs.transitions[job.ID]
	if len(got) != 2 || got[1] != domain.JobFailed {
		t.Fatalf("expected PENDING then FAILED, got %v", got)
	}
	if fix.jobs.jobs[job.ID].ErrorMessage == "" {
		t.Fatalf("failed job must carry an error message")
	}
}

func TestRunCrawlJob_PriceOnlyUpdatesPricesNotProducts(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"http://shop.test/p/item": productPage("EMAX ECO II 2306 Motor", "$21.99"),
	}}
	fix := newFixture(fetcher, &fakeQueue{})

	vendorID, _ := fix.catalog.UpsertVendor(context.Background(), "shoptest")
	productID, _ := fix.catalog.CreateProduct(context.Background(), domain.ProductDraft{
		Name:        "EMAX ECO II 2306 Motor",
		Category:    domain.CategoryMotor,
		Brand:       "EMAX",
		Description: "A freestyle workhorse.",
	})
	fix.catalog.prices[productID] = []domain.VendorPrice{{
		ProductID: productID,
		VendorID:  vendorID,
		Price:     decimal.NewFromFloat(18.99),
		Currency:  "USD",
		URL:       "http://shop.test/p/item",
		InStock:   true,
	}}
	fix.catalog.urls = []repository.ProductURL{{
		ProductID: productID,
		VendorID:  vendorID,
		URL:       "http://shop.test/p/item",
		Name:      "EMAX ECO II 2306 Motor",
	}}

	job, _ := fix.jobs.CreateJob(context.Background(), "shoptest", domain.JobScopeAll, domain.JobModePriceOnly)
	fix.svc.runCrawlJob(context.Background(), &task.CrawlTask{
		JobID: job.ID, Vendor: "shoptest", Category: domain.JobScopeAll, Mode: domain.JobModePriceOnly,
	})

	got := fix.jobs.transitions[job.ID]
	if got[len(got)-1] != domain.JobCompleted {
		t.Fatalf("expected COMPLETED, got %v", got)
	}

	counters := fix.jobs.counters[job.ID]
	if counters.Found != 1 || counters.Updated != 1 || counters.Errors != 0 {
		t.Fatalf("unexpected counters: %+v", counters)
	}

	price := fix.catalog.prices[productID][0]
	if price.Price.String() != "21.99" {
		t.Fatalf("price not refreshed: %s", price.Price)
	}
	if fix.catalog.historyCount != 1 {
		t.Fatalf("price refresh must append history, got %d points", fix.catalog.historyCount)
	}
	if fix.catalog.updateCount != 0 {
		t.Fatalf("price-only mode must not rewrite product rows")
	}
	if fix.catalog.products[productID].Description != "A freestyle workhorse." {
		t.Fatalf("descriptive fields must be untouched")
	}
}
