package domain

import "time"

type JobStatus string

func (s JobStatus) String() string {
	return string(s)
}

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// JobScopeAll marks a job not restricted to a single vendor or category.
const JobScopeAll = "all"

type JobMode string

const (
	JobModeFull      JobMode = "full"
	JobModePriceOnly JobMode = "price_only"
)

// ScrapingJob tracks one crawl invocation. Created PENDING, moved to
// RUNNING when the crawl starts, then to exactly one terminal state.
type ScrapingJob struct {
	ID              int64      `json:"id"`
	Vendor          string     `json:"vendor"`
	Category        string     `json:"category"`
	Mode            JobMode    `json:"mode"`
	Status          JobStatus  `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ProductsFound   int        `json:"products_found"`
	ProductsCreated int        `json:"products_created"`
	ProductsUpdated int        `json:"products_updated"`
	ErrorCount      int        `json:"error_count"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// JobCounters aggregates per-item outcomes for one run.
type JobCounters struct {
	Found   int `json:"found"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}
