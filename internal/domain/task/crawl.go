package task

import "dronepartpicker/scraper/internal/domain"

// CrawlTask asks a worker to run one crawl job. Vendor and Category may
// be domain.JobScopeAll; Mode selects full extraction or price-only refresh.
type CrawlTask struct {
	JobID    int64          `json:"job_id"`
	Vendor   string         `json:"vendor"`
	Category string         `json:"category"`
	Mode     domain.JobMode `json:"mode"`
}

func (t *CrawlTask) TaskType() string {
	return "CrawlTask"
}

func (t *CrawlTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
