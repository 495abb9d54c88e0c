package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dronepartpicker/scraper/internal/domain"
)

type JobRepository interface {
	CreateJob(ctx context.Context, vendor, category string, mode domain.JobMode) (*domain.ScrapingJob, error)
	MarkJobRunning(ctx context.Context, id int64) error
	MarkJobCompleted(ctx context.Context, id int64, counters domain.JobCounters) error
	MarkJobFailed(ctx context.Context, id int64, counters domain.JobCounters, errorMessage string) error
	GetJob(ctx context.Context, id int64) (*domain.ScrapingJob, error)
}

type jobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) CreateJob(ctx context.Context, vendor, category string, mode domain.JobMode) (*domain.ScrapingJob, error) {
	query := `
	INSERT INTO scraping_jobs (vendor, category, mode, status, created_at)
	VALUES ($1, $2, $3, $4, now())
	RETURNING id, created_at`

	job := &domain.ScrapingJob{
		Vendor:   vendor,
		Category: category,
		Mode:     mode,
		Status:   domain.JobPending,
	}
	err := r.db.QueryRow(ctx, query, vendor, category, string(mode), domain.JobPending.String()).
		Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create scraping job: %w", err)
	}
	return job, nil
}

func (r *jobRepository) MarkJobRunning(ctx context.Context, id int64) error {
	query := `
	UPDATE scraping_jobs
	SET status = $2, started_at = now()
	WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, domain.JobRunning.String()); err != nil {
		return fmt.Errorf("failed to mark job %d running: %w", id, err)
	}
	return nil
}

func (r *jobRepository) MarkJobCompleted(ctx context.Context, id int64, counters domain.JobCounters) error {
	query := `
	UPDATE scraping_jobs
	SET status = $2, completed_at = now(),
	    products_found = $3, products_created = $4, products_updated = $5, error_count = $6
	WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, domain.JobCompleted.String(),
		counters.Found, counters.Created, counters.Updated, counters.Errors)
	if err != nil {
		return fmt.Errorf("failed to mark job %d completed: %w", id, err)
	}
	return nil
}

func (r *jobRepository) MarkJobFailed(ctx context.Context, id int64, counters domain.JobCounters, errorMessage string) error {
	query := `
	UPDATE scraping_jobs
	SET status = $2, completed_at = now(), error_message = $3,
	    products_found = $4, products_created = $5, products_updated = $6, error_count = $7
	WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, domain.JobFailed.String(), errorMessage,
		counters.Found, counters.Created, counters.Updated, counters.Errors)
	if err != nil {
		return fmt.Errorf("failed to mark job %d failed: %w", id, err)
	}
	return nil
}

func (r *jobRepository) GetJob(ctx context.Context, id int64) (*domain.ScrapingJob, error) {
	query := `
	SELECT id, vendor, category, mode, status, started_at, completed_at,
	       products_found, products_created, products_updated, error_count,
	       COALESCE(error_message, ''), created_at
	FROM scraping_jobs
	WHERE id = $1`

	var job domain.ScrapingJob
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Vendor, &job.Category, &job.Mode, &job.Status,
		&job.StartedAt, &job.CompletedAt,
		&job.ProductsFound, &job.ProductsCreated, &job.ProductsUpdated,
		&job.ErrorCount, &job.ErrorMessage, &job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %d: %w", id, err)
	}
	return &job, nil
}
