package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/telemetry"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3

	// claimBatchSize bounds how many jobs one poll cycle claims
	claimBatchSize = 10
)

// AnalysisJobRepository defines the interface for analysis job persistence
type AnalysisJobRepository interface {
	// ClaimPending claims up to limit pending jobs for this worker
	ClaimPending(ctx context.Context, limit int) ([]*domain.AnalysisJob, error)

	// UpdateStatus updates the status of an analysis job
	UpdateStatus(ctx context.Context, id string, status domain.AnalysisJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// Analyzer runs the actual analysis for a claimed job.
type Analyzer interface {
	AnalyzeDocumentByID(ctx context.Context, documentID string) error
	AnalyzeRepositoryByKey(ctx context.Context, repoKey string) error
}

// AnalysisWorker processes queued document and repository analyses
type AnalysisWorker struct {
	repo     AnalysisJobRepository
	analyzer Analyzer
}

// NewAnalysisWorker creates a new AnalysisWorker instance
func NewAnalysisWorker(repo AnalysisJobRepository, analyzer Analyzer) *AnalysisWorker {
	return &AnalysisWorker{
		repo:     repo,
		analyzer: analyzer,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *AnalysisWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending analysis jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *AnalysisWorker) processJob(ctx context.Context, job *domain.AnalysisJob) error {
	var err error
	switch {
	case job.DocumentID != "":
		log.Printf("Processing job %s for document %s", job.ID, job.DocumentID)
		err = w.analyzer.AnalyzeDocumentByID(ctx, job.DocumentID)
	case job.RepoKey != "":
		log.Printf("Processing job %s for repository %s", job.ID, job.RepoKey)
		err = w.analyzer.AnalyzeRepositoryByKey(ctx, job.RepoKey)
	default:
		return fmt.Errorf("job %s has neither document_id nor repo_key", job.ID)
	}

	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.AnalysisJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *AnalysisWorker) handleJobFailure(ctx context.Context, job *domain.AnalysisJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		telemetry.CaptureError(ctx, jobErr)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.AnalysisJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.AnalysisJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
