package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/domain"
)

type AnalysisJobRepository struct {
	db dbtx
}

func NewAnalysisJobRepository(pool *pgxpool.Pool) *AnalysisJobRepository {
	return &AnalysisJobRepository{db: pool}
}

func NewAnalysisJobRepositoryWithTx(tx pgx.Tx) *AnalysisJobRepository {
	return &AnalysisJobRepository{db: tx}
}

func (r *AnalysisJobRepository) Create(ctx context.Context, job *domain.AnalysisJob) error {
	var documentID, repoKey *string
	if job.DocumentID != "" {
		documentID = &job.DocumentID
	}
	if job.RepoKey != "" {
		repoKey = &job.RepoKey
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO analysis_jobs (id, document_id, repo_key, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, documentID, repoKey, job.Status, job.Retries, job.Error, job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *AnalysisJobRepository) GetByID(ctx context.Context, id string) (*domain.AnalysisJob, error) {
	var job domain.AnalysisJob
	var errMsg, documentID, repoKey pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, document_id, repo_key, status, retries, error, created_at, processed_at
		 FROM analysis_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &documentID, &repoKey, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAnalysisJobNotFound
		}
		return nil, err
	}
	if documentID.Valid {
		job.DocumentID = documentID.String
	}
	if repoKey.Valid {
		job.RepoKey = repoKey.String
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// ClaimPending atomically claims up to limit pending jobs for processing.
// SKIP LOCKED keeps concurrent workers from claiming the same job.
func (r *AnalysisJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.AnalysisJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM analysis_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE analysis_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE analysis_jobs.id = cte.id
		 RETURNING analysis_jobs.id, analysis_jobs.document_id, analysis_jobs.repo_key, analysis_jobs.status,
		           analysis_jobs.retries, analysis_jobs.error, analysis_jobs.created_at, analysis_jobs.processed_at`,
		domain.AnalysisJobStatusPending, limit, domain.AnalysisJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.AnalysisJob
	for rows.Next() {
		var job domain.AnalysisJob
		var errMsg, documentID, repoKey pgtype.Text
		if err := rows.Scan(&job.ID, &documentID, &repoKey, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if documentID.Valid {
			job.DocumentID = documentID.String
		}
		if repoKey.Valid {
			job.RepoKey = repoKey.String
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

func (r *AnalysisJobRepository) UpdateStatus(ctx context.Context, id string, status domain.AnalysisJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.AnalysisJobStatusCompleted || status == domain.AnalysisJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE analysis_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, errPtr, processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAnalysisJobNotFound
	}
	return nil
}

func (r *AnalysisJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE analysis_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAnalysisJobNotFound
	}
	return nil
}
