package domain

import (
	"fmt"
	"time"
)

// AnalysisJobStatus represents the status of an analysis job
type AnalysisJobStatus string

const (
	AnalysisJobStatusPending    AnalysisJobStatus = "pending"
	AnalysisJobStatusProcessing AnalysisJobStatus = "processing"
	AnalysisJobStatusCompleted  AnalysisJobStatus = "completed"
	AnalysisJobStatusFailed     AnalysisJobStatus = "failed"
)

// AnalysisJob represents an async document or repository analysis job.
// Exactly one of DocumentID or RepoKey is set.
type AnalysisJob struct {
	ID          string
	DocumentID  string // Set for document analyses
	RepoKey     string // Set for repository re-analyses
	Status      AnalysisJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ValidateAnalysisJob validates an AnalysisJob instance
func ValidateAnalysisJob(j *AnalysisJob) error {
	if j == nil {
		return fmt.Errorf("analysis job cannot be nil")
	}
	if j.ID == "" {
		return fmt.Errorf("analysis job ID is required")
	}
	if j.DocumentID == "" && j.RepoKey == "" {
		return fmt.Errorf("analysis job must have either DocumentID or RepoKey")
	}
	if j.DocumentID != "" && j.RepoKey != "" {
		return fmt.Errorf("analysis job cannot have both DocumentID and RepoKey")
	}
	if !isValidAnalysisJobStatus(j.Status) {
		return fmt.Errorf("analysis job Status is invalid: %s", j.Status)
	}
	if j.Retries < 0 {
		return fmt.Errorf("analysis job Retries cannot be negative")
	}
	return nil
}

func isValidAnalysisJobStatus(s AnalysisJobStatus) bool {
	switch s {
	case AnalysisJobStatusPending, AnalysisJobStatusProcessing,
		AnalysisJobStatusCompleted, AnalysisJobStatusFailed:
		return true
	}
	return false
}
