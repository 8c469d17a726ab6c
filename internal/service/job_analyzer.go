package service

import (
	"context"

	"github.com/hirelens/hirelens/internal/domain"
)

// DocumentSource resolves a queued document ID back to its document.
type DocumentSource interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}

// JobAnalyzer adapts the analysis service to the job worker's interface.
type JobAnalyzer struct {
	analysis  *AnalysisService
	documents DocumentSource
}

func NewJobAnalyzer(analysis *AnalysisService, documents DocumentSource) *JobAnalyzer {
	return &JobAnalyzer{analysis: analysis, documents: documents}
}

func (a *JobAnalyzer) AnalyzeDocumentByID(ctx context.Context, documentID string) error {
	if a.documents == nil {
		return domain.NewDomainError(domain.ErrCodeConfiguration, "no document source configured")
	}
	doc, err := a.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	_, err = a.analysis.AnalyzeDocument(ctx, doc, "doc:"+doc.ID, false)
	return err
}

func (a *JobAnalyzer) AnalyzeRepositoryByKey(ctx context.Context, repoKey string) error {
	_, err := a.analysis.AnalyzeRepository(ctx, repoKey, false)
	return err
}
