package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/hirelens/internal/domain"
)

func compareService() *CompareService {
	cfg := testConfig()
	return NewCompareService(testNormalizer(), localProvider(), testScorer(cfg), cfg)
}

func TestCompare_IdenticalDocuments(t *testing.T) {
	svc := compareService()
	text := "senior golang engineer with postgres and kafka experience"
	a := domain.NewDocument("doc-a", domain.SubjectResume, text)
	b := domain.NewDocument("doc-b", domain.SubjectResume, text)

	result, err := svc.Compare(context.Background(), a, b)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Overall.Value, 1e-6)
	assert.InDelta(t, 1.0, result.Semantic.Value, 1e-6)
	assert.InDelta(t, 1.0, result.Keyword.Value, 1e-6)
	assert.Equal(t, domain.LevelHigh, result.Overall.Level)
	assert.True(t, result.Similar)
	assert.True(t, result.Plagiarism)
	assert.Equal(t, "local/hashed-tf-v1", result.Model)
	assert.Equal(t, "doc-a", result.Overall.SubjectA)
	assert.Equal(t, "doc-b", result.Overall.SubjectB)
}

func TestCompare_UnrelatedDocuments(t *testing.T) {
	svc := compareService()
	a := domain.NewDocument("doc-a", domain.SubjectResume,
		"senior golang engineer building backend services")
	b := domain.NewDocument("doc-b", domain.SubjectResume,
		"pastry chef specialized in croissant lamination")

	result, err := svc.Compare(context.Background(), a, b)
	require.NoError(t, err)

	assert.Less(t, result.Overall.Value, 0.6)
	assert.False(t, result.Plagiarism)
}

func TestCompare_ChannelMethods(t *testing.T) {
	svc := compareService()
	a := domain.NewDocument("doc-a", domain.SubjectResume, "golang postgres")
	b := domain.NewDocument("doc-b", domain.SubjectResume, "golang kafka")

	result, err := svc.Compare(context.Background(), a, b)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodCosine, result.Semantic.Method)
	assert.Equal(t, domain.MethodJaccard, result.Keyword.Method)
	assert.Equal(t, domain.MethodWeighted, result.Overall.Method)
}

func TestCompare_FieldBreakdown(t *testing.T) {
	svc := compareService()
	a := domain.NewDocument("doc-a", domain.SubjectCoverLetter, "cover letter body text")
	a.Fields = map[string]string{
		"motivation":    "I want to build distributed systems",
		"careerHistory": "five years of backend development",
	}
	b := domain.NewDocument("doc-b", domain.SubjectCoverLetter, "another cover letter body")
	b.Fields = map[string]string{
		"motivation":    "I want to build distributed systems",
		"careerHistory": "frontend work at an agency",
	}

	result, err := svc.Compare(context.Background(), a, b)
	require.NoError(t, err)

	require.Len(t, result.Fields, 2)
	assert.Equal(t, "careerHistory", result.Fields[0].Field)
	assert.Equal(t, "motivation", result.Fields[1].Field)
	assert.InDelta(t, 1.0, result.Fields[1].Value, 1e-9)

	// A copied field is plagiarism even when the overall blend is lower.
	assert.True(t, result.Plagiarism)
}

func TestCompare_NoFieldsNoBreakdown(t *testing.T) {
	svc := compareService()
	a := domain.NewDocument("doc-a", domain.SubjectResume, "text one")
	b := domain.NewDocument("doc-b", domain.SubjectResume, "text two")

	result, err := svc.Compare(context.Background(), a, b)
	require.NoError(t, err)
	assert.Empty(t, result.Fields)
}

func TestCompare_InvalidDocument(t *testing.T) {
	svc := compareService()
	valid := domain.NewDocument("doc-a", domain.SubjectResume, "text")

	_, err := svc.Compare(context.Background(), nil, valid)
	assert.Error(t, err)

	_, err = svc.Compare(context.Background(), valid, &domain.Document{ID: "x", SubjectType: "bogus"})
	assert.Error(t, err)
}

func TestCompare_EmbeddingFailurePropagates(t *testing.T) {
	cfg := testConfig()
	svc := NewCompareService(testNormalizer(), failingProvider{}, testScorer(cfg), cfg)
	a := domain.NewDocument("doc-a", domain.SubjectResume, "text one")
	b := domain.NewDocument("doc-b", domain.SubjectResume, "text two")

	// A pair we could not embed is an error, never a 0.0 score.
	result, err := svc.Compare(context.Background(), a, b)
	assert.Error(t, err)
	assert.Nil(t, result)
}
