package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/hirelens/hirelens/internal/cache"
	"github.com/hirelens/hirelens/internal/config"
	"github.com/hirelens/hirelens/internal/domain"
	"github.com/hirelens/hirelens/internal/embedding"
	"github.com/hirelens/hirelens/internal/similarity"
	"github.com/hirelens/hirelens/internal/telemetry"
	"github.com/hirelens/hirelens/internal/textproc"
)

const (
	analysisKeywordSetSize = 20
	// maxAnalyzedFiles bounds how many snapshot files are embedded in a
	// single pass. Hashing still covers the whole tree.
	maxAnalyzedFiles = 64
)

// ChunkStore persists the chunk/vector output of an analysis pass.
type ChunkStore interface {
	ReplaceChunks(ctx context.Context, documentID string, subjectType domain.SubjectType, chunks []domain.Chunk, vectors []domain.EmbeddingVector) error
	DeleteChunks(ctx context.Context, documentID string) error
}

// SnapshotSource hands out a content fetcher for a repo key's snapshot.
type SnapshotSource interface {
	FetcherFor(repoKey string) cache.ContentFetcher
}

// DocumentAnalysis is the cached outcome of analyzing one document.
type DocumentAnalysis struct {
	DocumentID  string             `json:"document_id"`
	SubjectType domain.SubjectType `json:"subject_type"`
	ChunkCount  int                `json:"chunk_count"`
	MergedAway  int                `json:"merged_away"`
	Keywords    []string           `json:"keywords"`
	Model       string             `json:"model,omitempty"`
	ContentHash string             `json:"content_hash"`
	AnalyzedAt  time.Time          `json:"analyzed_at"`
	CacheHit    bool               `json:"cache_hit"`
}

// RepositoryAnalysis is the cached outcome of analyzing a repository
// snapshot. Changes is only set on passes that ran change detection; it is
// never part of the cached payload.
type RepositoryAnalysis struct {
	RepoKey    string         `json:"repo_key"`
	FileCount  int            `json:"file_count"`
	Languages  map[string]int `json:"languages"`
	Keywords   []string       `json:"keywords"`
	ChunkCount int            `json:"chunk_count"`
	Model      string         `json:"model,omitempty"`
	Mode       string         `json:"mode"`
	AnalyzedAt time.Time      `json:"analyzed_at"`

	CacheHit bool                 `json:"cache_hit"`
	Changes  *domain.ChangeReport `json:"changes,omitempty"`
}

// documentEquivalence is the projection hashed for single-document cache
// checks. Timestamps and derived values stay out so re-analysis of the same
// text keys to the same hash.
type documentEquivalence struct {
	SubjectType    domain.SubjectType `json:"subject_type"`
	NormalizedText string             `json:"normalized_text"`
}

type repositoryEquivalence struct {
	FileCount int            `json:"file_count"`
	Languages map[string]int `json:"languages"`
	Keywords  []string       `json:"keywords"`
}

// AnalysisService runs the normalize/chunk/merge/embed pipeline and gates
// it behind the change detection cache.
type AnalysisService struct {
	normalizer *textproc.Normalizer
	provider   embedding.Provider
	chunks     ChunkStore
	detector   *cache.Detector
	snapshots  SnapshotSource
	cfg        *config.Config
}

func NewAnalysisService(n *textproc.Normalizer, p embedding.Provider, cs ChunkStore, d *cache.Detector, ss SnapshotSource, cfg *config.Config) *AnalysisService {
	return &AnalysisService{normalizer: n, provider: p, chunks: cs, detector: d, snapshots: ss, cfg: cfg}
}

// AnalyzeDocument runs the full document pipeline, short-circuiting through
// the cache when cacheKey is set and the stored entry still matches the
// document's content hash. force bypasses the cache read but still writes
// the result back.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, doc *domain.Document, cacheKey string, force bool) (*DocumentAnalysis, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "AnalysisService.AnalyzeDocument", telemetry.SpanAttributes{
		DocumentID: doc.ID,
		CacheKey:   cacheKey,
	})
	defer span.End()
	if doc.NormalizedText == "" {
		doc.NormalizedText = s.normalizer.Normalize(doc.RawText)
	}

	equivalence := documentEquivalence{SubjectType: doc.SubjectType, NormalizedText: doc.NormalizedText}
	contentHash, err := cache.ContentHash(equivalence)
	if err != nil {
		return nil, fmt.Errorf("content hash: %w", err)
	}

	if cacheKey != "" && !force {
		cached, err := s.cachedDocument(ctx, cacheKey, contentHash)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	}

	analysis, err := s.analyzeText(ctx, doc)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	analysis.ContentHash = contentHash

	if cacheKey != "" {
		payload, err := json.Marshal(analysis)
		if err != nil {
			return nil, fmt.Errorf("marshal analysis: %w", err)
		}
		if err := s.detector.Save(ctx, cacheKey, payload, equivalence, nil); err != nil {
			return nil, err
		}
	}
	return analysis, nil
}

// cachedDocument returns the stored analysis when the cache can still be
// trusted for contentHash, or nil when a fresh pass is needed.
func (s *AnalysisService) cachedDocument(ctx context.Context, cacheKey, contentHash string) (*DocumentAnalysis, error) {
	lookup, err := s.detector.GetCached(ctx, cacheKey, s.cfg.CacheMaxAge)
	if err != nil {
		return nil, err
	}
	if lookup.State == domain.CacheAbsent {
		return nil, nil
	}
	if lookup.Entry.ContentHash != contentHash {
		return nil, nil
	}
	if lookup.State == domain.CacheStale {
		if err := s.detector.MarkChecked(ctx, cacheKey); err != nil {
			return nil, err
		}
	}

	var cached DocumentAnalysis
	if err := json.Unmarshal(lookup.Payload(), &cached); err != nil {
		// A corrupt payload is treated as a miss, not a failure.
		log.Printf("analysis: discarding unreadable cache payload for %s: %v", cacheKey, err)
		return nil, nil
	}
	cached.CacheHit = true
	return &cached, nil
}

// analyzeText chunks, deduplicates and embeds one document and persists the
// surviving chunks. Only vectors from the primary provider are persisted;
// fallback vectors serve in-memory comparison only.
func (s *AnalysisService) analyzeText(ctx context.Context, doc *domain.Document) (*DocumentAnalysis, error) {
	profile := s.cfg.ChunkProfileFor(doc.SubjectType)
	chunks, err := textproc.Chunk(doc, profile.Size, profile.Overlap)
	if err != nil {
		return nil, err
	}
	rawCount := len(chunks)
	chunks = similarity.MergeSimilar(chunks, s.cfg.DuplicateThreshold)

	primaryModel := s.provider.ModelVersion()
	usedModel := primaryModel
	vectors := make([]domain.EmbeddingVector, len(chunks))
	for i, c := range chunks {
		vec, err := s.provider.Embed(ctx, c.Content, embedding.KindDocument)
		if err != nil {
			return nil, err
		}
		usedModel = vec.ModelVersion
		if vec.ModelVersion == primaryModel && len(vec.Values) == s.provider.Dimension() {
			vectors[i] = vec
		}
	}

	if s.chunks != nil {
		if err := s.chunks.ReplaceChunks(ctx, doc.ID, doc.SubjectType, chunks, vectors); err != nil {
			return nil, fmt.Errorf("persist chunks: %w", err)
		}
	}

	return &DocumentAnalysis{
		DocumentID:  doc.ID,
		SubjectType: doc.SubjectType,
		ChunkCount:  len(chunks),
		MergedAway:  rawCount - len(chunks),
		Keywords:    textproc.ExtractKeywords(doc.NormalizedText, analysisKeywordSetSize),
		Model:       usedModel,
		AnalyzedAt:  time.Now().UTC(),
	}, nil
}

// AnalyzeRepository hashes the snapshot tree for repoKey, diffs it against
// the cached hash map and runs either a full or an incremental pass. A
// cancelled hashing phase aborts the whole check without touching the
// stored entry.
func (s *AnalysisService) AnalyzeRepository(ctx context.Context, repoKey string, force bool) (*RepositoryAnalysis, error) {
	if strings.TrimSpace(repoKey) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "repo key is required")
	}
	if s.snapshots == nil {
		return nil, domain.NewDomainError(domain.ErrCodeConfiguration, "no snapshot store configured")
	}

	ctx, span := telemetry.StartSpan(ctx, "AnalysisService.AnalyzeRepository", telemetry.SpanAttributes{
		RepoKey: repoKey,
	})
	defer span.End()

	lookup, err := s.detector.GetCached(ctx, repoKey, s.cfg.CacheMaxAge)
	if err != nil {
		return nil, err
	}
	if !force && lookup.State == domain.CacheFresh {
		if cached := s.cachedRepository(lookup, repoKey); cached != nil {
			return cached, nil
		}
	}

	fetcher := s.snapshots.FetcherFor(repoKey)
	hasher := cache.NewHashFetcher(fetcher, s.cfg.HashFetchConcurrency)

	var prior map[string]string
	if lookup.Entry != nil {
		prior = lookup.Entry.FileHashes
	}
	hashes, err := hasher.HashTree(ctx, "", prior)
	if err != nil {
		return nil, err
	}

	report, err := s.detector.CheckForChanges(ctx, repoKey, hashes)
	if err != nil {
		return nil, err
	}

	if !force && lookup.Entry != nil && !report.HasChanges() {
		if cached := s.cachedRepository(lookup, repoKey); cached != nil {
			if err := s.detector.MarkChecked(ctx, repoKey); err != nil {
				return nil, err
			}
			cached.Changes = report
			return cached, nil
		}
	}

	full := force || lookup.Entry == nil || s.detector.NeedsFullReanalysis(report)

	var targets []string
	if full {
		targets = sortedPaths(hashes)
	} else {
		targets = append(append([]string{}, report.Added...), report.Modified...)
		sort.Strings(targets)
	}

	analysis, err := s.analyzeRepoFiles(ctx, fetcher, repoKey, targets, hashes)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if full {
		analysis.Mode = "full"
	} else {
		analysis.Mode = "incremental"
		s.carryForward(analysis, lookup)
	}

	if s.chunks != nil {
		for _, deleted := range report.Deleted {
			if err := s.chunks.DeleteChunks(ctx, repoDocumentID(repoKey, deleted)); err != nil {
				return nil, fmt.Errorf("drop chunks for %s: %w", deleted, err)
			}
		}
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	equivalence := repositoryEquivalence{FileCount: analysis.FileCount, Languages: analysis.Languages, Keywords: analysis.Keywords}
	if err := s.detector.Save(ctx, repoKey, payload, equivalence, hashes); err != nil {
		return nil, err
	}

	analysis.Changes = report
	return analysis, nil
}

func (s *AnalysisService) cachedRepository(lookup *cache.Lookup, repoKey string) *RepositoryAnalysis {
	var cached RepositoryAnalysis
	if err := json.Unmarshal(lookup.Payload(), &cached); err != nil {
		log.Printf("analysis: discarding unreadable cache payload for %s: %v", repoKey, err)
		return nil
	}
	cached.CacheHit = true
	return &cached
}

// analyzeRepoFiles embeds the targeted snapshot files, one chunked document
// per file so incremental passes only touch what changed. Unfetchable or
// binary files are skipped, not fatal.
func (s *AnalysisService) analyzeRepoFiles(ctx context.Context, fetcher cache.ContentFetcher, repoKey string, targets []string, hashes map[string]string) (*RepositoryAnalysis, error) {
	if len(targets) > maxAnalyzedFiles {
		targets = targets[:maxAnalyzedFiles]
	}

	analysis := &RepositoryAnalysis{
		RepoKey:    repoKey,
		FileCount:  len(hashes),
		Languages:  countLanguages(hashes),
		Keywords:   []string{},
		AnalyzedAt: time.Now().UTC(),
	}

	var corpus strings.Builder
	for _, p := range targets {
		content, err := fetcher.Fetch(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("analysis: skipping unfetchable file %s in %s: %v", p, repoKey, err)
			continue
		}
		if bytes.IndexByte(content, 0) >= 0 {
			continue
		}

		doc := &domain.Document{
			ID:          repoDocumentID(repoKey, p),
			SubjectType: domain.SubjectRepository,
			RawText:     string(content),
		}
		doc.NormalizedText = s.normalizer.Normalize(doc.RawText)
		if doc.NormalizedText == "" {
			continue
		}

		fileAnalysis, err := s.analyzeText(ctx, doc)
		if err != nil {
			return nil, err
		}
		analysis.ChunkCount += fileAnalysis.ChunkCount
		analysis.Model = fileAnalysis.Model

		corpus.WriteString(doc.NormalizedText)
		corpus.WriteByte('\n')
	}

	analysis.Keywords = textproc.ExtractKeywords(corpus.String(), analysisKeywordSetSize)
	return analysis, nil
}

// carryForward merges an incremental pass with the cached payload so the
// stored analysis keeps covering the unchanged part of the tree.
func (s *AnalysisService) carryForward(analysis *RepositoryAnalysis, lookup *cache.Lookup) {
	prior := s.cachedRepository(lookup, analysis.RepoKey)
	if prior == nil {
		return
	}
	analysis.ChunkCount += prior.ChunkCount
	if analysis.Model == "" {
		analysis.Model = prior.Model
	}

	seen := make(map[string]bool, len(analysis.Keywords))
	for _, kw := range analysis.Keywords {
		seen[kw] = true
	}
	for _, kw := range prior.Keywords {
		if !seen[kw] && len(analysis.Keywords) < 2*analysisKeywordSetSize {
			analysis.Keywords = append(analysis.Keywords, kw)
			seen[kw] = true
		}
	}
}

// Invalidate drops the cached entry for a key. Missing entries are fine.
func (s *AnalysisService) Invalidate(ctx context.Context, key string) error {
	return s.detector.Invalidate(ctx, key)
}

func repoDocumentID(repoKey, filePath string) string {
	return repoKey + "#" + filePath
}

func sortedPaths(hashes map[string]string) []string {
	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// countLanguages buckets the hashed tree by file extension.
func countLanguages(hashes map[string]string) map[string]int {
	languages := make(map[string]int)
	for p := range hashes {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
		if ext == "" {
			ext = "none"
		}
		languages[ext]++
	}
	return languages
}
