package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/hirelens/hirelens/internal/domain"
)

// CandidateMatch is one corpus candidate returned by semantic or lexical
// search, scored in [0,1].
type CandidateMatch struct {
	DocumentID  string
	SubjectType domain.SubjectType
	ChunkIndex  int
	Content     string
	Score       float64
}

// DocumentChunkRepository persists chunk embeddings and serves the corpus
// side of hybrid scoring. Only primary-provider vectors are persisted; the
// model version column guards against mixing providers in one search.
type DocumentChunkRepository struct {
	db dbtx
}

func NewDocumentChunkRepository(pool *pgxpool.Pool) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: pool}
}

func NewDocumentChunkRepositoryWithTx(tx dbtx) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: tx}
}

// ReplaceChunks deletes any existing chunks for the document and inserts the
// new set. chunks and vectors run parallel by index; a chunk without a
// vector is stored for lexical search only.
func (r *DocumentChunkRepository) ReplaceChunks(ctx context.Context, documentID string, subjectType domain.SubjectType, chunks []domain.Chunk, vectors []domain.EmbeddingVector) error {
	if len(vectors) > 0 && len(vectors) != len(chunks) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, c := range chunks {
		var embedding any
		var modelVersion *string
		if len(vectors) > 0 && len(vectors[i].Values) > 0 {
			embedding = pgvector.NewVector(vectors[i].Values)
			mv := vectors[i].ModelVersion
			modelVersion = &mv
		}

		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(document_id, subject_type, chunk_index, content, embedding, model_version, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7)`,
			documentID, subjectType, c.Index, c.Content, embedding, modelVersion, now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// DeleteChunks removes a superseded document's chunks.
func (r *DocumentChunkRepository) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}

// SearchSemantic returns the closest chunks by cosine distance, restricted
// to vectors from the given model version so cross-provider vectors are
// never compared.
func (r *DocumentChunkRepository) SearchSemantic(ctx context.Context, embedding []float32, modelVersion string, subjectType domain.SubjectType, limit int) ([]*CandidateMatch, error) {
	if limit <= 0 {
		limit = 20
	}

	vec := pgvector.NewVector(embedding)
	rows, err := r.db.Query(ctx,
		`SELECT document_id, subject_type, chunk_index, content,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM document_chunks
		 WHERE embedding IS NOT NULL
		   AND model_version = $2
		   AND subject_type = $3
		 ORDER BY score DESC
		 LIMIT $4`,
		vec, modelVersion, subjectType, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// SearchLexical returns chunks ranked by Postgres full-text match. It backs
// the KeywordIndex contract for callers without an external search engine.
func (r *DocumentChunkRepository) SearchLexical(ctx context.Context, query string, subjectType domain.SubjectType, limit int) ([]*CandidateMatch, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT document_id, subject_type, chunk_index, content,
		        ts_rank(content_tsv, websearch_to_tsquery('simple', $1)) AS score
		 FROM document_chunks
		 WHERE content_tsv @@ websearch_to_tsquery('simple', $1)
		   AND subject_type = $2
		 ORDER BY score DESC
		 LIMIT $3`,
		query, subjectType, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCandidates(rows)
}

type candidateRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCandidates(rows candidateRows) ([]*CandidateMatch, error) {
	var matches []*CandidateMatch
	for rows.Next() {
		var m CandidateMatch
		var subjectType string
		if err := rows.Scan(&m.DocumentID, &subjectType, &m.ChunkIndex, &m.Content, &m.Score); err != nil {
			return nil, err
		}
		m.SubjectType = domain.SubjectType(subjectType)
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}
