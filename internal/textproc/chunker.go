package textproc

import (
	"github.com/hirelens/hirelens/internal/domain"
)

// Chunk splits a document's normalized text into overlapping fixed-size
// chunks with provenance metadata. Sizes are rune counts. Each chunk spans
// [start, start+size); the next window starts at end-overlap, or end when
// overlap is zero. A document shorter than size yields exactly one chunk.
//
// size <= 0 and overlap >= size are rejected: a window that cannot advance
// would never terminate.
func Chunk(doc *domain.Document, size, overlap int) ([]domain.Chunk, error) {
	if size <= 0 {
		return nil, domain.ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= size {
		return nil, domain.ErrInvalidChunkOverlap
	}

	text := doc.NormalizedText
	if text == "" {
		text = doc.RawText
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	meta := domain.ChunkMetadata{
		Subject:      doc.ID,
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Source:       string(doc.SubjectType),
	}

	chunks := make([]domain.Chunk, 0, len(runes)/size+1)
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Index:      len(chunks),
			Content:    string(runes[start:end]),
			Metadata:   meta,
		})

		if end >= len(runes) {
			break
		}
		if overlap > 0 {
			start = end - overlap
		} else {
			start = end
		}
	}

	return chunks, nil
}
