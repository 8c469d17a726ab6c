package similarity

import (
	"sort"
	"strings"

	"github.com/hirelens/hirelens/internal/domain"
)

// DuplicatePair reports two chunks whose sequence similarity met a threshold.
type DuplicatePair struct {
	I     int
	J     int
	Score float64
}

// FindDuplicates compares all unordered chunk pairs by sequence similarity
// and reports those at or above threshold. O(n²) in chunk count, which is
// bounded by a single document's length over its chunk size.
func FindDuplicates(chunks []domain.Chunk, threshold float64) []DuplicatePair {
	var pairs []DuplicatePair
	for i := 0; i < len(chunks); i++ {
		for j := i + 1; j < len(chunks); j++ {
			score := SequenceRatio(chunks[i].Content, chunks[j].Content)
			if score >= threshold {
				pairs = append(pairs, DuplicatePair{I: i, J: j, Score: score})
			}
		}
	}
	return pairs
}

// MergeSimilar consolidates near-duplicate chunks with greedy single-pass
// clustering. Chunks are always visited in chunk-index order; that ordering
// is the contract, so repeated runs over the same chunks produce the same
// result, and re-merging the output at the same or higher threshold is a
// no-op. For each not-yet-consumed chunk, all later chunks meeting the
// threshold are folded into it: contents space-joined in original order,
// list-valued metadata extended. A chunk similar to nothing passes through
// unmodified.
func MergeSimilar(chunks []domain.Chunk, threshold float64) []domain.Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	ordered := make([]domain.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	consumed := make([]bool, len(ordered))
	merged := make([]domain.Chunk, 0, len(ordered))

	for i := 0; i < len(ordered); i++ {
		if consumed[i] {
			continue
		}
		head := ordered[i]
		contents := []string{head.Content}

		for j := i + 1; j < len(ordered); j++ {
			if consumed[j] {
				continue
			}
			if SequenceRatio(head.Content, ordered[j].Content) < threshold {
				continue
			}
			consumed[j] = true
			contents = append(contents, ordered[j].Content)
			head.Metadata = mergeMetadata(head.Metadata, ordered[j].Metadata)
		}

		if len(contents) > 1 {
			head.Content = strings.Join(contents, " ")
		}
		head.Index = len(merged)
		merged = append(merged, head)
	}

	return merged
}

// mergeMetadata unions two chunk metadata values. Scalar fields keep the
// head chunk's value when set; list-valued attributes are extended.
func mergeMetadata(dst, src domain.ChunkMetadata) domain.ChunkMetadata {
	if dst.Subject == "" {
		dst.Subject = src.Subject
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
	if len(src.Attributes) > 0 {
		// Copy-on-write so the input chunks' metadata is never mutated.
		combined := make(map[string][]string, len(dst.Attributes)+len(src.Attributes))
		for key, values := range dst.Attributes {
			combined[key] = append([]string(nil), values...)
		}
		for key, values := range src.Attributes {
			combined[key] = append(combined[key], values...)
		}
		dst.Attributes = combined
	}
	return dst
}
