package domain

// ChunkMetadata carries provenance for a chunk: which subject it came from,
// the chunking parameters that produced it, and any list-valued attributes
// accumulated during duplicate merging.
type ChunkMetadata struct {
	Subject      string
	Title        string
	ChunkSize    int
	ChunkOverlap int
	Source       string
	// Attributes holds list-valued metadata keys. When chunks are merged the
	// lists are extended, never overwritten.
	Attributes map[string][]string
}

// Chunk is a bounded slice of a document's normalized text. Index is the
// 0-based order within the document; order matters for reconstruction and
// overlap bookkeeping.
type Chunk struct {
	DocumentID string
	Index      int
	Content    string
	Metadata   ChunkMetadata
}

// EmbeddingVector is a fixed-dimension numeric representation of a chunk or
// document. Vectors from different provider models must never be compared.
type EmbeddingVector struct {
	OwnerID      string
	Values       []float32
	ModelVersion string
}

// Comparable reports whether two vectors may be scored against each other:
// same model version and same dimension.
func (v EmbeddingVector) Comparable(o EmbeddingVector) bool {
	return v.ModelVersion == o.ModelVersion && len(v.Values) == len(o.Values) && len(v.Values) > 0
}
