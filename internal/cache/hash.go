// Package cache implements change detection for analysis subjects: content
// fingerprints, per-file hash diffing, and the freshness decisions that gate
// expensive re-analysis.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SHA256Hex returns the hex-encoded sha256 of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ContentHash computes a stable fingerprint over an equivalence projection:
// the value is serialized to JSON, round-tripped through generic maps so
// object keys serialize in sorted order, and hashed. Callers pass only the
// fields that matter for equivalence (summary, language breakdown, counts);
// incidental fields such as fetch timestamps must not be part of the
// projection or every check would report spurious change.
func ContentHash(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content for hashing: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("failed to canonicalize content: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to marshal canonical content: %w", err)
	}

	return SHA256Hex(canonical), nil
}
