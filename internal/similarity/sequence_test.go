package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceRatio_Identical(t *testing.T) {
	assert.InDelta(t, 1.0, SequenceRatio("abcdef", "abcdef"), 1e-9)
}

func TestSequenceRatio_Empty(t *testing.T) {
	assert.Equal(t, 1.0, SequenceRatio("", ""))
	assert.Equal(t, 0.0, SequenceRatio("abc", ""))
	assert.Equal(t, 0.0, SequenceRatio("", "abc"))
}

func TestSequenceRatio_PartialOverlap(t *testing.T) {
	// "abcd" vs "bcde": longest block "bcd" of length 3, 2*3/(4+4) = 0.75.
	assert.InDelta(t, 0.75, SequenceRatio("abcd", "bcde"), 1e-9)
}

func TestSequenceRatio_Disjoint(t *testing.T) {
	assert.Equal(t, 0.0, SequenceRatio("abcd", "wxyz"))
}

func TestSequenceRatio_Symmetric(t *testing.T) {
	a := "the quick brown fox"
	b := "the quick red fox"
	assert.InDelta(t, SequenceRatio(a, b), SequenceRatio(b, a), 1e-9)
}

func TestSequenceRatio_MultipleBlocks(t *testing.T) {
	// Matching recurses on both sides of the longest block, so the shared
	// prefix and suffix are both counted.
	got := SequenceRatio("start middle end", "start other end")
	// Shared runes: "start " (6) + " end" (4) at minimum.
	assert.Greater(t, got, 2.0*10.0/float64(16+15)-1e-9)
}

func TestSequenceRatio_Runes(t *testing.T) {
	// Ratio is over runes, not bytes.
	assert.InDelta(t, 1.0, SequenceRatio("日本語", "日本語"), 1e-9)
	assert.InDelta(t, 2.0*2.0/6.0, SequenceRatio("日本語", "日本文"), 1e-9)
}
