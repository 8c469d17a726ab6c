package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Go, Postgres and S3!")
	assert.Equal(t, []string{"go", "postgres", "and", "s3"}, got)
}

func TestTokenize_DropsSingleRuneTokens(t *testing.T) {
	got := Tokenize("a b cd é fg")
	assert.Equal(t, []string{"cd", "fg"}, got)
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize(" ,.! "))
}

func TestExtractKeywords_FrequencyOrder(t *testing.T) {
	text := "go go go postgres postgres kafka"
	got := ExtractKeywords(text, 10)
	assert.Equal(t, []string{"go", "postgres", "kafka"}, got)
}

func TestExtractKeywords_TieBreakFirstSeen(t *testing.T) {
	// Equal frequency resolves to appearance order so repeated runs agree.
	got := ExtractKeywords("alpha beta gamma", 10)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, got)
}

func TestExtractKeywords_DropsStopwords(t *testing.T) {
	got := ExtractKeywords("the engineer and the team", 10)
	assert.Equal(t, []string{"engineer", "team"}, got)
}

func TestExtractKeywords_MergesCompounds(t *testing.T) {
	got := ExtractKeywords("machine learning with deep learning", 10)
	assert.Equal(t, []string{"machine-learning", "deep-learning"}, got)
}

func TestExtractKeywords_CompoundConsumesToken(t *testing.T) {
	// "learning" in "machine learning data" is consumed by the merge and
	// cannot start a second pair.
	got := ExtractKeywords("machine learning data", 10)
	assert.Equal(t, []string{"machine-learning", "data"}, got)
}

func TestExtractKeywords_Limit(t *testing.T) {
	text := strings.Repeat("go ", 3) + strings.Repeat("rust ", 2) + "zig"
	got := ExtractKeywords(text, 2)
	assert.Equal(t, []string{"go", "rust"}, got)
}

func TestExtractKeywords_ZeroLimit(t *testing.T) {
	assert.Nil(t, ExtractKeywords("go rust", 0))
}
