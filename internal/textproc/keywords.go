package textproc

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLength is the floor for naive whitespace tokenization; shorter
// tokens are almost always noise from formatting artifacts.
const minTokenLength = 2

// stopwords is the fixed stop-word set removed before keyword ranking.
var stopwords = map[string]struct{}{}

func init() {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "than", "so",
		"such", "into", "about", "between", "through", "during", "before",
		"after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "should", "now", "i", "my", "we",
		"our", "you", "your", "he", "she", "they", "them", "his", "her",
		"their", "have", "has", "had", "do", "does", "did", "not", "no",
	}
	for _, w := range words {
		stopwords[w] = struct{}{}
	}
}

// compoundTerms maps adjacent token pairs onto merged single tokens so that
// multi-word skills rank as one keyword. Lookup is exact adjacent-pair.
var compoundTerms = map[string]string{
	"machine learning":     "machine-learning",
	"deep learning":        "deep-learning",
	"data science":         "data-science",
	"data engineering":     "data-engineering",
	"software engineering": "software-engineering",
	"project management":   "project-management",
	"product management":   "product-management",
	"open source":          "open-source",
	"full stack":           "full-stack",
	"front end":            "front-end",
	"back end":             "back-end",
	"computer science":     "computer-science",
	"unit testing":         "unit-testing",
	"code review":          "code-review",
	"natural language":     "natural-language",
	"neural network":       "neural-network",
	"cover letter":         "cover-letter",
}

// Tokenize lowercases and splits text into tokens of letters and digits.
// There is no linguistic tokenizer here, so this is the naive fallback:
// whitespace/punctuation splitting with a minimum token length of 2.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ExtractKeywords tokenizes text, drops stopwords, merges known compound
// terms and returns the top maxKeywords tokens by frequency. Ties are broken
// by first-seen order, which keeps the result deterministic.
func ExtractKeywords(text string, maxKeywords int) []string {
	if maxKeywords <= 0 {
		return nil
	}

	tokens := Tokenize(text)
	tokens = mergeCompounds(tokens)

	counts := make(map[string]int, len(tokens))
	firstSeen := make(map[string]int, len(tokens))
	order := 0
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, seen := counts[tok]; !seen {
			firstSeen[tok] = order
			order++
		}
		counts[tok]++
	}

	keywords := make([]string, 0, len(counts))
	for tok := range counts {
		keywords = append(keywords, tok)
	}
	sort.Slice(keywords, func(i, j int) bool {
		a, b := keywords[i], keywords[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return firstSeen[a] < firstSeen[b]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// mergeCompounds replaces known adjacent pairs with their merged token.
// A token consumed by a merge cannot start another pair.
func mergeCompounds(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if merged, ok := compoundTerms[tokens[i]+" "+tokens[i+1]]; ok {
				out = append(out, merged)
				i++
				continue
			}
		}
		out = append(out, tokens[i])
	}
	return out
}
