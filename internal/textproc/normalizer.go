package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// htmlEntities is the fixed entity table decoded during HTML stripping.
var htmlEntities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&#39;":  "'",
	"&nbsp;": " ",
}

// Normalizer cleans raw document text before chunking and scoring.
// It is a pure function over its input plus static tables; constructing one
// is cheap and instances are safe for concurrent use.
type Normalizer struct {
	// extraAlphabet lists punctuation runes kept in addition to letters,
	// digits and whitespace.
	extraAlphabet map[rune]struct{}
}

// NewNormalizer creates a Normalizer keeping the given punctuation runes on
// top of letters, digits and whitespace.
func NewNormalizer(extra string) *Normalizer {
	alphabet := make(map[rune]struct{}, len(extra))
	for _, r := range extra {
		alphabet[r] = struct{}{}
	}
	return &Normalizer{extraAlphabet: alphabet}
}

// DefaultNormalizer keeps the punctuation that carries meaning in resumes
// and source summaries.
func DefaultNormalizer() *Normalizer {
	return NewNormalizer(`.,;:!?'"()[]{}-_/+#@&%`)
}

// Normalize applies unicode normalization, HTML-tag stripping with entity
// decoding, alphabet filtering and whitespace collapsing.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := norm.NFKC.String(raw)
	text = StripHTML(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			if _, ok := n.extraAlphabet[r]; ok {
				b.WriteRune(r)
			}
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// StripHTML removes tags and decodes the fixed entity table. It is a
// scanner, not a parser: anything between '<' and the next '>' is dropped,
// which matches how extracted resume text arrives from upstream converters.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inTag:
			if c == '>' {
				inTag = false
				// Tags act as soft breaks so "<p>a</p><p>b</p>" does not
				// fuse words together.
				b.WriteByte(' ')
			}
		case c == '<':
			inTag = true
		case c == '&':
			if entity, size, ok := matchEntity(s[i:]); ok {
				b.WriteString(entity)
				i += size - 1
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func matchEntity(s string) (string, int, bool) {
	for raw, decoded := range htmlEntities {
		if strings.HasPrefix(s, raw) {
			return decoded, len(raw), true
		}
	}
	return "", 0, false
}
