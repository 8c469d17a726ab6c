package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_WhitespaceCollapse(t *testing.T) {
	n := DefaultNormalizer()

	assert.Equal(t, "one two three", n.Normalize("one\t two\n\n  three "))
	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   \n\t  "))
}

func TestNormalize_StripsTags(t *testing.T) {
	n := DefaultNormalizer()

	got := n.Normalize("<p>Senior engineer</p><p>Go, Postgres</p>")
	assert.Equal(t, "Senior engineer Go, Postgres", got)
}

func TestNormalize_DecodesEntities(t *testing.T) {
	n := DefaultNormalizer()

	got := n.Normalize("R&amp;D lead &quot;platform&quot; &lt;core&gt;")
	assert.Equal(t, `R&D lead "platform" core`, got)
}

func TestNormalize_PreservesCase(t *testing.T) {
	n := DefaultNormalizer()

	// Case folding happens at tokenization time, not here.
	assert.Equal(t, "Java and JavaScript", n.Normalize("Java and JavaScript"))
}

func TestNormalize_AlphabetFiltering(t *testing.T) {
	n := DefaultNormalizer()

	// Kept punctuation survives, everything else outside letters, digits
	// and whitespace is dropped.
	assert.Equal(t, "C++ and C# at 100%", n.Normalize("C++ and C# at 100%"))
	assert.Equal(t, "price 100", n.Normalize("price €100★"))
}

func TestNormalize_CustomAlphabet(t *testing.T) {
	n := NewNormalizer("$")

	assert.Equal(t, "pay $90k base", n.Normalize("pay $90k (base)"))
}

func TestNormalize_UnicodeCompatibility(t *testing.T) {
	n := DefaultNormalizer()

	// NFKC folds the fullwidth and ligature forms to their plain equivalents.
	assert.Equal(t, "ABC", n.Normalize("ＡＢＣ"))
	assert.Equal(t, "office", n.Normalize("oﬃce"))
}

func TestStripHTML_PlainTextFastPath(t *testing.T) {
	s := "no markup here"
	assert.Equal(t, s, StripHTML(s))
}

func TestStripHTML_UnknownEntityKept(t *testing.T) {
	assert.Equal(t, "a &copy; b", StripHTML("a &copy; b"))
}

func TestStripHTML_UnclosedTagDropsTail(t *testing.T) {
	assert.Equal(t, "before ", StripHTML("before <em unclosed"))
}
