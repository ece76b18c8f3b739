package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"both empty", "", ""},
		{"identical", "same text here", "same text here"},
		{"single word replaced", "The fee is 5 dollars.", "The fee is 10 dollars."},
		{"empty old", "", "New regulation text."},
		{"empty new", "Repealed section text.", ""},
		{"prefix added", "existing clause", "new preamble existing clause"},
		{"suffix removed", "clause one clause two", "clause one"},
		{"whitespace only change", "a  b", "a b"},
		{"trailing newlines", "line one\nline two\n", "line one\nline three\n"},
		{"non-ascii", "Gebühr beträgt 5 €", "Gebühr beträgt 10 €"},
		{"everything replaced", "alpha beta gamma", "delta epsilon"},
		{"interleaved edits", "a b c d e f g", "a x c y e f z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			segments := Compute(tc.old, tc.new)
			assert.Equal(t, tc.old, OldText(segments), "unchanged+removed must rebuild old text")
			assert.Equal(t, tc.new, NewText(segments), "unchanged+added must rebuild new text")
		})
	}
}

func TestComputeIdentity(t *testing.T) {
	text := "Article 4: operators shall retain records for 6 years.\n"
	segments := Compute(text, text)

	require.Len(t, segments, 1)
	assert.Equal(t, Unchanged, segments[0].Op)
	assert.Equal(t, text, segments[0].Text)
}

func TestComputeDeterministic(t *testing.T) {
	old := "fees are due on the first business day of each quarter"
	new := "fees are payable on the last business day of each month"

	first := Compute(old, new)
	second := Compute(old, new)
	assert.Equal(t, first, second)
}

func TestComputeWordReplacement(t *testing.T) {
	segments := Compute("The fee is 5 dollars.", "The fee is 10 dollars.")

	var removed, added []string
	for _, seg := range segments {
		switch seg.Op {
		case Removed:
			removed = append(removed, strings.TrimSpace(seg.Text))
		case Added:
			added = append(added, strings.TrimSpace(seg.Text))
		}
	}
	assert.Equal(t, []string{"5"}, removed)
	assert.Equal(t, []string{"10"}, added)

	require.NotEmpty(t, segments)
	assert.Equal(t, Unchanged, segments[0].Op)
	assert.Equal(t, Unchanged, segments[len(segments)-1].Op)
	assert.Equal(t, " dollars.", segments[len(segments)-1].Text)
}

func TestComputeEmptyOld(t *testing.T) {
	segments := Compute("", "New regulation text.")

	require.Len(t, segments, 1)
	assert.Equal(t, Added, segments[0].Op)
	assert.Equal(t, "New regulation text.", segments[0].Text)
}

func TestComputeEmptyNew(t *testing.T) {
	segments := Compute("Withdrawn guidance.", "")

	require.Len(t, segments, 1)
	assert.Equal(t, Removed, segments[0].Op)
	assert.Equal(t, "Withdrawn guidance.", segments[0].Text)
}

func TestComputeRemovedBeforeAdded(t *testing.T) {
	segments := Compute("rate of 3 percent", "rate of 4 percent")

	var ops []Op
	for _, seg := range segments {
		ops = append(ops, seg.Op)
	}
	assert.Equal(t, []Op{Unchanged, Removed, Added, Unchanged}, ops)
}

func TestComputeLargeDocument(t *testing.T) {
	// A long document with a single edit should still produce a minimal
	// three-part script.
	words := make([]string, 0, 20000)
	for i := 0; i < 20000; i++ {
		words = append(words, "clause")
	}
	old := strings.Join(words, " ")
	new := strings.Replace(old, "clause", "section", 1)

	segments := Compute(old, new)
	assert.Equal(t, old, OldText(segments))
	assert.Equal(t, new, NewText(segments))

	var changed int
	for _, seg := range segments {
		if seg.Op != Unchanged {
			changed++
		}
	}
	assert.Equal(t, 2, changed)
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{"one two", []string{"one", " ", "two"}},
		{"  leading", []string{"  ", "leading"}},
		{"trailing  ", []string{"trailing", "  "}},
		{"a\n\tb", []string{"a", "\n\t", "b"}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tokenize(tc.in), "tokenize(%q)", tc.in)
	}
}
