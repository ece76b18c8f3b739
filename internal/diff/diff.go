// Package diff computes word-level differences between two versions of a
// document's text.
package diff

import (
	"strings"
	"unicode"
)

// Op classifies a segment of diff output.
type Op int

const (
	// Unchanged text appears in both versions.
	Unchanged Op = iota
	// Added text appears only in the new version.
	Added
	// Removed text appears only in the old version.
	Removed
)

func (op Op) String() string {
	switch op {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// Segment is a contiguous run of tokens sharing one Op. Concatenating the
// text of all Unchanged and Removed segments reproduces the old text exactly;
// Unchanged and Added reproduce the new text.
type Segment struct {
	Op   Op
	Text string
}

// Compute diffs oldText against newText and returns the edit script as an
// ordered list of segments. It is a pure function: any two strings are valid
// input and identical inputs always produce identical output. Identical texts
// yield a single Unchanged segment; an empty old text yields a single Added
// segment.
func Compute(oldText, newText string) []Segment {
	if oldText == newText {
		if oldText == "" {
			return nil
		}
		return []Segment{{Op: Unchanged, Text: oldText}}
	}

	a := tokenize(oldText)
	b := tokenize(newText)
	return assemble(a, b, edits(a, b))
}

// tokenize splits text into maximal runs of non-whitespace and whitespace
// characters. Both kinds are kept so the token sequence concatenates back to
// the original text.
func tokenize(text string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			tokens = append(tokens, text[start:i])
			start = i
			inSpace = space
		}
	}
	if len(text) > 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

type editOp byte

const (
	editKeep editOp = iota
	editDelete
	editInsert
)

// edits computes a minimal token-level edit script using Myers' greedy O(N·D)
// algorithm, so large documents with few changes stay cheap.
func edits(a, b []string) []editOp {
	n, m := len(a), len(b)
	max := n + m
	if max == 0 {
		return nil
	}

	// v[offset+k] is the furthest x reached on diagonal k; trace keeps one
	// snapshot per edit distance for the backtracking pass.
	offset := max
	v := make([]int, 2*max+1)
	var trace [][]int

	depth := -1
search:
	for d := 0; d <= max; d++ {
		snapshot := make([]int, len(v))
		copy(snapshot, v)
		trace = append(trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				depth = d
				break search
			}
		}
	}

	// Walk back from (n, m) to (0, 0), recording each step in reverse.
	script := make([]editOp, 0, max)
	x, y := n, m
	for d := depth; d > 0; d-- {
		vd := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && vd[offset+k-1] < vd[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := vd[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			script = append(script, editKeep)
			x--
			y--
		}
		if x == prevX {
			script = append(script, editInsert)
			y--
		} else {
			script = append(script, editDelete)
			x--
		}
	}
	for x > 0 && y > 0 {
		script = append(script, editKeep)
		x--
		y--
	}

	for i, j := 0, len(script)-1; i < j; i, j = i+1, j-1 {
		script[i], script[j] = script[j], script[i]
	}
	return script
}

// assemble turns a per-token edit script into coalesced segments. Within a
// changed region all removed tokens are emitted before the added ones.
func assemble(a, b []string, script []editOp) []Segment {
	var segments []Segment
	var keep, removed, added strings.Builder

	flushChanged := func() {
		if removed.Len() > 0 {
			segments = append(segments, Segment{Op: Removed, Text: removed.String()})
			removed.Reset()
		}
		if added.Len() > 0 {
			segments = append(segments, Segment{Op: Added, Text: added.String()})
			added.Reset()
		}
	}
	flushKeep := func() {
		if keep.Len() > 0 {
			segments = append(segments, Segment{Op: Unchanged, Text: keep.String()})
			keep.Reset()
		}
	}

	ai, bi := 0, 0
	for _, op := range script {
		switch op {
		case editKeep:
			flushChanged()
			keep.WriteString(a[ai])
			ai++
			bi++
		case editDelete:
			flushKeep()
			removed.WriteString(a[ai])
			ai++
		case editInsert:
			flushKeep()
			added.WriteString(b[bi])
			bi++
		}
	}
	flushChanged()
	flushKeep()

	return segments
}

// OldText reconstructs the prior version from a segment list.
func OldText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Op != Added {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// NewText reconstructs the current version from a segment list.
func NewText(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Op != Removed {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}
