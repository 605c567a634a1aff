package mathtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentsPlainOnly(t *testing.T) {
	segs := Segments("no math here")
	require.Len(t, segs, 1)
	assert.Equal(t, PlainText, segs[0].Kind)
	assert.Equal(t, "no math here", segs[0].Text)
}

func TestSegmentsInline(t *testing.T) {
	segs := Segments("value $x^2$ rises")
	require.Len(t, segs, 3)
	assert.Equal(t, Segment{PlainText, "value "}, segs[0])
	assert.Equal(t, Segment{InlineMath, "x^2"}, segs[1])
	assert.Equal(t, Segment{PlainText, " rises"}, segs[2])
}

func TestSegmentsDisplayBeforeInline(t *testing.T) {
	segs := Segments(`intro $$\frac{a}{b}$$ then $y$ done`)
	require.Len(t, segs, 5)
	assert.Equal(t, Segment{PlainText, "intro "}, segs[0])
	assert.Equal(t, Segment{DisplayMath, `\frac{a}{b}`}, segs[1])
	assert.Equal(t, Segment{PlainText, " then "}, segs[2])
	assert.Equal(t, Segment{InlineMath, "y"}, segs[3])
	assert.Equal(t, Segment{PlainText, " done"}, segs[4])
}

func TestSegmentsDanglingDollar(t *testing.T) {
	segs := Segments("price is $5 and rising")
	require.Len(t, segs, 1)
	assert.Equal(t, PlainText, segs[0].Kind)
}

func TestSegmentsAdjacentAndEmptySpans(t *testing.T) {
	// $$$$ is an empty display span; $$ alone an empty inline pair.
	segs := Segments("$$$$")
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{DisplayMath, ""}, segs[0])

	segs = Segments("$a$$b$")
	require.Len(t, segs, 2)
	assert.Equal(t, Segment{InlineMath, "a"}, segs[0])
	assert.Equal(t, Segment{InlineMath, "b"}, segs[1])
}

func TestSegmentsEmptyInput(t *testing.T) {
	assert.Nil(t, Segments(""))
}

func TestJoinRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text only",
		"$x$",
		"$$block$$",
		"a $x+1$ b $$y$$ c",
		"한글 $\\alpha$ 설명 $$\\beta$$",
		"$$first$$$$second$$",
		"unmatched $ dangles here",
		"mix $a$ then $ dangling",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Join(Segments(in)), "input %q", in)
	}
}
