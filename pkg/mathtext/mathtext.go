// Package mathtext splits record text into plain and LaTeX math runs.
// Display math is delimited by $$...$$ and inline math by $...$, both with
// shortest-match semantics. A dangling unmatched delimiter is left as plain
// text.
package mathtext

import "regexp"

// Kind discriminates segment types.
type Kind int

const (
	PlainText Kind = iota
	InlineMath
	DisplayMath
)

// Segment is one run of text. Text holds the math body without its
// delimiters for math segments, and the literal text otherwise.
type Segment struct {
	Kind Kind
	Text string
}

var (
	displayRe = regexp.MustCompile(`\$\$(.*?)\$\$`)
	inlineRe  = regexp.MustCompile(`\$(.*?)\$`)
)

// Segments splits text into plain/display/inline runs in document order.
// Display spans are located first; each gap between them is then split on
// inline spans.
func Segments(text string) []Segment {
	if text == "" {
		return nil
	}

	var out []Segment
	last := 0
	for _, m := range displayRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			out = appendInline(out, text[last:m[0]])
		}
		out = append(out, Segment{Kind: DisplayMath, Text: text[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(text) {
		out = appendInline(out, text[last:])
	}
	return out
}

func appendInline(out []Segment, text string) []Segment {
	last := 0
	for _, m := range inlineRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			out = append(out, Segment{Kind: PlainText, Text: text[last:m[0]]})
		}
		out = append(out, Segment{Kind: InlineMath, Text: text[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(text) {
		out = append(out, Segment{Kind: PlainText, Text: text[last:]})
	}
	return out
}

// Join reassembles segments into the original text, restoring delimiters.
func Join(segments []Segment) string {
	var b []byte
	for _, s := range segments {
		switch s.Kind {
		case DisplayMath:
			b = append(b, "$$"...)
			b = append(b, s.Text...)
			b = append(b, "$$"...)
		case InlineMath:
			b = append(b, '$')
			b = append(b, s.Text...)
			b = append(b, '$')
		default:
			b = append(b, s.Text...)
		}
	}
	return string(b)
}
