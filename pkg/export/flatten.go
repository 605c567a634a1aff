package export

import (
	"strings"

	"github.com/ssgb-dev/logbook-api/pkg/mathtext"
)

// Flatten strips math delimiters from record text for read-only formats.
// Inline and display math keep their body verbatim, so "$x^2$" comes out as
// "x^2" instead of dollar-sign noise in a PDF cell.
func Flatten(text string) string {
	segments := mathtext.Segments(text)
	if len(segments) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, seg := range segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}
