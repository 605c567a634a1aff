package textcount

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
)

func TestMeasure(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		chars int
		bytes int
	}{
		{"empty", "", 0, 0},
		{"single hangul", "가", 1, 3},
		{"ascii with newline", "a\n", 2, 3},
		{"hangul with newline", "가나\n", 3, 8},
		{"pure ascii", "hello", 5, 5},
		{"mixed", "수학 A+", 5, 9},
		{"crlf counts cr as other", "a\r\n", 3, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			counts := Measure(tc.text)
			assert.Equal(t, tc.chars, counts.CharCount)
			assert.Equal(t, tc.bytes, counts.ByteCount)
		})
	}
}

func TestMeasureCharCountMatchesUTF16Length(t *testing.T) {
	inputs := []string{"", "가나다", "line1\nline2", "성실한 학생 😀", "a가\nb나"}
	for _, s := range inputs {
		assert.Equal(t, len(utf16.Encode([]rune(s))), Measure(s).CharCount, "input %q", s)
	}
}

func TestMeasureSupplementaryPlane(t *testing.T) {
	// Emoji occupy two UTF-16 code units and weigh 2 in the byte heuristic.
	counts := Measure("😀")
	assert.Equal(t, 2, counts.CharCount)
	assert.Equal(t, 2, counts.ByteCount)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, SeverityOverLimit, Classify(1500, 1500))
	assert.Equal(t, SeverityOverLimit, Classify(1600, 1500))
	assert.Equal(t, SeverityNearLimit, Classify(1350, 1500))
	assert.Equal(t, SeverityNearLimit, Classify(1499, 1500))
	assert.Equal(t, SeverityWarning, Classify(1349, 1500))
	assert.Equal(t, SeverityWarning, Classify(1125, 1500))
	assert.Equal(t, SeverityNormal, Classify(1124, 1500))
	assert.Equal(t, SeverityNormal, Classify(0, 1500))
}

func TestClassifyDefaultLimit(t *testing.T) {
	assert.Equal(t, SeverityOverLimit, Classify(1500, 0))
	assert.Equal(t, SeverityNormal, Classify(100, 0))
}
