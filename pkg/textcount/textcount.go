// Package textcount implements the character/byte counting convention used
// for record length limits: Hangul syllables weigh 3 bytes, newlines 2, and
// everything else 1. The newline weight is an editorial convention inherited
// from the official record-length policy, not a UTF-8 measurement.
package textcount

// MaxRecordBytes is the default editorial byte limit for record content.
const MaxRecordBytes = 1500

// Counts holds the derived length measures for a piece of record text.
type Counts struct {
	CharCount int `json:"char_count"`
	ByteCount int `json:"byte_count"`
}

// Severity buckets a byte count against the editorial limit.
type Severity string

const (
	SeverityNormal    Severity = "normal"
	SeverityWarning   Severity = "warning"
	SeverityNearLimit Severity = "near_limit"
	SeverityOverLimit Severity = "over_limit"
)

// Measure computes character and byte counts for text.
// CharCount is the number of UTF-16 code units, matching how the web editor
// reports lengths. ByteCount = Hangul*3 + newline*2 + other*1.
func Measure(text string) Counts {
	if text == "" {
		return Counts{}
	}

	var chars, korean, newlines int
	for _, r := range text {
		// UTF-16 code units: supplementary-plane runes take a surrogate pair.
		if r > 0xFFFF {
			chars += 2
		} else {
			chars++
		}
		switch {
		case r >= 0xAC00 && r <= 0xD7A3:
			korean++
		case r == '\n':
			newlines++
		}
	}

	other := chars - korean - newlines
	return Counts{
		CharCount: chars,
		ByteCount: korean*3 + newlines*2 + other,
	}
}

// Classify maps a byte count to a severity bucket. maxBytes <= 0 falls back
// to MaxRecordBytes. Bucket lower bounds are inclusive: exactly 100% is
// over-limit, exactly 90% is near-limit, exactly 75% is warning.
func Classify(byteCount, maxBytes int) Severity {
	if maxBytes <= 0 {
		maxBytes = MaxRecordBytes
	}
	percentage := float64(byteCount) / float64(maxBytes) * 100

	switch {
	case percentage >= 100:
		return SeverityOverLimit
	case percentage >= 90:
		return SeverityNearLimit
	case percentage >= 75:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}
