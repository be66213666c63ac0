package guard

import (
	"fmt"
	"hash/fnv"
	"regexp"
)

// Placeholder tokens must survive an opaque translation model: short,
// ASCII-only, delimiter-wrapped, no internal spaces so tokenizers treat
// them as one unit, and built from characters with no linguistic meaning
// in either language. Format: <<MED0:9f3a>> — kind, sequence index, and a
// 16-bit integrity tag over the original span text.
const (
	tokenOpen  = "<<"
	tokenClose = ">>"

	kindCodeMedication = "MED"
	kindCodeDosage     = "DSG"
	kindCodeNegation   = "NEG"
)

// placeholderRe matches a well-formed token with a valid 4-hex tag.
var placeholderRe = regexp.MustCompile(`<<(MED|DSG)(\d+):([0-9a-f]{4})>>`)

// candidateRe is deliberately loose on the tag so mildly garbled tokens are
// still found and can be routed to the repair pass.
var candidateRe = regexp.MustCompile(`<<(MED|DSG)(\d+):([0-9A-Za-z]{1,8})>>`)

func kindCode(kind SpanKind) string {
	switch kind {
	case SpanMedication:
		return kindCodeMedication
	case SpanDosage:
		return kindCodeDosage
	default:
		return kindCodeNegation
	}
}

// integrityTag computes the 4-hex-digit tag binding a token to its original
// span content.
func integrityTag(original string) string {
	h := fnv.New32a()
	h.Write([]byte(original))
	return fmt.Sprintf("%04x", h.Sum32()&0xffff)
}

// placeholderID builds the id for a span, e.g. "MED0".
func placeholderID(kind SpanKind, seq int) string {
	return fmt.Sprintf("%s%d", kindCode(kind), seq)
}

// renderToken builds the full placeholder token for a span.
func renderToken(id, tag string) string {
	return tokenOpen + id + ":" + tag + tokenClose
}
