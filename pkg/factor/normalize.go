package factor

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeAnswer canonicalizes a SecurityQuestions answer before it is
// folded into a derivation salt: NFKC-normalized, trimmed, and
// case-folded, the way pkg/kernel/csnf.go canonicalizes strings before
// hashing them. Two answers that differ only by composition form, leading
// or trailing whitespace, or case therefore derive the same factor
// instance.
func NormalizeAnswer(answer string) string {
	trimmed := strings.TrimSpace(answer)
	folded := strings.ToLower(trimmed)
	return norm.NFKC.String(folded)
}
