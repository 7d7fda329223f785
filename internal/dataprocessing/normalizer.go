package dataprocessing

import (
	"strings"
)

// NormalizeCode canonicalizes a carrier code by stripping every character
// that is not a decimal digit. Manifests arrive with inconsistent
// punctuation and prefixes around the numeric code, so the digit sequence
// is the only stable join key against the configured represented list.
// The result may be empty; callers treat empty-normalized codes as a
// data-quality signal, not an error.
func NormalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCodes normalizes a list of carrier codes into a membership set.
// Every code is passed through NormalizeCode so membership tests are
// robust to formatting variance on either side of the comparison.
func NormalizeCodes(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[NormalizeCode(code)] = struct{}{}
	}
	return set
}
