// Package merge reconciles lead candidates from all extraction passes into
// canonical, deduplicated, confidence-scored leads. Candidates for the same
// UID are serialized through a per-lead critical section; candidates for
// different UIDs merge fully in parallel.
package merge

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFuzzyThreshold is the default token-overlap similarity above which
// two normalized (name, domain) keys are considered the same entity.
const DefaultFuzzyThreshold = 0.85

// foldTransformer strips diacritics so "José" and "Jose" tokenize equally.
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lower-cases a name, strips diacritics and punctuation, and
// collapses whitespace. The result is the canonical form used for fuzzy
// matching and UID hashing.
func NormalizeName(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns the token-set similarity of two raw names, after
// normalization, on a 0..1 scale.
func Similarity(a, b string) float64 {
	return tokenSimilarity(nameTokens(NormalizeName(a)), nameTokens(NormalizeName(b)))
}

// nameTokens splits a normalized name into its word tokens.
func nameTokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// tokenSimilarity returns the Dice coefficient of two token sets:
// 2*|A∩B| / (|A|+|B|). Identical sets score 1, disjoint sets 0.
func tokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	common := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if set[t] && !seen[t] {
			common++
			seen[t] = true
		}
	}
	return 2 * float64(common) / float64(len(a)+len(b))
}
