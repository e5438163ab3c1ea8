package graph

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// CanonicalAlias normalizes a surface form for alias indexing: control
// characters are dropped, whitespace runs collapse to a single space, and
// the result is lower-cased. Returns "" when nothing survives.
//
// The same canonicalization is applied to query spans at search time, so
// lookups hit the index regardless of casing or spacing.
func CanonicalAlias(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// Similarity returns the normalized Levenshtein similarity of two strings
// in [0, 1]. Identical strings score 1.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(distance)/float64(longest)
}

// WithinWindow reports whether two strings are close enough in length for
// their similarity to possibly reach the threshold. Used to prune pairwise
// comparisons: a length gap wider than (1-threshold) of the longer string
// already caps similarity below the threshold.
func WithinWindow(a, b string, threshold float64) bool {
	la, lb := len(a), len(b)
	gap := la - lb
	if gap < 0 {
		gap = -gap
	}
	return float64(gap) <= (1-threshold)*float64(max(la, lb))
}
