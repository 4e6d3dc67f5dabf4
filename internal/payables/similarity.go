package payables

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// CalculateStringSimilarity returns a [0,1] similarity between two strings
// based on Levenshtein edit distance over the trimmed, lowercased inputs.
// Identical strings score 1, an empty string scores 0, everything else is
// 1 - distance/maxLen rounded to three decimals.
func CalculateStringSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	distance := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}

	similarity := 1 - float64(distance)/float64(maxLen)
	return math.Round(similarity*1000) / 1000
}
