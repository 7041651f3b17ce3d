package application

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphaNumericRegex = regexp.MustCompile(`[^\p{L}\p{N}\s'-]`)

// NormalizeName lowercases, strips accents and punctuation, and collapses
// whitespace, so "Kylian Mbappé Lottin" and "kylian mbappe lottin" compare equal.
func NormalizeName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err == nil {
		name = folded
	}
	name = strings.ToLower(strings.TrimSpace(name))
	name = nonAlphaNumericRegex.ReplaceAllString(name, " ")

	var result strings.Builder
	prevSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		} else {
			result.WriteRune(r)
			prevSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}

// words splits normalized text into words, dropping possessive suffixes.
func words(text string) []string {
	fields := strings.Fields(NormalizeName(text))
	for i, f := range fields {
		f = strings.TrimSuffix(f, "'s")
		fields[i] = strings.Trim(f, "'-")
	}
	return fields
}

func SimilarityScore(a, b string) float64 {
	if a == b {
		return 1.0
	}

	a = NormalizeName(a)
	b = NormalizeName(b)

	if a == b {
		return 1.0
	}

	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	ra, rb := []rune(a), []rune(b)
	distance := levenshteinDistance(ra, rb)
	maxLen := max(len(ra), len(rb))

	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}
