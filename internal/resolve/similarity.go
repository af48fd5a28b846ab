package resolve

import "strings"

// NormalizeName lowercases a name and strips the punctuation that differs
// between providers ("Hines-Allen" vs "hines allen", "D'Angelo" vs
// "dangelo"), collapsing runs of whitespace.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), " ")
}

// Ratio is a normalized string-alignment score in [0,1]: 1 for identical
// normalized strings, scaled down by edit distance relative to the longer
// string.
func Ratio(a, b string) float64 {
	a = NormalizeName(a)
	b = NormalizeName(b)
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein(a, b)
	if d >= longest {
		return 0
	}
	return 1 - float64(d)/float64(longest)
}

// levenshtein computes edit distance with a rolling single-row buffer.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur := prev[0] + 1
		diag := prev[0]
		prev[0] = cur
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := diag + cost
			if v := prev[j] + 1; v < next {
				next = v
			}
			if v := cur + 1; v < next {
				next = v
			}
			diag = prev[j]
			prev[j] = next
			cur = next
		}
	}
	return prev[len(b)]
}
