package service

import "strings"

// Score tiers, highest first. A result keeps the first tier it satisfies.
const (
	ScoreExact     = 100
	ScorePrefix    = 90
	ScoreSubstring = 70
	ScoreFuzzy     = 60
	ScoreWord      = 50
	ScoreNone      = 0
)

const fuzzyThreshold = 0.7

// Score rates how well text matches query, case-insensitively.
func Score(query, text string) int {
	q := strings.ToLower(query)
	t := strings.ToLower(text)

	switch {
	case q == t:
		return ScoreExact
	case strings.HasPrefix(t, q):
		return ScorePrefix
	case strings.Contains(t, q):
		return ScoreSubstring
	case similarity(q, t) > fuzzyThreshold:
		return ScoreFuzzy
	case wordsOverlap(q, t):
		return ScoreWord
	default:
		return ScoreNone
	}
}

// similarity is 1 - distance/maxLen over runes. Both strings empty is a
// perfect match.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein is the classic DP edit distance with unit costs. Memory is
// O(len(b)) using two rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// wordsOverlap reports whether every query word contains, or is contained
// by, some word of text.
func wordsOverlap(query, text string) bool {
	qWords := strings.Fields(query)
	if len(qWords) == 0 {
		return false
	}
	tWords := strings.Fields(text)

	for _, qw := range qWords {
		found := false
		for _, tw := range tWords {
			if strings.Contains(tw, qw) || strings.Contains(qw, tw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
