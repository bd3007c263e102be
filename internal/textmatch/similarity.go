package textmatch

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	scoreExact      = 100
	scoreContained  = 95
	scoreWordInWord = 80
	partialWordMin  = 70
	partialWeight   = 60
)

// Similarity scores a against b from 0 to 100.
//
// Whole-string equality and containment short-circuit to 100 and 95. Otherwise
// the strings are compared word by word (words of a single rune are ignored): a
// word counts as exact when some word on the other side equals it and as
// partial when its best edit-distance score is at least 70. The result is the
// larger of the exact ratio and the partial ratio weighted at 60%, over the
// longer word list. Both directions are scored and the higher wins, so
// Similarity(a, b) == Similarity(b, a).
func Similarity(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return scoreExact
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return scoreContained
	}

	wa, wb := significantWords(na), significantWords(nb)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	score := math.Max(wordListScore(wa, wb), wordListScore(wb, wa))
	return int(math.Round(score))
}

// WordSimilarity scores two single words: 100 when equal, 80 when one contains
// the other, otherwise the edit-distance ratio scaled to 0-100.
func WordSimilarity(a, b string) float64 {
	if a == b {
		return scoreExact
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return scoreWordInWord
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen) * 100
}

func wordListScore(from, against []string) float64 {
	var exact, partial int
	for _, w := range from {
		best := 0.0
		for _, o := range against {
			s := WordSimilarity(w, o)
			if s > best {
				best = s
			}
			if best == scoreExact {
				break
			}
		}
		if best == scoreExact {
			exact++
		}
		if best >= partialWordMin {
			partial++
		}
	}

	total := float64(max(len(from), len(against)))
	exactScore := float64(exact) / total * 100
	partialScore := float64(partial) / total * partialWeight
	return math.Max(exactScore, partialScore)
}

func significantWords(normalized string) []string {
	fields := strings.Fields(normalized)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
