package main

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// similarityThreshold is the Sørensen–Dice score two normalized keys must
// exceed to be considered the same answer.
const similarityThreshold = 0.85

type matcher struct {
	normalizer Normalizer
	metric     *metrics.SorensenDice
}

func newMatcher(normalizer Normalizer) *matcher {
	return &matcher{
		normalizer: normalizer,
		metric:     metrics.NewSorensenDice(),
	}
}

func (m *matcher) normalize(text string) string {
	return m.normalizer.Normalize(text)
}

// isSimilar reports whether two raw answers denote the same thing.
func (m *matcher) isSimilar(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	return m.similarKeys(a, m.normalize(a), b, m.normalize(b))
}

// similarKeys is the precomputed-key variant used by the grouping engine:
// exact raw match, then exact normalized match, then fuzzy bigram overlap
// between the normalized keys.
func (m *matcher) similarKeys(rawA, keyA, rawB, keyB string) bool {
	if strings.EqualFold(strings.TrimSpace(rawA), strings.TrimSpace(rawB)) {
		return true
	}
	if keyA == "" || keyB == "" {
		return false
	}
	if keyA == keyB {
		return true
	}
	return strutil.Similarity(keyA, keyB, m.metric) > similarityThreshold
}
