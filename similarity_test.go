package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSimilarExactRaw(t *testing.T) {
	t.Parallel()

	m := newMatcher(newPortugueseNormalizer())

	assert.True(t, m.isSimilar("batata", "batata"))
	assert.True(t, m.isSimilar("Batata", "batata"))
	assert.True(t, m.isSimilar("BATATA ", "batata"))
}

func TestIsSimilarNormalized(t *testing.T) {
	t.Parallel()

	m := newMatcher(newPortugueseNormalizer())

	assert.True(t, m.isSimilar("batatas", "batata"), "plural collapses to the same key")
	assert.True(t, m.isSimilar("automóvel", "carro"), "synonyms collapse to the same key")
	assert.True(t, m.isSimilar("a limpeza", "faxina"))
}

func TestIsSimilarFuzzy(t *testing.T) {
	t.Parallel()

	m := newMatcher(newPortugueseNormalizer())

	// Typo that stemming alone does not collapse.
	assert.True(t, m.isSimilar("batata", "batataa"))
}

func TestIsSimilarRejects(t *testing.T) {
	t.Parallel()

	m := newMatcher(newPortugueseNormalizer())

	assert.False(t, m.isSimilar("batata", "arroz"))
	assert.False(t, m.isSimilar("carro", "carta"))
	assert.False(t, m.isSimilar("", "batata"))
	assert.False(t, m.isSimilar("batata", ""))
	assert.False(t, m.isSimilar("  ", "batata"))
}

func TestSimilarKeysEmpty(t *testing.T) {
	t.Parallel()

	m := newMatcher(newPortugueseNormalizer())

	// Stopword-only answers have empty keys; only an exact raw match groups
	// them.
	assert.True(t, m.isSimilar("muito", "muito"))
	assert.False(t, m.isSimilar("muito", "pouco"))
}
