package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCasingAndWhitespace(t *testing.T) {
	t.Parallel()

	n := newPortugueseNormalizer()

	assert.Equal(t, n.Normalize("batata"), n.Normalize("  BATATA "))
	assert.Equal(t, n.Normalize("batata"), n.Normalize("Batata"))
}

func TestNormalizeDiacritics(t *testing.T) {
	t.Parallel()

	n := newPortugueseNormalizer()

	assert.Equal(t, n.Normalize("avó"), n.Normalize("avo"))
	assert.Equal(t, n.Normalize("pressão"), n.Normalize("pressao"))
}

func TestNormalizeStopwords(t *testing.T) {
	t.Parallel()

	n := newPortugueseNormalizer()

	assert.Equal(t, n.Normalize("batata"), n.Normalize("a batata"))
	assert.Equal(t, n.Normalize("praia"), n.Normalize("eu muito na praia"))
	assert.Equal(t, "", n.Normalize("o a de"), "stopword-only answers normalize to empty")
}

func TestNormalizeSynonyms(t *testing.T) {
	t.Parallel()

	n := newPortugueseNormalizer()

	assert.Equal(t, n.Normalize("carro"), n.Normalize("automóvel"))
	assert.Equal(t, n.Normalize("dinheiro"), n.Normalize("grana"))
	assert.Equal(t, n.Normalize("limpeza"), n.Normalize("faxina"))
}

func TestNormalizeStemming(t *testing.T) {
	t.Parallel()

	n := newPortugueseNormalizer()

	assert.Equal(t, n.Normalize("batata"), n.Normalize("batatas"))
	assert.Equal(t, n.Normalize("gatinho"), n.Normalize("gato"))
}

func TestNormalizeWordOrder(t *testing.T) {
	t.Parallel()

	n := newPortugueseNormalizer()

	assert.Equal(t, n.Normalize("bolo cenoura"), n.Normalize("cenoura bolo"))
}

func TestNormalizeEmpty(t *testing.T) {
	t.Parallel()

	n := newPortugueseNormalizer()

	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   "))
}

func TestStemPortuguese(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		word string
		want string
	}{
		{"batata", "batat"},
		{"batatas", "batat"},
		{"carro", "carr"},
		{"limpeza", "limp"},
		{"trabalho", "trabalh"},
		{"gatinho", "gat"},
		{"arroz", "arroz"},
		{"sol", "sol"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, stemPortuguese(tc.word), "stem(%q)", tc.word)
	}
}
